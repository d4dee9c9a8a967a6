package negotiate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"homey-layout/internal/catalog"
	"homey-layout/internal/metrics"
	"homey-layout/internal/oracle"
	"homey-layout/internal/postprocess"
	"homey-layout/internal/trs"
)

const instrumentationName = "homey-layout/internal/negotiate"

// Defaults for Config fields left zero.
const (
	DefaultMaxIterations = 5
	DefaultAssetWorkers  = 4
	DefaultOracleTimeout = 90 * time.Second
)

// ErrAlreadyStarted is returned when Start is called on a used engine.
var ErrAlreadyStarted = errors.New("negotiate: session already started")

// Scene is the scene state the engine drives; *scene.Tracker satisfies it.
type Scene interface {
	EnsurePresent(ctx context.Context, item catalog.PlaceableItem) error
	ApplyTransform(id int, t trs.Transform) error
	Snapshot(ctx context.Context) (*image.NRGBA, error)
	Present(id int) bool
	Layout() trs.Layout
}

// Config holds the per-session settings.
type Config struct {
	MaxIterations int
	Room          oracle.Room
	Strategy      string
	SendImage     bool    // attach the scene snapshot to oracle requests
	FloorPlan     bool    // attach an ASCII floor plan
	FloorPlanCell float64 // meters per floor-plan cell
	OracleTimeout time.Duration
	AssetWorkers  int
}

// RoundSummary records what one round did.
type RoundSummary struct {
	Iteration int
	Outcome   string
	Accepted  int
	Applied   int
	Pending   int
	Dropped   int
	Skipped   []int // items whose asset was unavailable this round
}

// Result is the outcome of a session.
type Result struct {
	SessionID string
	State     State
	Rounds    []RoundSummary
	Layout    trs.Layout // transforms of every present item
	Pending   trs.Layout // accepted transforms for items never made present
	Err       error      // cause for Failed and Cancelled
}

// Status is a point-in-time view of a running engine.
type Status struct {
	SessionID string
	State     State
	Iteration int
}

// Engine runs one placement negotiation session.
type Engine struct {
	cfg      Config
	scene    Scene
	oracle   oracle.Oracle
	strategy Strategy
	logger   *zap.Logger
	metrics  *metrics.Recorder
	tracer   trace.Tracer

	mu        sync.Mutex
	state     State
	iteration int
	sessionID string
}

// New creates an engine in the Idle state. logger and rec may be nil.
func New(cfg Config, sc Scene, or oracle.Oracle, logger *zap.Logger, rec *metrics.Recorder) (*Engine, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.AssetWorkers <= 0 {
		cfg.AssetWorkers = DefaultAssetWorkers
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = DefaultOracleTimeout
	}
	if sc == nil || or == nil {
		return nil, errors.New("negotiate: scene and oracle are required")
	}
	strategy, err := NewStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		scene:    sc,
		oracle:   or,
		strategy: strategy,
		logger:   logger,
		metrics:  rec,
		tracer:   otel.Tracer(instrumentationName),
		state:    Idle,
	}, nil
}

// Status reports the current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{SessionID: e.sessionID, State: e.state, Iteration: e.iteration}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) setIteration(i int) {
	e.mu.Lock()
	e.iteration = i
	e.mu.Unlock()
}

// session is the mutable state of one run, owned by the Start goroutine.
type session struct {
	id      string
	items   []catalog.PlaceableItem
	known   map[int]bool
	placed  map[int]bool
	pending trs.Layout
	rounds  []RoundSummary
	log     *zap.Logger
}

// Start runs the negotiation to a terminal state. With no items the engine
// stays Idle and Start returns immediately. The returned error is non-nil
// for Failed and Cancelled sessions and for misuse.
func (e *Engine) Start(ctx context.Context, items []catalog.PlaceableItem) (Result, error) {
	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		return Result{}, ErrAlreadyStarted
	}
	if len(items) == 0 {
		e.mu.Unlock()
		return Result{State: Idle, Layout: trs.Layout{}, Pending: trs.Layout{}}, nil
	}
	e.sessionID = uuid.NewString()
	e.state = Iterating
	e.iteration = 1
	s := &session{
		id:      e.sessionID,
		items:   sortedItems(items),
		known:   make(map[int]bool, len(items)),
		placed:  make(map[int]bool),
		pending: make(trs.Layout),
		log:     e.logger.With(zap.String("session", e.sessionID)),
	}
	e.mu.Unlock()

	for _, it := range s.items {
		s.known[it.ID] = true
	}
	s.log.Info("negotiation started",
		zap.Int("items", len(s.items)),
		zap.String("strategy", e.strategy.Name()),
		zap.Int("max_iterations", e.cfg.MaxIterations),
	)

	state, err := e.loop(ctx, s)
	e.setState(state)
	e.metrics.Session(state.String())

	res := Result{
		SessionID: s.id,
		State:     state,
		Rounds:    s.rounds,
		Layout:    e.scene.Layout(),
		Pending:   s.pending,
		Err:       err,
	}
	fields := []zap.Field{zap.String("state", state.String()), zap.Int("rounds", len(s.rounds))}
	if err != nil {
		s.log.Warn("negotiation ended", append(fields, zap.Error(err))...)
	} else {
		s.log.Info("negotiation ended", fields...)
	}
	return res, err
}

func (e *Engine) loop(ctx context.Context, s *session) (State, error) {
	for iteration := 1; ; iteration++ {
		if iteration > e.cfg.MaxIterations {
			return Exhausted, nil
		}
		e.setIteration(iteration)
		if err := ctx.Err(); err != nil {
			return Cancelled, err
		}

		next, err := e.round(ctx, s, iteration)
		if next != Iterating {
			return next, err
		}
	}
}

// round runs one iteration and returns Iterating to continue or a
// terminal state.
func (e *Engine) round(ctx context.Context, s *session, iteration int) (State, error) {
	ctx, span := e.tracer.Start(ctx, "negotiate.round", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.Int("round.iteration", iteration),
		attribute.String("round.strategy", e.strategy.Name()),
	))
	defer span.End()

	log := s.log.With(zap.Int("iteration", iteration))
	summary := RoundSummary{Iteration: iteration}
	finish := func(state State, outcome string, err error) (State, error) {
		summary.Outcome = outcome
		s.rounds = append(s.rounds, summary)
		e.metrics.Round(e.strategy.Name(), outcome)
		span.SetAttributes(attribute.String("round.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		return state, err
	}

	// 1. Make every item present; failures are per item and absorbed.
	summary.Skipped = e.ensureAll(ctx, s, log)
	summary.Applied += e.applyPending(s, log)

	if err := ctx.Err(); err != nil {
		return finish(Cancelled, "cancelled", err)
	}

	// 2. Snapshot.
	img, err := e.scene.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return finish(Cancelled, "cancelled", ctx.Err())
		}
		return finish(Failed, "snapshot_failed", err)
	}

	// 3. Build the request base.
	base, err := e.baseRequest(s, img)
	if err != nil {
		return finish(Failed, "request_failed", err)
	}

	// 4. Ask the oracle through the strategy.
	prop, err := e.strategy.Run(ctx, Round{
		Iteration: iteration,
		Items:     s.items,
		Placed:    s.placed,
		Base:      base,
		Call:      e.call,
	})
	if ctx.Err() != nil {
		// Abandoned: whatever came back is discarded.
		return finish(Cancelled, "cancelled", ctx.Err())
	}
	if err != nil {
		if errors.Is(err, oracle.ErrEmptyResponse) {
			log.Info("oracle has no more changes")
			return finish(Converged, "converged", nil)
		}
		return finish(Failed, "oracle_failed", err)
	}

	// 5. Validate the whole batch before touching the scene.
	v := validate(prop, s.known)
	summary.Accepted = len(v.accepted)
	summary.Dropped = v.droppedTotal()
	for reason, n := range v.dropped {
		e.metrics.Dropped(reason, n)
	}
	if summary.Dropped > 0 {
		log.Warn("placements dropped", zap.Any("reasons", v.dropped))
	}
	if len(v.accepted) == 0 {
		log.Info("no placements accepted")
		return finish(Converged, "converged", nil)
	}

	// 6. Apply in response order.
	for _, id := range v.order {
		t := v.accepted[id]
		s.placed[id] = true
		if !e.scene.Present(id) {
			s.pending[id] = t
			summary.Pending++
			log.Debug("placement pending until asset is present", zap.Int("item_id", id))
			continue
		}
		if err := e.scene.ApplyTransform(id, t); err != nil {
			return finish(Failed, "apply_failed", fmt.Errorf("negotiate: apply item %d: %w", id, err))
		}
		delete(s.pending, id)
		summary.Applied++
	}
	log.Info("round applied",
		zap.Int("accepted", summary.Accepted),
		zap.Int("applied", summary.Applied),
		zap.Int("pending", summary.Pending),
		zap.Int("dropped", summary.Dropped),
	)

	// 7. Continue; the caller checks the ceiling.
	return finish(Iterating, "applied", nil)
}

// ensureAll calls EnsurePresent for every absent item with bounded
// parallelism and waits for all of them. It returns the ids that failed.
// Failures caused by cancellation are not recorded.
func (e *Engine) ensureAll(ctx context.Context, s *session, log *zap.Logger) []int {
	var (
		mu      sync.Mutex
		skipped []int
		g       errgroup.Group
	)
	g.SetLimit(e.cfg.AssetWorkers)
	for _, it := range s.items {
		if e.scene.Present(it.ID) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := e.scene.EnsurePresent(ctx, it)
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if err != nil {
				log.Warn("item skipped this round", zap.Int("item_id", it.ID), zap.String("asset_ref", it.AssetRef), zap.Error(err))
				e.metrics.AssetFailure()
				mu.Lock()
				skipped = append(skipped, it.ID)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil
	}

	present := 0
	for _, it := range s.items {
		if e.scene.Present(it.ID) {
			present++
		}
	}
	e.metrics.ItemsPresent(present)
	sortInts(skipped)
	return skipped
}

// applyPending applies held transforms for items that became present.
func (e *Engine) applyPending(s *session, log *zap.Logger) int {
	applied := 0
	for _, id := range s.pending.IDs() {
		if !e.scene.Present(id) {
			continue
		}
		if err := e.scene.ApplyTransform(id, s.pending[id]); err != nil {
			log.Warn("pending placement not applied", zap.Int("item_id", id), zap.Error(err))
			continue
		}
		delete(s.pending, id)
		applied++
	}
	return applied
}

func (e *Engine) baseRequest(s *session, img *image.NRGBA) (oracle.Request, error) {
	layout := e.scene.Layout()
	for id, t := range s.pending {
		layout[id] = t
	}
	// Only items the oracle has placed are reported as prior layout; the
	// identity pose of a fresh item is not a placement.
	prior := make(trs.Layout, len(layout))
	for id, t := range layout {
		if s.placed[id] {
			prior[id] = t
		}
	}

	req := oracle.Request{
		Items:       oracle.ItemsFrom(s.items),
		Room:        e.cfg.Room,
		PriorLayout: oracle.PlacementsFrom(prior),
	}
	if e.cfg.SendImage && img != nil {
		url, err := postprocess.DataURL(img)
		if err != nil {
			return oracle.Request{}, err
		}
		req.SceneImage = url
	}
	if e.cfg.FloorPlan {
		footprints := make(map[int]*catalog.Footprint, len(s.items))
		for _, it := range s.items {
			footprints[it.ID] = it.Footprint
		}
		req.FloorPlan = oracle.FloorPlan(e.cfg.Room, prior, footprints, e.cfg.FloorPlanCell)
	}
	return req, nil
}

// call is the CallFunc handed to strategies: one oracle request under the
// per-call timeout, with expiry reported as a transport error.
func (e *Engine) call(ctx context.Context, req oracle.Request) (oracle.Reply, error) {
	if err := ctx.Err(); err != nil {
		return oracle.Reply{}, err
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.OracleTimeout)
	defer cancel()

	phase := "placement"
	if req.Phase == oracle.PhaseGuidance {
		phase = "guidance"
	}
	start := time.Now()
	reply, err := e.oracle.RequestPlacement(callCtx, req)
	e.metrics.OracleCall(phase, time.Since(start), err)
	if err == nil {
		return reply, nil
	}

	var oe *oracle.Error
	if errors.As(err, &oe) {
		return oracle.Reply{}, err
	}
	// Foreign errors: a blown deadline or anything else is transport.
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("no answer within %s: %w", e.cfg.OracleTimeout, err)
	}
	return oracle.Reply{}, &oracle.Error{Kind: oracle.ErrTransport, Op: phase, Err: err}
}

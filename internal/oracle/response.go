package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Every field of a placement is required; pointers tell absent from zero.
type rawPlacement struct {
	ID          *int            `json:"id"`
	Position    *rawPosition    `json:"position"`
	Orientation *rawOrientation `json:"orientation"`
}

type rawPosition struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

type rawOrientation struct {
	RotationX *float64 `json:"rotationX"`
	RotationY *float64 `json:"rotationY"`
	RotationZ *float64 `json:"rotationZ"`
}

func (r rawPlacement) placement() (Placement, error) {
	if r.ID == nil {
		return Placement{}, errors.New("no id")
	}
	pos, orient := r.Position, r.Orientation
	switch {
	case pos == nil:
		return Placement{}, errors.New("no position")
	case orient == nil:
		return Placement{}, errors.New("no orientation")
	case pos.X == nil || pos.Y == nil || pos.Z == nil:
		return Placement{}, errors.New("position needs x, y and z")
	case orient.RotationX == nil || orient.RotationY == nil || orient.RotationZ == nil:
		return Placement{}, errors.New("orientation needs rotationX, rotationY and rotationZ")
	}
	p := Placement{ID: *r.ID}
	p.Position.X, p.Position.Y, p.Position.Z = *pos.X, *pos.Y, *pos.Z
	p.Orientation.RotationX = *orient.RotationX
	p.Orientation.RotationY = *orient.RotationY
	p.Orientation.RotationZ = *orient.RotationZ
	return p, nil
}

type envelope struct {
	Products *[]rawPlacement `json:"products"`
	Product  *rawPlacement   `json:"product"`
}

var errNoEnvelope = errors.New(`neither "products" nor "product" present`)

// ParseContent turns assistant text into a batch. It accepts the bulk
// {"products": [...]} and single {"product": {...}} shapes, with or without
// markdown code fences or surrounding prose, and repairs slightly broken
// JSON (trailing commas, single quotes, truncated brackets).
func ParseContent(content string) (Batch, error) {
	const op = "parse placement"

	body := stripFences(content)
	if body == "" {
		return nil, emptyErr(op)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, malformedErr(op, err)
	}

	var raws []rawPlacement
	switch {
	case env.Products != nil:
		raws = *env.Products
	case env.Product != nil:
		raws = []rawPlacement{*env.Product}
	}
	if len(raws) == 0 {
		return nil, emptyErr(op)
	}

	batch := make(Batch, 0, len(raws))
	for i, r := range raws {
		p, err := r.placement()
		if err != nil {
			return nil, malformedErr(op, fmt.Errorf("entry %d: %w", i, err))
		}
		batch = append(batch, p)
	}
	return batch, nil
}

func decodeEnvelope(body string) (envelope, error) {
	var env envelope
	err := json.Unmarshal([]byte(body), &env)
	if err != nil {
		if obj, ok := outermostObject(body); ok && obj != body {
			body = obj
			err = json.Unmarshal([]byte(body), &env)
		}
	}
	if err != nil {
		repaired, rerr := jsonrepair.JSONRepair(body)
		if rerr != nil {
			return envelope{}, fmt.Errorf("%w (repair: %v)", err, rerr)
		}
		env = envelope{}
		if err := json.Unmarshal([]byte(repaired), &env); err != nil {
			return envelope{}, err
		}
	}
	if env.Products == nil && env.Product == nil {
		return envelope{}, errNoEnvelope
	}
	return env, nil
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// outermostObject returns the text from the first '{' to the last '}'.
func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContent(t *testing.T) {
	cases := []struct {
		name    string
		content string
		ids     []int
		kind    error
	}{
		{
			name:    "bulk",
			content: `{"products":[{"id":0,"position":{"x":1.25,"y":0,"z":2},"orientation":{"rotationX":0,"rotationY":90,"rotationZ":0}},{"id":1,"position":{"x":0.5,"y":0,"z":0.5},"orientation":{"rotationX":0,"rotationY":0,"rotationZ":0}}]}`,
			ids:     []int{0, 1},
		},
		{
			name:    "single",
			content: `{"product":{"id":3,"position":{"x":1,"y":0,"z":1},"orientation":{"rotationX":0,"rotationY":180,"rotationZ":0}}}`,
			ids:     []int{3},
		},
		{
			name:    "fenced",
			content: "```json\n{\"products\":[{\"id\":2,\"position\":{\"x\":1,\"y\":0,\"z\":1},\"orientation\":{\"rotationX\":0,\"rotationY\":0,\"rotationZ\":0}}]}\n```",
			ids:     []int{2},
		},
		{
			name:    "prose around json",
			content: "Here is the layout:\n{\"product\":{\"id\":1,\"position\":{\"x\":1,\"y\":0,\"z\":1},\"orientation\":{\"rotationX\":0,\"rotationY\":0,\"rotationZ\":0}}}\nEnjoy!",
			ids:     []int{1},
		},
		{
			name:    "trailing comma repaired",
			content: `{"products":[{"id":4,"position":{"x":1,"y":0,"z":1},"orientation":{"rotationX":0,"rotationY":0,"rotationZ":0},},]}`,
			ids:     []int{4},
		},
		{
			name:    "duplicates kept in order",
			content: `{"products":[{"id":0,"position":{"x":1,"y":0,"z":1},"orientation":{"rotationX":0,"rotationY":0,"rotationZ":0}},{"id":0,"position":{"x":2,"y":0,"z":2},"orientation":{"rotationX":0,"rotationY":0,"rotationZ":0}}]}`,
			ids:     []int{0, 0},
		},
		{name: "empty products", content: `{"products": []}`, kind: ErrEmptyResponse},
		{name: "blank", content: "  \n", kind: ErrEmptyResponse},
		{name: "empty fence", content: "```json\n```", kind: ErrEmptyResponse},
		{name: "wrong envelope", content: `{"items": []}`, kind: ErrMalformedResponse},
		{name: "prose", content: "I would move the sofa closer to the window.", kind: ErrMalformedResponse},
		{name: "missing id", content: `{"products":[{"position":{"x":1,"y":0,"z":1},"orientation":{"rotationX":0,"rotationY":0,"rotationZ":0}}]}`, kind: ErrMalformedResponse},
		{name: "bare id", content: `{"products":[{"id":0}]}`, kind: ErrMalformedResponse},
		{name: "missing orientation", content: `{"product":{"id":0,"position":{"x":1,"y":0,"z":1}}}`, kind: ErrMalformedResponse},
		{name: "partial position", content: `{"products":[{"id":1,"position":{"x":2},"orientation":{"rotationX":0,"rotationY":0,"rotationZ":0}}]}`, kind: ErrMalformedResponse},
		{name: "partial orientation", content: `{"products":[{"id":1,"position":{"x":2,"y":0,"z":1},"orientation":{"rotationY":90}}]}`, kind: ErrMalformedResponse},
		{name: "one bad entry spoils the batch", content: `{"products":[{"id":0,"position":{"x":1,"y":0,"z":1},"orientation":{"rotationX":0,"rotationY":0,"rotationZ":0}},{"id":1}]}`, kind: ErrMalformedResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch, err := ParseContent(tc.content)
			if tc.kind != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.kind)
				var oe *Error
				assert.ErrorAs(t, err, &oe)
				return
			}
			require.NoError(t, err)
			ids := make([]int, len(batch))
			for i, p := range batch {
				ids[i] = p.ID
			}
			assert.Equal(t, tc.ids, ids)
		})
	}
}

func TestParseContentValues(t *testing.T) {
	batch, err := ParseContent(`{"product":{"id":7,"position":{"x":1.234,"y":0.5,"z":-2},"orientation":{"rotationX":10,"rotationY":-90.5,"rotationZ":3}}}`)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	p := batch[0]
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, 1.234, p.Position.X)
	assert.Equal(t, 0.5, p.Position.Y)
	assert.Equal(t, -2.0, p.Position.Z)
	assert.Equal(t, 10.0, p.Orientation.RotationX)
	assert.Equal(t, -90.5, p.Orientation.RotationY)
	assert.Equal(t, 3.0, p.Orientation.RotationZ)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1} `))
}

package grid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionOpposite(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, North, South.Opposite())
	assert.Equal(t, West, East.Opposite())
	assert.Equal(t, East, West.Opposite())
}

func TestDirectionButtonName(t *testing.T) {
	assert.Equal(t, "Up", North.ButtonName())
	assert.Equal(t, "Right", East.ButtonName())
	assert.Equal(t, "Down", South.ButtonName())
	assert.Equal(t, "Left", West.ButtonName())
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"North", North},
		{"up", North},
		{"EAST", East},
		{"Right", East},
		{"south", South},
		{"Down", South},
		{" west ", West},
		{"left", West},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDirection("sideways")
	assert.Error(t, err)
}

func TestDirectionBetween(t *testing.T) {
	origin := Point{5, 5}
	for _, d := range Directions {
		got, ok := DirectionBetween(origin, origin.Add(d.Delta()))
		require.True(t, ok)
		assert.Equal(t, d, got)
	}

	_, ok := DirectionBetween(origin, origin)
	assert.False(t, ok)
}

func TestDirectionJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		D Direction `json:"d"`
	}{West})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"West"}`, string(data))

	var out struct {
		D Direction `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"down"}`), &out))
	assert.Equal(t, South, out.D)
}

func TestPointAndSize(t *testing.T) {
	p := Point{2, 3}
	assert.Equal(t, Point{5, 1}, p.Add(Point{3, -2}))
	assert.Equal(t, Point{-1, 3}, p.Sub(Point{3, 0}))
	assert.Equal(t, 7, p.ManhattanTo(Point{-2, 6}))
	assert.Equal(t, "2/3", p.String())

	s := Size{Width: 4, Height: 3}
	assert.True(t, s.Contains(Point{3, 2}))
	assert.False(t, s.Contains(Point{4, 0}))
	assert.False(t, s.Contains(Point{0, -1}))
	assert.Equal(t, 11, s.Index(Point{3, 2}))
	assert.Equal(t, 12, s.Area())
}

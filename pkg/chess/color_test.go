package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want Color
	}{
		{"white", White},
		{"WHITE", White},
		{"w", White},
		{"Black", Black},
		{"b", Black},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseColor(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseColor("red")
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestColorOpp(t *testing.T) {
	assert.Equal(t, Black, White.Opp())
	assert.Equal(t, White, Black.Opp())
	assert.Equal(t, NoColor, NoColor.Opp())
}

func TestTurnFromFEN(t *testing.T) {
	turn, err := TurnFromFEN(StartingFEN)
	require.NoError(t, err)
	assert.Equal(t, White, turn)

	turn, err = TurnFromFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	require.NoError(t, err)
	assert.Equal(t, Black, turn)

	_, err = TurnFromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR")
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = TurnFromFEN("8/8/8/8/8/8/8/8 x - - 0 1")
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

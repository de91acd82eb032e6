package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/holdemd/internal/deck"
)

// permutations calls f with every ordering of cards (Heap's algorithm).
func permutations(cards []deck.Card, f func([]deck.Card)) {
	n := len(cards)
	c := make([]int, n)
	f(cards)
	for i := 0; i < n; {
		if c[i] < i {
			if i%2 == 0 {
				cards[0], cards[i] = cards[i], cards[0]
			} else {
				cards[c[i]], cards[i] = cards[i], cards[c[i]]
			}
			f(cards)
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
}

func TestEvaluateKnownHands(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		want  int
	}{
		{
			"high card",
			"A0 B1 C3 D6 A7 B9 CA",
			HighCardOffset + 28561*10 + 2197*9 + 169*7 + 13*6 + 3,
		},
		{
			"pair of nines",
			"A9 B1 C3 D6 A7 B9 CA",
			PairOffset + 2197*9 + 169*10 + 13*7 + 6,
		},
		{
			"two pair nines and fives",
			"A9 B1 C3 D3 A7 B9 CA",
			TwoPairOffset + 169*9 + 13*3 + 10,
		},
		{
			"three kings",
			"A0 BB CB D6 A7 DB CA",
			ThreeOffset + 169*11 + 13*10 + 7,
		},
		{
			"straight to seven",
			"AC B1 C2 D3 A4 B5 CA",
			StraightOffset + 5,
		},
		{
			"wheel straight",
			"AC C0 A1 D2 A3 CA B1",
			StraightOffset + 3,
		},
		{
			"flush",
			"A0 B1 B3 B6 B7 B0 CA",
			FlushOffset + 28561*7 + 2197*6 + 169*3 + 13*1 + 0,
		},
		{
			"full house deuces over nines",
			"A0 B0 C0 D6 A7 B9 C9",
			FullHouseOffset + 13*0 + 9,
		},
		{
			"four eights",
			"A0 B1 C6 D6 A7 A6 B6",
			FourOffset + 13*6 + 7,
		},
		{
			"straight flush to queen",
			"BB B1 C6 C7 C8 C9 CA",
			StraightFlushOffset + 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := deck.MustParseCards(tt.cards)
			require.Len(t, cards, 7)
			// Input order must never matter.
			permutations(cards, func(p []deck.Card) {
				got := Evaluate(p)
				require.Equal(t, tt.want, got, "cards %v", p)
			})
		})
	}
}

func TestEvaluateStraightFlushWithInterleavedDuplicate(t *testing.T) {
	// The off-suit seven shares a rank with a card inside the run; the
	// straight flush must still be found no matter how the equal ranks
	// interleave after sorting.
	cards := deck.MustParseCards("C3 C4 C5 C6 C7 A5 B0")
	permutations(cards, func(p []deck.Card) {
		require.Equal(t, StraightFlushOffset+7, Evaluate(p))
	})
}

func TestEvaluateSuitedWheel(t *testing.T) {
	cards := deck.MustParseCards("A0 A1 A2 A3 AC B5 C9")
	assert.Equal(t, StraightFlushOffset+3, Evaluate(cards))
}

func TestEvaluateTwoTriplesIsFullHouse(t *testing.T) {
	// Two triples play as the higher triple full of the lower.
	cards := deck.MustParseCards("A5 B5 C5 A9 B9 C9 D0")
	assert.Equal(t, FullHouseOffset+13*9+5, Evaluate(cards))
}

func TestEvaluateFullHousePicksHighestPair(t *testing.T) {
	// Triple of threes with pairs of kings and fours available: the kings
	// make the pair.
	cards := deck.MustParseCards("A1 B1 C1 A2 B2 AB BB")
	assert.Equal(t, FullHouseOffset+13*1+11, Evaluate(cards))
}

func TestEvaluateCategoryOrdering(t *testing.T) {
	// Each hand is strictly better than the one before it, across
	// category boundaries.
	ascending := []string{
		"A0 B1 C3 D6 A7 B9 CA", // high card
		"A9 B1 C3 D6 A7 B9 CA", // pair
		"A9 B1 C3 D3 A7 B9 CA", // two pair
		"A0 BB CB D6 A7 DB CA", // trips
		"AC B1 C2 D3 A4 B5 CA", // straight
		"A0 B1 B3 B6 B7 B0 CA", // flush
		"A0 B0 C0 D6 A7 B9 C9", // full house
		"A0 B1 C6 D6 A7 A6 B6", // quads
		"BB B1 C6 C7 C8 C9 CA", // straight flush
	}
	prev := -1
	for _, s := range ascending {
		v := Evaluate(deck.MustParseCards(s))
		assert.Greater(t, v, prev, "hand %q", s)
		prev = v
	}
}

func TestEvaluateTies(t *testing.T) {
	// Same made hand in different suits ties exactly.
	a := Evaluate(deck.MustParseCards("A9 B1 C3 D6 A7 B9 CA"))
	b := Evaluate(deck.MustParseCards("C9 D1 A3 B6 C7 D9 BA"))
	assert.Equal(t, a, b)
}

func TestEvaluateKickerBreaksTie(t *testing.T) {
	// Identical pair of nines; the ace kicker beats the king kicker.
	high := Evaluate(deck.MustParseCards("A9 B9 C1 D3 A5 B7 CC"))
	low := Evaluate(deck.MustParseCards("A9 B9 C1 D3 A5 B7 CB"))
	assert.Greater(t, high, low)
}

func TestEvaluateWrongSizePanics(t *testing.T) {
	assert.Panics(t, func() {
		Evaluate(deck.MustParseCards("A0 B1 C3"))
	})
}

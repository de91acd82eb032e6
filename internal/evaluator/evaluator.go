// Package evaluator ranks 7-card No-Limit Hold'em hands.
//
// Every hand maps to a single non-negative integer: a category base offset
// plus up to five "orders" (primary rank down to last kicker) packed base-13.
// Larger is strictly better, equal means an exact tie through the fifth
// kicker, so showdown comparison is plain integer comparison.
package evaluator

import (
	"fmt"
	"sort"

	"github.com/cardtable/holdemd/internal/deck"
)

// Category base offsets. Each offset clears the densest value the previous
// category can produce, so categories never collide.
const (
	HighCardOffset      = 0
	PairOffset          = HighCardOffset + 13*13*13*13*13
	TwoPairOffset       = PairOffset + 13*13*13*13
	ThreeOffset         = TwoPairOffset + 13*13*13
	StraightOffset      = ThreeOffset + 13*13*13
	FlushOffset         = StraightOffset + 13
	FullHouseOffset     = FlushOffset + 13*13*13*13*13
	FourOffset          = FullHouseOffset + 13*13
	StraightFlushOffset = FourOffset + 13*13
)

// Evaluate ranks exactly 7 cards (2 hole + 5 community). Any other input
// size is a contract violation.
func Evaluate(cards []deck.Card) int {
	if len(cards) != 7 {
		panic(fmt.Sprintf("evaluator: want 7 cards, got %d", len(cards)))
	}

	sorted := make([]deck.Card, 7)
	copy(sorted, cards)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank() < sorted[j].Rank()
	})

	best := highCard(sorted)
	for _, f := range []func([]deck.Card) int{
		pair, twoPair, threeOfAKind, straight, flush, fullHouse, fourOfAKind, straightFlush,
	} {
		if v := f(sorted); v > best {
			best = v
		}
	}
	return best
}

// value packs a category offset and up to five orders base-13, the most
// significant kicker carrying the largest weight.
func value(offset int, o4, o3, o2, o1, o0 uint8) int {
	return offset +
		int(o4)*13*13*13*13 +
		int(o3)*13*13*13 +
		int(o2)*13*13 +
		int(o1)*13 +
		int(o0)
}

func rank(cards []deck.Card, i int) uint8 { return cards[i].Rank() }

func highCard(c []deck.Card) int {
	return value(HighCardOffset, rank(c, 6), rank(c, 5), rank(c, 4), rank(c, 3), rank(c, 2))
}

func pair(c []deck.Card) int {
	for i := 6; i >= 1; i-- {
		if rank(c, i) != rank(c, i-1) {
			continue
		}
		// Kickers are the three highest ranks outside the pair; the fixed
		// positions of the sorted array shift by one below the pair.
		k1 := rank(c, 6)
		if i == 6 {
			k1 = rank(c, 4)
		}
		k2 := rank(c, 5)
		if i >= 5 {
			k2 = rank(c, 3)
		}
		k3 := rank(c, 4)
		if i >= 4 {
			k3 = rank(c, 2)
		}
		return value(PairOffset, 0, rank(c, i), k1, k2, k3)
	}
	return 0
}

func twoPair(c []deck.Card) int {
	high, low := -1, -1
	for i := 6; i > 0; {
		if rank(c, i) == rank(c, i-1) {
			if high < 0 {
				high = i
				i--
				continue
			}
			low = i
			break
		}
		i--
	}
	if low < 0 {
		return 0
	}

	var kicker uint8
	switch {
	case high != 6:
		kicker = rank(c, 6)
	case low != 4:
		kicker = rank(c, 4)
	default:
		kicker = rank(c, 2)
	}
	return value(TwoPairOffset, 0, 0, rank(c, high), rank(c, low), kicker)
}

func threeOfAKind(c []deck.Card) int {
	for i := 6; i >= 2; i-- {
		if rank(c, i) != rank(c, i-1) || rank(c, i) != rank(c, i-2) {
			continue
		}
		k1 := rank(c, 6)
		if i == 6 {
			k1 = rank(c, 3)
		}
		k2 := rank(c, 5)
		if i >= 5 {
			k2 = rank(c, 2)
		}
		return value(ThreeOffset, 0, 0, rank(c, i), k1, k2)
	}
	return 0
}

func straight(c []deck.Card) int {
	var present [13]bool
	for _, card := range c {
		present[card.Rank()] = true
	}
	// Only the three highest ranks can top a straight in 7 cards.
	for _, hi := range []uint8{rank(c, 6), rank(c, 5), rank(c, 4)} {
		if hi >= 4 && present[hi-1] && present[hi-2] && present[hi-3] && present[hi-4] {
			return value(StraightOffset, 0, 0, 0, 0, hi)
		}
	}
	// The wheel A-2-3-4-5 ranks below 2-3-4-5-6.
	if present[3] && present[2] && present[1] && present[0] && present[12] {
		return value(StraightOffset, 0, 0, 0, 0, 3)
	}
	return 0
}

func flush(c []deck.Card) int {
	var counts [4]int
	for _, card := range c {
		counts[card.Suit()]++
	}
	suit := -1
	for s, n := range counts {
		if n >= 5 {
			suit = s
		}
	}
	if suit < 0 {
		return 0
	}

	// Top five ranks of the flush suit, descending.
	var top [5]uint8
	n := 0
	for i := 6; i >= 0 && n < 5; i-- {
		if int(c[i].Suit()) == suit {
			top[n] = rank(c, i)
			n++
		}
	}
	return value(FlushOffset, top[0], top[1], top[2], top[3], top[4])
}

func fullHouse(c []deck.Card) int {
	threeAt, pairAt := -1, -1
	for i := 6; i > 0; {
		switch {
		case i > 1 && threeAt < 0 && rank(c, i) == rank(c, i-1) && rank(c, i) == rank(c, i-2):
			threeAt = i
			i -= 2
		case pairAt < 0 && rank(c, i) == rank(c, i-1) && (threeAt < 0 || rank(c, i) != rank(c, threeAt)):
			pairAt = i
			i--
		}
		if i != 0 {
			i--
		}
	}
	if threeAt < 0 || pairAt < 0 {
		return 0
	}
	return value(FullHouseOffset, 0, 0, 0, rank(c, threeAt), rank(c, pairAt))
}

func fourOfAKind(c []deck.Card) int {
	for i := 6; i >= 3; i-- {
		if rank(c, i) != rank(c, i-1) || rank(c, i) != rank(c, i-2) || rank(c, i) != rank(c, i-3) {
			continue
		}
		kicker := rank(c, 6)
		if i == 6 {
			kicker = rank(c, 2)
		}
		return value(FourOffset, 0, 0, 0, rank(c, i), kicker)
	}
	return 0
}

// straightFlush uses the robust per-suit formulation: there is a straight
// flush iff some suit holds five consecutive ranks (or the suited wheel),
// regardless of how equal-ranked off-suit cards interleave in the sort.
func straightFlush(c []deck.Card) int {
	var present [4][13]bool
	var counts [4]int
	for _, card := range c {
		present[card.Suit()][card.Rank()] = true
		counts[card.Suit()]++
	}

	for s := 0; s < 4; s++ {
		if counts[s] < 5 {
			continue
		}
		ranks := &present[s]
		for hi := 12; hi >= 4; hi-- {
			if ranks[hi] && ranks[hi-1] && ranks[hi-2] && ranks[hi-3] && ranks[hi-4] {
				return value(StraightFlushOffset, 0, 0, 0, 0, uint8(hi))
			}
		}
		if ranks[3] && ranks[2] && ranks[1] && ranks[0] && ranks[12] {
			return value(StraightFlushOffset, 0, 0, 0, 0, 3)
		}
	}
	return 0
}

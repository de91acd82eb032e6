package deck

import rand "math/rand/v2"

// Deck is an ordered stack of playing cards, dealt from the tail.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 52-card deck, shuffled with the provided RNG.
// The RNG stays with the deck so Reset reshuffles reproducibly.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	d.Reset()
	return d
}

// Reset restores all 52 cards and shuffles.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	for v := 0; v < 52; v++ {
		d.cards = append(d.cards, Card(v))
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Pop deals the top card. With at most six seats the 52 cards always
// suffice for a hand, so an empty deck is a caller bug.
func (d *Deck) Pop() Card {
	if len(d.cards) == 0 {
		panic("deck: pop from empty deck")
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// Card is a single playing card, encoded as a value in [0, 52).
// The suit is value/13 and the rank value%13, with rank 0 the deuce and
// rank 12 the ace. The encoding is shared with the wire protocol, where
// cards travel as bare numbers.
type Card uint8

// NewCard builds a card from a suit in [0, 4) and a rank in [0, 13).
func NewCard(suit, rank uint8) Card {
	return Card(suit*13 + rank)
}

// Suit returns the card's suit in [0, 4).
func (c Card) Suit() uint8 { return uint8(c) / 13 }

// Rank returns the card's rank in [0, 13).
func (c Card) Rank() uint8 { return uint8(c) % 13 }

const suitLetters = "ABCD"

var (
	suitGlyphs = [4]string{"♣", "♦", "♥", "♠"}
	rankNames  = [13]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}
)

// String renders the card for display, e.g. "A♠" or "10♦".
func (c Card) String() string {
	return rankNames[c.Rank()] + suitGlyphs[c.Suit()]
}

// MarshalJSON writes the card as its bare numeric value. Without this,
// encoding/json would render []Card as a base64 string, since the
// underlying type is uint8; clients expect plain number arrays.
func (c Card) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(c), 10), nil
}

// UnmarshalJSON reads the bare numeric form.
func (c *Card) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseUint(string(data), 10, 8)
	if err != nil {
		return fmt.Errorf("card value %q: %w", data, err)
	}
	*c = Card(v)
	return nil
}

// Token returns the compact two-character form, e.g. "D9" or "CA": a suit
// letter A-D followed by the rank as a base-13 digit.
func (c Card) Token() string {
	return string(suitLetters[c.Suit()]) + strings.ToUpper(strconv.FormatUint(uint64(c.Rank()), 13))
}

// ParseCard parses the two-character token form produced by Token.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("card token %q: want 2 characters, got %d", s, len(s))
	}
	suit := strings.IndexByte(suitLetters, s[0])
	if suit < 0 {
		return 0, fmt.Errorf("card token %q: no such suit %q", s, s[0])
	}
	rank, err := strconv.ParseUint(s[1:2], 13, 8)
	if err != nil {
		return 0, fmt.Errorf("card token %q: bad rank digit: %w", s, err)
	}
	return NewCard(uint8(suit), uint8(rank)), nil
}

// ParseCards parses a whitespace-separated list of card tokens, e.g.
// "A0 B1 C3 D6 A7 B9 CA".
func ParseCards(s string) ([]Card, error) {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests).
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards %q: %v", s, err))
	}
	return cards
}

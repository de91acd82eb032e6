package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/holdemd/internal/randutil"
)

func TestDeckContainsEveryCardOnce(t *testing.T) {
	d := New(randutil.New(1))
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool)
	for d.Remaining() > 0 {
		c := d.Pop()
		assert.Less(t, uint8(c), uint8(52))
		assert.False(t, seen[c], "card %v dealt twice", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestDeckResetRestoresAll52(t *testing.T) {
	d := New(randutil.New(2))
	for i := 0; i < 20; i++ {
		d.Pop()
	}
	d.Reset()
	assert.Equal(t, 52, d.Remaining())
}

func TestDeckShuffleIsSeedDeterministic(t *testing.T) {
	a := New(randutil.New(42))
	b := New(randutil.New(42))
	for a.Remaining() > 0 {
		assert.Equal(t, a.Pop(), b.Pop())
	}
}

func TestDeckPopEmptyPanics(t *testing.T) {
	d := New(randutil.New(3))
	for d.Remaining() > 0 {
		d.Pop()
	}
	assert.Panics(t, func() { d.Pop() })
}

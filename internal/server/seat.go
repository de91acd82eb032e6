package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cardtable/holdemd/internal/deck"
	"github.com/cardtable/holdemd/internal/protocol"
)

// readTimeout is the per-read liveness budget on a seat socket. It is
// deliberately enormous; clients that care can send heartbeats to reset it.
const readTimeout = 3000 * time.Second

// Inbound tags a decoded client message with the seat that sent it. All
// seat readers fan in to one Inbound channel consumed by the game loop.
type Inbound struct {
	Seat int
	Msg  protocol.Message
}

// Seat is one table position: the client socket plus all per-player game
// state. The reader goroutine owns the socket's read side and the connected
// flag; every other field belongs to whichever loop currently drives the
// game (lobby first, then the hand driver) and is never touched
// concurrently.
type Seat struct {
	ID          int
	DisplayName string
	Ready       bool

	Chips      uint64
	CurrentBet uint64
	HoleCards  []deck.Card
	HasFolded  bool
	IsOut      bool

	// RevealedValue holds the evaluated hand value while this seat's hole
	// cards are face up during showdown rendering, and nil otherwise.
	RevealedValue *int

	conn      net.Conn
	connected atomic.Bool
	logger    *log.Logger
}

// NewSeat wraps an accepted connection. Call StartReader once the seat is
// registered with the message consumer.
func NewSeat(id int, conn net.Conn, logger *log.Logger) *Seat {
	s := &Seat{
		ID:     id,
		conn:   conn,
		logger: logger.WithPrefix("seat").With("seat", id),
	}
	s.connected.Store(true)
	return s
}

// StartReader launches the reader goroutine. Decoded messages are forwarded
// to inbox tagged with the seat id; a synthetic ConnectionEnded is posted
// when the reader dies.
func (s *Seat) StartReader(ctx context.Context, inbox chan<- Inbound) {
	go s.readLoop(ctx, inbox)
}

// Connected reports whether the client socket is still usable.
func (s *Seat) Connected() bool {
	return s.connected.Load()
}

// Write frames and sends a message. Write failures mark the seat
// disconnected and drop the message; there are no retries.
func (s *Seat) Write(m protocol.Message) {
	if !s.Connected() {
		return
	}
	if err := protocol.WriteMessage(s.conn, m); err != nil {
		s.logger.Warn("write failed, dropping connection", "error", err)
		s.shutdown()
	}
}

// shutdown closes the socket exactly once, guarded by the connected flag.
func (s *Seat) shutdown() {
	if s.connected.CompareAndSwap(true, false) {
		_ = s.conn.Close()
	}
}

// readLoop reads frames until the socket dies, forwarding everything but
// heartbeats to the shared inbox.
func (s *Seat) readLoop(ctx context.Context, inbox chan<- Inbound) {
	defer func() {
		s.shutdown()
		select {
		case inbox <- Inbound{Seat: s.ID, Msg: &protocol.ConnectionEnded{}}:
		case <-ctx.Done():
		}
	}()

	r := bufio.NewReader(s.conn)
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		msg, err := protocol.ReadMessage(r)
		if err != nil {
			s.logger.Debug("reader stopping", "error", err)
			return
		}
		if _, ok := msg.(*protocol.Heartbeat); ok {
			continue
		}
		select {
		case inbox <- Inbound{Seat: s.ID, Msg: msg}:
		case <-ctx.Done():
			return
		}
	}
}

// DeductToBet moves exactly amount from the stack into the seat's current
// bet, first rolling any already-posted bet back into the stack. Betting
// beyond the stack is a caller bug; the betting clamp prevents it.
func (s *Seat) DeductToBet(amount uint64) {
	s.Chips += s.CurrentBet
	if amount > s.Chips {
		panic(fmt.Sprintf("seat %d: bet %d exceeds stack %d", s.ID, amount, s.Chips))
	}
	s.Chips -= amount
	s.CurrentBet = amount
}

// TakeBet collects up to cap from the seat's current bet and returns it.
// Whatever exceeds cap goes back to the stack; the bet always ends at zero.
// This is both how a winner gathers the pot (cap = the winner's own matched
// bet) and how over-bettors get refunded.
func (s *Seat) TakeBet(cap uint64) uint64 {
	taken := min(s.CurrentBet, cap)
	s.CurrentBet -= taken
	s.Chips += s.CurrentBet
	s.CurrentBet = 0
	return taken
}

// AddChips credits winnings to the stack.
func (s *Seat) AddChips(n uint64) {
	s.Chips += n
}

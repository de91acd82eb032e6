package server

import (
	"context"
	"fmt"
	"net"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cardtable/holdemd/internal/deck"
	"github.com/cardtable/holdemd/internal/protocol"
)

// maxSeats is the table capacity. Connections beyond it are left in the
// accept queue; the listener stays open but Accept is no longer called.
const maxSeats = 6

// Lobby owns the listener and gathers seats until the game can start:
// at least two seats, every one of them ready. Accept order is seat order.
type Lobby struct {
	cfg    Config
	logger *log.Logger
	inbox  chan Inbound
	joined chan *Seat

	ln    net.Listener
	seats []*Seat
}

// NewLobby creates a lobby; call Listen before Run.
func NewLobby(cfg Config, logger *log.Logger) *Lobby {
	return &Lobby{
		cfg:    cfg,
		logger: logger.WithPrefix("lobby"),
		inbox:  make(chan Inbound, 256),
		joined: make(chan *Seat, maxSeats),
	}
}

// Inbox returns the shared fan-in channel. The game driver keeps consuming
// from it after the lobby hands over.
func (l *Lobby) Inbox() <-chan Inbound {
	return l.inbox
}

// Listen binds the TCP listener. Split from Run so callers (and tests, via
// port 0) can learn the bound address before anyone connects.
func (l *Lobby) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", l.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.ln = ln
	l.logger.Info("listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listener address.
func (l *Lobby) Addr() net.Addr {
	return l.ln.Addr()
}

// Run accepts connections and consumes lobby messages until the start
// condition holds, then returns the seats in accept order. The listener is
// closed on the way out; nobody joins a game in progress.
func (l *Lobby) Run(ctx context.Context) ([]*Seat, error) {
	defer l.ln.Close()

	// Seat readers outlive the lobby; they keep feeding the inbox for the
	// whole game, so they get ctx rather than the group's context.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.acceptLoop(ctx)
		return nil
	})

	seats, err := l.waitReady(gctx)
	_ = l.ln.Close() // unblock Accept
	_ = g.Wait()
	return seats, err
}

func (l *Lobby) acceptLoop(ctx context.Context) {
	for id := 0; ; id++ {
		conn, err := l.ln.Accept()
		if err != nil {
			return // listener closed
		}

		l.logger.Info("player connected", "seat", id, "remote", conn.RemoteAddr().String())
		seat := NewSeat(id, conn, l.logger)
		l.joined <- seat
		seat.StartReader(ctx, l.inbox)

		// An immediate empty snapshot lets the client render the lobby.
		// The shipped client expects three placeholder middle cards and
		// vectors covering the seats assigned so far.
		seat.Write(&protocol.GameState{
			PersonalCards:       [2]deck.Card{0, 0},
			PersonalID:          id,
			MiddleCards:         []deck.Card{0, 0, 0},
			PlayerNames:         make([]string, id+1),
			PlayerCards:         make([]*[2]deck.Card, id+1),
			PlayerBettingAmount: make([]uint64, id+1),
			PlayerMoney:         make([]uint64, id+1),
			PlayerHasFolded:     make([]bool, id+1),
			PlayerIsOut:         make([]bool, id+1),
			HandWinner:          -1,
		})

		if id+1 == maxSeats {
			l.logger.Info("table full, no longer accepting")
			return
		}
	}
}

// waitReady consumes lobby-phase messages in arrival order until at least
// two seats exist and all of them have sent is_ready.
func (l *Lobby) waitReady(ctx context.Context) ([]*Seat, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case seat := <-l.joined:
			l.seats = append(l.seats, seat)
		case in := <-l.inbox:
			// A seat's first message can win the select race against its
			// own registration; catch up before deciding it is unknown.
			l.drainJoined()
			if in.Seat >= len(l.seats) {
				continue
			}
			switch msg := in.Msg.(type) {
			case *protocol.SetDisplayName:
				l.seats[in.Seat].DisplayName = msg.PlayerName
				l.logger.Info("display name set", "seat", in.Seat, "name", msg.PlayerName)
			case *protocol.IsReady:
				l.seats[in.Seat].Ready = true
				l.logger.Info("player ready", "seat", in.Seat)
				if l.allReady() {
					l.logger.Info("all players ready, starting game", "seats", len(l.seats))
					return l.seats, nil
				}
			default:
				// Disconnects and stray game messages are ignored here; a
				// dead seat simply never readies up.
			}
		}
	}
}

func (l *Lobby) drainJoined() {
	for {
		select {
		case seat := <-l.joined:
			l.seats = append(l.seats, seat)
		default:
			return
		}
	}
}

func (l *Lobby) allReady() bool {
	if len(l.seats) < 2 {
		return false
	}
	for _, s := range l.seats {
		if !s.Ready {
			return false
		}
	}
	return true
}

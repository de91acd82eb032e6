package server

import (
	"context"
	"math"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardtable/holdemd/internal/deck"
	"github.com/cardtable/holdemd/internal/evaluator"
	"github.com/cardtable/holdemd/internal/protocol"
)

// Game drives the authoritative table state through hands of eight rounds
// each. Even rounds are betting rounds, odd rounds equalize bets, and the
// board grows after rounds 1 (flop), 3 (turn) and 5 (river); round 7 ends
// in showdown, after which the dealer button moves and the cycle restarts.
//
// The driver is the only goroutine that mutates game state. It talks to
// clients solely through seat writers and the fan-in inbox.
type Game struct {
	cfg    Config
	logger *log.Logger
	clock  quartz.Clock
	rng    *rand.Rand

	seats []*Seat
	inbox <-chan Inbound

	stack       *deck.Deck
	community   []deck.Card
	roundNumber int

	// playersInHand lists seat ids eligible to act this hand, in acting
	// order: one seat clockwise from the dealer first, dealer last.
	playersInHand []int

	dealer     int
	smallBlind uint64
}

// NewGame takes over the seats a lobby gathered.
func NewGame(cfg Config, logger *log.Logger, clock quartz.Clock, rng *rand.Rand, seats []*Seat, inbox <-chan Inbound) *Game {
	return &Game{
		cfg:        cfg,
		logger:     logger.WithPrefix("game"),
		clock:      clock,
		rng:        rng,
		seats:      seats,
		inbox:      inbox,
		smallBlind: cfg.SmallBlind,
	}
}

// Run plays rounds until fewer than two seats are both connected and still
// holding chips, then broadcasts the winner (or null) to everyone.
func (g *Game) Run(ctx context.Context) error {
	for _, s := range g.seats {
		s.Chips = g.cfg.StartMoney
	}

	var winner *int
	for {
		w, over := g.gameWinner()
		if over {
			winner = w
			break
		}
		if err := g.playRound(ctx); err != nil {
			return err
		}
	}

	if winner != nil {
		g.logger.Info("game over", "winner", *winner)
	} else {
		g.logger.Info("game over with no winner")
	}
	for _, s := range g.seats {
		s.Write(&protocol.GameEnd{Winner: winner})
	}
	return nil
}

// gameWinner reports whether the game is over and who won. Qualified means
// connected and not out; zero qualified seats end the game with no winner.
func (g *Game) gameWinner() (*int, bool) {
	winner := -1
	for i, s := range g.seats {
		if s.IsOut || !s.Connected() {
			continue
		}
		if winner >= 0 {
			return nil, false
		}
		winner = i
	}
	if winner < 0 {
		return nil, true
	}
	return &winner, true
}

// playRound executes one of the eight rounds of a hand.
func (g *Game) playRound(ctx context.Context) error {
	g.recomputePlayersInHand()
	if g.roundNumber == 0 {
		g.beginHand()
	}
	g.broadcast(ctx)
	if err := g.mainPlay(ctx); err != nil {
		return err
	}
	return g.afterPlay(ctx)
}

// beginHand shuffles, deals two hole cards to every eligible seat and
// posts the blinds.
func (g *Game) beginHand() {
	g.community = g.community[:0]
	g.stack = deck.New(g.rng)

	for _, id := range g.playersInHand {
		s := g.seats[id]
		s.HoleCards = append(s.HoleCards[:0], g.stack.Pop(), g.stack.Pop())
	}

	// First seat after the dealer posts the small blind, the second the
	// big blind, both subject to the usual clamping.
	if len(g.playersInHand) > 0 {
		g.placeBet(g.seats[g.playersInHand[0]], g.smallBlind, g.smallBlind)
	}
	if len(g.playersInHand) > 1 {
		g.placeBet(g.seats[g.playersInHand[1]], 2*g.smallBlind, g.smallBlind)
	}
}

// mainPlay runs the decision loop of the current round.
func (g *Game) mainPlay(ctx context.Context) error {
	if len(g.playersInHand) <= 1 {
		g.logger.Debug("not enough players, skipping round", "round", g.roundNumber)
		return nil
	}

	betting := g.roundNumber%2 == 0
	for _, id := range g.playersInHand {
		s := g.seats[id]
		highest := g.highestBet()

		if !betting && s.CurrentBet == highest {
			g.broadcast(ctx)
			continue
		}

		msg, err := g.awaitResponse(ctx, s)
		if err != nil {
			return err
		}

		resp, ok := msg.(*protocol.Response)
		switch {
		case !ok:
			// Disconnects, timeouts and anything unexpected fold the seat,
			// keeping absent players out of subsequent rounds.
			s.HasFolded = true
		case betting && resp.Action == protocol.ActionRaiseTo:
			g.placeBet(s, resp.Amount, highest)
		case betting && resp.Action == protocol.ActionPass:
			g.placeBet(s, s.CurrentBet, highest)
		case !betting && (resp.Action == protocol.ActionRaiseTo || resp.Action == protocol.ActionPass):
			// Equalizing allows no raises; both choices mean "call up".
			g.placeBet(s, highest, highest)
		default:
			s.HasFolded = true
		}

		g.broadcast(ctx)
	}
	return nil
}

// placeBet clamps the requested total and moves the seat's chips. The bet
// is raised to the seat's current bet and the table's highest bet, rounded
// up to a small-blind multiple (down when rounding up would overflow; the
// stack cap below turns that case into an all-in), and finally capped at
// the seat's stack.
func (g *Game) placeBet(s *Seat, amount, highest uint64) {
	amount = max(amount, s.CurrentBet)
	amount = max(amount, highest)

	rem := amount % g.smallBlind
	if amount > g.smallBlind && math.MaxUint64-g.smallBlind < amount {
		amount -= rem
	} else if rem != 0 {
		amount += g.smallBlind - rem
	}

	amount = min(amount, s.Chips+s.CurrentBet)
	s.DeductToBet(amount)
}

// highestBet returns the largest current bet at the table.
func (g *Game) highestBet() uint64 {
	var highest uint64
	for _, s := range g.seats {
		highest = max(highest, s.CurrentBet)
	}
	return highest
}

// awaitResponse asks one seat for a decision and waits for it, bounded by
// the turn timeout. Messages from other seats are dropped: a client that
// acts out of turn loses that choice. A seat already disconnected at turn
// entry answers with an implicit all-in raise.
func (g *Game) awaitResponse(ctx context.Context, s *Seat) (protocol.Message, error) {
	s.Write(&protocol.AwaitingPlayer{})

	if !s.Connected() {
		return &protocol.Response{Action: protocol.ActionRaiseTo, Amount: math.MaxUint64}, nil
	}

	timer := g.clock.NewTimer(g.cfg.TurnTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			g.logger.Warn("turn timed out", "seat", s.ID)
			return &protocol.ConnectionEnded{}, nil
		case in := <-g.inbox:
			if in.Seat != s.ID {
				g.logger.Debug("dropping out-of-turn message", "seat", in.Seat, "awaiting", s.ID)
				continue
			}
			switch in.Msg.(type) {
			case *protocol.Response, *protocol.ConnectionEnded:
				return in.Msg, nil
			default:
				// Lobby-phase chatter after start; ignore.
			}
		}
	}
}

// afterPlay runs the end-of-round transitions: board reveals, showdown,
// early termination when at most one unfolded seat remains, dealer
// rotation and round advance.
func (g *Game) afterPlay(ctx context.Context) error {
	survivor, count := -1, 0
	for _, id := range g.playersInHand {
		if !g.seats[id].HasFolded {
			survivor = id
			count++
		}
	}

	if count <= 1 {
		g.logger.Info("hand ended early", "round", g.roundNumber, "survivor", survivor)
		g.earlyEnd(survivor)
		g.broadcastShowdown(ctx, survivor)
		g.eliminate()
		g.roundNumber = 0
		g.advanceDealer()
		for _, s := range g.seats {
			s.HoleCards = s.HoleCards[:0]
		}
		if err := g.sleep(ctx, g.cfg.EarlyEndPause); err != nil {
			return err
		}
		g.broadcast(ctx)
		return nil
	}

	switch g.roundNumber {
	case 1:
		g.community = append(g.community, g.stack.Pop(), g.stack.Pop(), g.stack.Pop())
	case 3, 5:
		g.community = append(g.community, g.stack.Pop())
	case 7:
		if err := g.showdown(ctx); err != nil {
			return err
		}
		for _, s := range g.seats {
			s.HoleCards = s.HoleCards[:0]
		}
		g.eliminate()
	}

	g.roundNumber++
	if g.roundNumber >= 8 {
		g.advanceDealer()
		g.roundNumber = 0
		for _, s := range g.seats {
			if !s.IsOut {
				s.HasFolded = false
			}
		}
	}
	g.broadcast(ctx)
	return nil
}

// earlyEnd settles a hand that died before showdown: the lone survivor
// collects everyone's bets up to its own, or everyone is refunded when
// nobody survived.
func (g *Game) earlyEnd(survivor int) {
	if survivor < 0 {
		for _, s := range g.seats {
			s.TakeBet(0)
		}
		return
	}
	var pot uint64
	matched := g.seats[survivor].CurrentBet
	for _, s := range g.seats {
		pot += s.TakeBet(matched)
	}
	g.seats[survivor].AddChips(pot)
}

// showdown evaluates every unfolded hand, reveals the contenders, and pays
// the strict maximum. A tie at the top pays nobody; all bets go back.
func (g *Game) showdown(ctx context.Context) error {
	winner, best, tied := -1, 0, false
	for _, id := range g.playersInHand {
		s := g.seats[id]
		if s.HasFolded {
			continue
		}

		cards := make([]deck.Card, 0, 7)
		cards = append(cards, s.HoleCards...)
		cards = append(cards, g.community...)
		v := evaluator.Evaluate(cards)

		// Only hands that tie or beat the running best are revealed; a
		// beaten player has no incentive to show.
		switch {
		case winner < 0:
			winner, best = id, v
			s.RevealedValue = &v
		case v == best:
			s.RevealedValue = &v
			tied = true
		case v > best:
			winner, best, tied = id, v, false
			s.RevealedValue = &v
		}
	}

	g.logger.Info("showdown", "winner", winner, "value", best, "tied", tied)
	g.broadcastShowdown(ctx, winner)
	if err := g.sleep(ctx, g.cfg.RevealPause); err != nil {
		return err
	}
	for _, s := range g.seats {
		s.RevealedValue = nil
	}

	if winner >= 0 && !tied {
		var pot uint64
		matched := g.seats[winner].CurrentBet
		for _, s := range g.seats {
			pot += s.TakeBet(matched)
		}
		g.seats[winner].AddChips(pot)
	} else {
		for _, s := range g.seats {
			s.TakeBet(0)
		}
	}
	g.broadcast(ctx)
	return nil
}

// eliminate marks busted and disconnected seats out and clears fold flags.
func (g *Game) eliminate() {
	for _, s := range g.seats {
		if s.Chips == 0 || !s.Connected() {
			s.IsOut = true
		}
		s.HasFolded = false
	}
}

// advanceDealer moves the button one live seat clockwise. Every pass
// through seat 0 doubles the small blind.
func (g *Game) advanceDealer() {
	for range g.seats {
		g.dealer = (g.dealer + 1) % len(g.seats)
		if g.dealer == 0 {
			g.smallBlind *= 2
		}
		if !g.seats[g.dealer].IsOut {
			break
		}
	}
}

// recomputePlayersInHand rebuilds the acting order: every seat neither out
// nor folded, starting one seat past the dealer so the dealer acts last.
func (g *Game) recomputePlayersInHand() {
	g.playersInHand = g.playersInHand[:0]
	cur := g.dealer
	for range g.seats {
		cur = (cur + 1) % len(g.seats)
		if !g.seats[cur].IsOut && !g.seats[cur].HasFolded {
			g.playersInHand = append(g.playersInHand, cur)
		}
	}
}

// broadcast pushes the current table snapshot to every seat.
func (g *Game) broadcast(ctx context.Context) {
	g.broadcastState(ctx, -1, false)
}

// broadcastShowdown pushes a snapshot flagged as showdown with the hand
// winner filled in (-1 for none).
func (g *Game) broadcastShowdown(ctx context.Context, winner int) {
	g.broadcastState(ctx, winner, true)
}

func (g *Game) broadcastState(ctx context.Context, winner int, showdown bool) {
	n := len(g.seats)
	names := make([]string, n)
	cards := make([]*[2]deck.Card, n)
	bets := make([]uint64, n)
	money := make([]uint64, n)
	folded := make([]bool, n)
	out := make([]bool, n)
	for i, s := range g.seats {
		names[i] = s.DisplayName
		if s.RevealedValue != nil && len(s.HoleCards) == 2 {
			cards[i] = &[2]deck.Card{s.HoleCards[0], s.HoleCards[1]}
		}
		bets[i] = s.CurrentBet
		money[i] = s.Chips
		folded[i] = s.HasFolded
		out[i] = s.IsOut
	}

	for _, s := range g.seats {
		personal := [2]deck.Card{0, 0}
		if len(s.HoleCards) == 2 {
			personal = [2]deck.Card{s.HoleCards[0], s.HoleCards[1]}
		}
		s.Write(&protocol.GameState{
			PersonalCards:       personal,
			PersonalID:          s.ID,
			MiddleCards:         append([]deck.Card(nil), g.community...),
			PlayerNames:         names,
			PlayerCards:         cards,
			PlayerBettingAmount: bets,
			PlayerMoney:         money,
			PlayerHasFolded:     folded,
			PlayerIsOut:         out,
			RoundNumber:         g.roundNumber,
			IsStarted:           true,
			HandWinner:          int8(winner),
			IsShowdown:          showdown,
		})
	}

	// Slow client readers overread when frames arrive back to back; pace
	// broadcasts slightly apart.
	_ = g.sleep(ctx, g.cfg.BroadcastPace)
}

// sleep waits on the injected clock so tests can run with zero pauses or a
// mock clock.
func (g *Game) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := g.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

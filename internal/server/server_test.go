package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/holdemd/internal/protocol"
	"github.com/cardtable/holdemd/internal/randutil"
)

type clientOutcome struct {
	seat   int
	winner *int
	err    error
}

// scriptedClient joins, readies up, then answers every turn with the given
// action until the game ends.
func scriptedClient(port int, name string, action protocol.Action) <-chan clientOutcome {
	result := make(chan clientOutcome, 1)
	go func() {
		fail := func(err error) { result <- clientOutcome{seat: -1, err: err} }

		conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			fail(err)
			return
		}
		defer conn.Close()

		if err := protocol.WriteMessage(conn, &protocol.SetDisplayName{PlayerName: name}); err != nil {
			fail(err)
			return
		}
		if err := protocol.WriteMessage(conn, &protocol.IsReady{}); err != nil {
			fail(err)
			return
		}

		seat := -1
		r := bufio.NewReader(conn)
		for {
			msg, err := protocol.ReadMessage(r)
			if err != nil {
				fail(err)
				return
			}
			switch m := msg.(type) {
			case *protocol.GameState:
				seat = m.PersonalID
			case *protocol.AwaitingPlayer:
				if err := protocol.WriteMessage(conn, &protocol.Response{Action: action}); err != nil {
					fail(err)
					return
				}
			case *protocol.GameEnd:
				result <- clientOutcome{seat: seat, winner: m.Winner}
				return
			}
		}
	}()
	return result
}

func TestFullGameOverTCP(t *testing.T) {
	cfg := quietConfig()
	cfg.Port = 0

	lobby := NewLobby(cfg, testLogger())
	require.NoError(t, lobby.Listen())
	port := lobby.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		seats, err := lobby.Run(ctx)
		if err != nil {
			serveErr <- err
			return
		}
		game := NewGame(cfg, testLogger(), quartz.NewReal(), randutil.New(99), seats, lobby.Inbox())
		serveErr <- game.Run(ctx)
	}()

	// One client always calls, the other always folds. The folder bleeds a
	// blind every hand and the escalating blinds finish it off, so the
	// caller must end up the winner.
	caller := scriptedClient(port, "caller", protocol.ActionPass)
	folder := scriptedClient(port, "folder", protocol.ActionFold)

	var callerSeat int
	select {
	case out := <-caller:
		require.NoError(t, out.err, "caller")
		require.NotNil(t, out.winner, "caller saw no winner")
		callerSeat = out.seat
		assert.Equal(t, callerSeat, *out.winner)
	case <-ctx.Done():
		t.Fatal("caller: game never ended")
	}

	select {
	case out := <-folder:
		require.NoError(t, out.err, "folder")
		require.NotNil(t, out.winner, "folder saw no winner")
		assert.Equal(t, callerSeat, *out.winner)
		assert.NotEqual(t, callerSeat, out.seat)
	case <-ctx.Done():
		t.Fatal("folder: game never ended")
	}

	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("server never returned")
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SmallBlind = 0
	err := Serve(context.Background(), cfg, testLogger(), quartz.NewReal(), randutil.New(1))
	assert.Error(t, err)
}

package protocol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/mocks"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/auth"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/connections"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/game"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/lease"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/matchmaking"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/rules"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage/memory"
	"github.com/IsbatBInHossain/chess-game-server/internal/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	storage     *memory.Storage
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	auth        *auth.Service
	conns       *connections.Registry
	matchmaking *matchmaking.Service
	dispatcher  *Dispatcher
	ctx         context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.storage = memory.New(s.clock)
	logger := testutil.NopLogger()

	authCfg := auth.DefaultConfig()
	authCfg.Secret = "test-secret"
	authService, err := auth.New(s.storage, s.clock, authCfg, logger)
	s.Require().NoError(err)
	s.auth = authService

	leases := lease.NewManager(s.storage, s.random, lease.DefaultConfig(), logger)
	s.conns = connections.NewRegistry(logger)
	s.matchmaking = matchmaking.New(s.storage, s.storage, leases, s.conns, s.clock, s.random, matchmaking.DefaultConfig(), logger)
	controller := game.NewController(s.storage, s.storage, leases, s.conns, rules.New(), s.clock, logger)
	s.dispatcher = NewDispatcher(s.auth, s.conns, s.matchmaking, controller, logger)
	s.ctx = context.Background()
}

type client struct {
	conn    *Conn
	channel *testutil.RecordingChannel
	id      model.PrincipalID
}

func (s *DispatcherSuite) newClient() *client {
	ch := testutil.NewRecordingChannel()
	return &client{conn: NewConn(ch), channel: ch}
}

func (s *DispatcherSuite) send(c *client, frame string) error {
	return s.dispatcher.Handle(s.ctx, c.conn, []byte(frame))
}

func (s *DispatcherSuite) guestClient() *client {
	grant, err := s.auth.CreateGuest(s.ctx)
	s.Require().NoError(err)
	c := s.newClient()
	s.Require().NoError(s.send(c, `{"type":"auth","token":"`+grant.Token+`"}`))
	c.id = grant.Principal.ID
	c.channel.Reset()
	return c
}

func (s *DispatcherSuite) requireClose(err error) {
	var closeErr *CloseError
	s.Require().True(errors.As(err, &closeErr), "expected close, got %v", err)
	s.Equal(websocket.ClosePolicyViolation, closeErr.Code)
}

// Authentication

func (s *DispatcherSuite) TestAuthBindsConnection() {
	grant, err := s.auth.CreateGuest(s.ctx)
	s.Require().NoError(err)
	c := s.newClient()

	s.Require().NoError(s.send(c, `{"type":"auth","token":"`+grant.Token+`"}`))

	s.Equal([]string{"auth_success"}, c.channel.Types())
	success := c.channel.Last().(model.AuthSuccessEvent)
	s.Equal(grant.Principal.ID, success.PrincipalID)
	s.Equal(model.TierGuest, success.Tier)

	bound, ok := s.conns.Lookup(grant.Principal.ID)
	s.Require().True(ok)
	s.Same(c.channel, bound)
}

func (s *DispatcherSuite) TestAuthWithoutTokenCloses() {
	s.requireClose(s.send(s.newClient(), `{"type":"auth"}`))
}

func (s *DispatcherSuite) TestAuthWithBadTokenCloses() {
	c := s.newClient()
	s.requireClose(s.send(c, `{"type":"auth","token":"forged"}`))
	s.Nil(c.conn.Principal())
	s.Equal(0, s.conns.Count())
}

func (s *DispatcherSuite) TestMessagesBeforeAuthClose() {
	for _, frame := range []string{
		`{"type":"find_match"}`,
		`{"type":"move","sessionId":"1","move":{"from":"e2","to":"e4"}}`,
		`{"type":"resign","sessionId":"1"}`,
		`garbage`,
	} {
		s.requireClose(s.send(s.newClient(), frame))
	}
}

// Authenticated errors

func (s *DispatcherSuite) TestUnknownTypeRepliesError() {
	c := s.guestClient()

	s.Require().NoError(s.send(c, `{"type":"castle"}`))
	s.Equal([]string{"error"}, c.channel.Types())
	s.Equal("Unknown message type.", c.channel.Last().(model.ErrorEvent).Message)
}

func (s *DispatcherSuite) TestMalformedMessageRepliesError() {
	c := s.guestClient()

	s.Require().NoError(s.send(c, `{"type":"move","move":7}`))
	s.Equal([]string{"error"}, c.channel.Types())
}

// Matchmaking

func (s *DispatcherSuite) TestFindMatchPairsTwoClients() {
	a := s.guestClient()
	b := s.guestClient()

	s.Require().NoError(s.send(a, `{"type":"find_match"}`))
	s.Empty(a.channel.Messages())
	s.Require().NoError(s.send(b, `{"type":"find_match"}`))

	aStart := a.channel.Last().(model.GameStartEvent)
	bStart := b.channel.Last().(model.GameStartEvent)
	s.Equal(aStart.SessionID, bStart.SessionID)
	s.NotEqual(aStart.Side, bStart.Side)
}

func (s *DispatcherSuite) TestDisconnectRemovesFromQueue() {
	a := s.guestClient()
	s.Require().NoError(s.send(a, `{"type":"find_match"}`))

	s.dispatcher.Disconnect(s.ctx, a.conn)

	n, err := s.matchmaking.QueueLength(s.ctx, model.TierGuest)
	s.Require().NoError(err)
	s.Equal(int64(0), n)
	_, ok := s.conns.Lookup(a.id)
	s.False(ok)
}

func (s *DispatcherSuite) TestSupersededDisconnectKeepsNewConnection() {
	grant, err := s.auth.CreateGuest(s.ctx)
	s.Require().NoError(err)
	frame := `{"type":"auth","token":"` + grant.Token + `"}`

	old := s.newClient()
	s.Require().NoError(s.send(old, frame))
	fresh := s.newClient()
	s.Require().NoError(s.send(fresh, frame))
	s.Require().NoError(s.send(fresh, `{"type":"find_match"}`))

	s.dispatcher.Disconnect(s.ctx, old.conn)

	bound, ok := s.conns.Lookup(grant.Principal.ID)
	s.Require().True(ok)
	s.Same(fresh.channel, bound)
	n, _ := s.matchmaking.QueueLength(s.ctx, model.TierGuest)
	s.Equal(int64(1), n)
}

func (s *DispatcherSuite) TestDisconnectBeforeAuthIsNoop() {
	s.NotPanics(func() { s.dispatcher.Disconnect(s.ctx, s.newClient().conn) })
}

// Session messages

func (s *DispatcherSuite) startMatch() (white, black *client, id model.SessionID) {
	s.random.QueueIntn(0)
	a := s.guestClient()
	b := s.guestClient()
	s.Require().NoError(s.send(a, `{"type":"find_match"}`))
	s.Require().NoError(s.send(b, `{"type":"find_match"}`))
	start := a.channel.Last().(model.GameStartEvent)
	a.channel.Reset()
	b.channel.Reset()
	if start.Side == model.SideWhite {
		return a, b, start.SessionID
	}
	return b, a, start.SessionID
}

func (s *DispatcherSuite) TestMoveAndResignFlow() {
	white, black, id := s.startMatch()

	s.Require().NoError(s.send(white, `{"type":"move","sessionId":"`+string(id)+`","move":{"from":"e2","to":"e4"}}`))
	s.Equal([]string{"move_made"}, white.channel.Types())
	s.Equal([]string{"move_made"}, black.channel.Types())

	s.Require().NoError(s.send(black, `{"type":"resign","sessionId":"`+string(id)+`"}`))
	over := white.channel.Last().(model.GameOverEvent)
	s.Equal(model.ReasonResignation, over.Reason)
	s.Equal(model.WinnerWhite, over.Winner)
}

func (s *DispatcherSuite) TestIllegalMoveGetsNoReply() {
	white, black, id := s.startMatch()

	s.Require().NoError(s.send(white, `{"type":"move","sessionId":"`+string(id)+`","move":{"from":"e2","to":"e5"}}`))
	s.Empty(white.channel.Messages())
	s.Empty(black.channel.Messages())
}

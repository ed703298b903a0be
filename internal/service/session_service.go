package service

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ParikTV/balanza-server/internal/cache"
	"github.com/ParikTV/balanza-server/internal/game"
	"github.com/ParikTV/balanza-server/internal/model"
	"github.com/ParikTV/balanza-server/internal/repository"
)

const persistTimeout = 5 * time.Second

// actorEvictGrace is how long a finished session's actor stays addressable
// so late clients can still fetch the final view before it is retired.
const actorEvictGrace = time.Minute

// SessionService orchestrates every game session. The in-memory game state
// behind each actor is the source of truth for all rule decisions; MongoDB
// holds a durable mirror written off the critical path.
type SessionService struct {
	sessions    repository.SessionRepo
	players     repository.PlayerRepo
	cache       cache.SessionCache
	auth        *AuthService
	broadcaster Broadcaster
	logger      zerolog.Logger
	evictAfter  time.Duration

	mu     sync.RWMutex
	byID   map[string]*sessionActor
	byCode map[string]*sessionActor
}

// sessionActor serializes all actions for one session: a single goroutine
// drains the command queue, so turn validation and mutation are atomic with
// respect to each other.
type sessionActor struct {
	game     *game.Game
	cmds     chan func()
	quit     chan struct{}
	stopOnce sync.Once
}

func newSessionActor(g *game.Game) *sessionActor {
	a := &sessionActor{
		game: g,
		cmds: make(chan func(), 16),
		quit: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *sessionActor) run() {
	for {
		select {
		case fn := <-a.cmds:
			fn()
		case <-a.quit:
			return
		}
	}
}

// do runs fn on the actor goroutine and waits for it to finish. Reports
// false without running fn when the actor has already been retired.
func (a *sessionActor) do(fn func(g *game.Game)) bool {
	done := make(chan struct{})
	select {
	case a.cmds <- func() {
		fn(a.game)
		close(done)
	}:
	case <-a.quit:
		return false
	}

	select {
	case <-done:
		return true
	case <-a.quit:
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

// stop retires the actor goroutine. Safe to call more than once.
func (a *sessionActor) stop() {
	a.stopOnce.Do(func() { close(a.quit) })
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions repository.SessionRepo,
	players repository.PlayerRepo,
	sessionCache cache.SessionCache,
	auth *AuthService,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:   sessions,
		players:    players,
		cache:      sessionCache,
		auth:       auth,
		logger:     logger,
		evictAfter: actorEvictGrace,
		byID:       make(map[string]*sessionActor),
		byCode:     make(map[string]*sessionActor),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create opens a new session with the caller as host at turn order 1.
func (s *SessionService) Create(ctx context.Context, hostName string) (*model.CreateSessionResponse, error) {
	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	// The weight table must not be guessable from the creation time.
	var seed [8]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		s.logger.Error().Err(err).Msg("failed to read random bytes")
		s.releaseCode(code)
		return nil, game.ErrInternal
	}
	rng := rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
	g := game.New(uuid.NewString(), code, rng)
	host, err := g.AddPlayer(hostName)
	if err != nil {
		s.releaseCode(code)
		return nil, err
	}

	token, err := s.auth.GeneratePlayerToken(g.Session.ID, code, host.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to sign player token")
		s.releaseCode(code)
		return nil, game.ErrInternal
	}

	// Durable records are part of the create contract.
	if err := s.sessions.Create(ctx, g.Session); err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to persist session")
		s.releaseCode(code)
		return nil, game.ErrInternal
	}
	if err := s.players.Create(ctx, host); err != nil {
		s.logger.Error().Err(err).Str("player", host.ID).Msg("failed to persist host")
		s.releaseCode(code)
		return nil, game.ErrInternal
	}

	a := newSessionActor(g)
	s.mu.Lock()
	s.byID[g.Session.ID] = a
	s.byCode[code] = a
	s.mu.Unlock()

	s.logger.Info().Str("code", code).Str("host", host.Name).Msg("session created")

	return &model.CreateSessionResponse{
		SessionID: g.Session.ID,
		Code:      code,
		PlayerID:  host.ID,
		Token:     token,
	}, nil
}

// Join admits a player into a waiting session by its code.
func (s *SessionService) Join(ctx context.Context, code, name string) (*model.JoinResponse, error) {
	a := s.actorByCode(code)
	if a == nil {
		return nil, game.ErrSessionNotFound
	}

	var (
		player    *model.Player
		sessionID string
		joinErr   error
	)
	if !a.do(func(g *game.Game) {
		sessionID = g.Session.ID
		player, joinErr = g.AddPlayer(name)
		if joinErr != nil {
			return
		}
		s.mirror(g, player)
		s.broadcastRoster(g)
	}) {
		return nil, game.ErrSessionNotFound
	}
	if joinErr != nil {
		return nil, joinErr
	}

	token, err := s.auth.GeneratePlayerToken(sessionID, code, player.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to sign player token")
		return nil, game.ErrInternal
	}

	s.logger.Info().Str("code", code).Str("player", player.Name).Msg("player joined")

	return &model.JoinResponse{
		SessionID: sessionID,
		PlayerID:  player.ID,
		Token:     token,
	}, nil
}

// Start begins the game. Only the host's player id passes the authority
// check inside the state machine.
func (s *SessionService) Start(ctx context.Context, sessionID, callerID string) error {
	a := s.actorByID(sessionID)
	if a == nil {
		return game.ErrSessionNotFound
	}

	var startErr error
	if !a.do(func(g *game.Game) {
		if startErr = g.Start(callerID); startErr != nil {
			return
		}
		s.mirror(g, g.Roster()...)
		s.broadcastState(g)
	}) {
		return game.ErrSessionNotFound
	}
	if startErr == nil {
		s.logger.Info().Str("session", sessionID).Msg("session started")
	}
	return startErr
}

// PlaceTokens applies a placement action for the acting player.
func (s *SessionService) PlaceTokens(ctx context.Context, sessionID, playerID string, placements []model.Placement) error {
	a := s.actorByID(sessionID)
	if a == nil {
		return game.ErrSessionNotFound
	}

	var (
		placeErr error
		code     string
		finished bool
	)
	if !a.do(func(g *game.Game) {
		if placeErr = g.PlaceTokens(playerID, placements); placeErr != nil {
			return
		}
		s.mirror(g, g.Players[playerID])
		s.afterAction(g)
		code = g.Session.Code
		finished = g.Session.Status.Terminal()
	}) {
		return game.ErrSessionNotFound
	}
	if placeErr == nil && finished {
		s.scheduleEvict(sessionID, code, a)
	}
	return placeErr
}

// GuessWeights resolves a full weight guess for the acting player.
func (s *SessionService) GuessWeights(ctx context.Context, sessionID, playerID string, guess map[model.Color]int) (bool, error) {
	a := s.actorByID(sessionID)
	if a == nil {
		return false, game.ErrSessionNotFound
	}

	var (
		correct  bool
		guessErr error
		code     string
		finished bool
	)
	if !a.do(func(g *game.Game) {
		if correct, guessErr = g.GuessWeights(playerID, guess); guessErr != nil {
			return
		}
		s.mirror(g)
		s.afterAction(g)
		code = g.Session.Code
		finished = g.Session.Status.Terminal()
	}) {
		return false, game.ErrSessionNotFound
	}
	if guessErr == nil {
		s.logger.Info().Str("session", sessionID).Str("player", playerID).Bool("correct", correct).Msg("guess resolved")
		if finished {
			s.scheduleEvict(sessionID, code, a)
		}
	}
	return correct, guessErr
}

// Disconnect detaches a player from the session. Idempotent; unknown ids
// and finished sessions are quietly ignored.
func (s *SessionService) Disconnect(sessionID, playerID string) {
	a := s.actorByID(sessionID)
	if a == nil {
		return
	}

	var (
		code     string
		finished bool
	)
	if !a.do(func(g *game.Game) {
		p, ok := g.Players[playerID]
		if !ok || !p.Connected {
			return
		}
		wasTerminal := g.Session.Status.Terminal()
		g.Disconnect(playerID)
		s.mirror(g, p)

		s.broadcast(g.Session.Code, MsgPlayerDisconnected, model.RosterEntry{
			PlayerID:   p.ID,
			Name:       p.Name,
			TurnOrder:  p.TurnOrder,
			Connected:  false,
			TokenCount: len(p.Inventory),
		})
		s.broadcastRoster(g)
		if g.Session.Status.Terminal() && !wasTerminal {
			s.broadcastOver(g)
			code = g.Session.Code
			finished = true
		} else if g.Session.Status == model.SessionPlaying {
			s.broadcastState(g)
		}
	}) {
		return
	}
	if finished {
		s.scheduleEvict(sessionID, code, a)
	}
	s.logger.Debug().Str("session", sessionID).Str("player", playerID).Msg("player disconnected")
}

// Connect marks a player as attached again and replays the current state to
// them, so a reconnecting client can resync.
func (s *SessionService) Connect(sessionID, playerID string) error {
	a := s.actorByID(sessionID)
	if a == nil {
		return game.ErrSessionNotFound
	}

	var connErr error
	if !a.do(func(g *game.Game) {
		if connErr = g.Reconnect(playerID); connErr != nil {
			return
		}
		s.mirror(g, g.Players[playerID])
		s.broadcastRoster(g)
		if g.Session.Status.Terminal() {
			s.send(g.Session.Code, playerID, MsgSessionOver, game.ProjectFinal(g, playerID))
		} else {
			s.send(g.Session.Code, playerID, MsgSessionState, game.Project(g, playerID))
		}
	}) {
		return game.ErrSessionNotFound
	}
	return connErr
}

// View returns the caller's projection of the session.
func (s *SessionService) View(sessionID, playerID string) (*model.PlayerView, error) {
	a := s.actorByID(sessionID)
	if a == nil {
		return nil, game.ErrSessionNotFound
	}

	var view model.PlayerView
	if !a.do(func(g *game.Game) {
		view = game.Project(g, playerID)
	}) {
		return nil, game.ErrSessionNotFound
	}
	return &view, nil
}

// scheduleEvict retires a finished session's actor after a grace period, so
// late clients can still fetch the final view first. The durable mirror in
// mongo outlives the actor, and the code's redis reservation expires on its
// own TTL.
func (s *SessionService) scheduleEvict(sessionID, code string, a *sessionActor) {
	time.AfterFunc(s.evictAfter, func() {
		s.mu.Lock()
		if s.byID[sessionID] == a {
			delete(s.byID, sessionID)
			delete(s.byCode, code)
		}
		s.mu.Unlock()
		a.stop()
		s.logger.Debug().Str("session", sessionID).Str("code", code).Msg("session actor retired")
	})
}

func (s *SessionService) actorByID(id string) *sessionActor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

func (s *SessionService) actorByCode(code string) *sessionActor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byCode[code]
}

func (s *SessionService) send(code, playerID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.SendToPlayer(code, playerID, msgType, payload)
	}
}

func (s *SessionService) broadcast(code, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(code, msgType, payload)
	}
}

// afterAction fans out the consequences of a successful turn action. Runs on
// the actor goroutine.
func (s *SessionService) afterAction(g *game.Game) {
	if g.Session.Status.Terminal() {
		s.broadcastOver(g)
		return
	}
	s.broadcastState(g)
}

// broadcastState sends each connected player their own projection.
func (s *SessionService) broadcastState(g *game.Game) {
	for _, p := range g.Roster() {
		if p.Connected {
			s.send(g.Session.Code, p.ID, MsgSessionState, game.Project(g, p.ID))
		}
	}
}

// broadcastOver sends the final view, weight table revealed, to everyone.
func (s *SessionService) broadcastOver(g *game.Game) {
	for _, p := range g.Roster() {
		if p.Connected {
			s.send(g.Session.Code, p.ID, MsgSessionOver, game.ProjectFinal(g, p.ID))
		}
	}
}

func (s *SessionService) broadcastRoster(g *game.Game) {
	roster := make([]model.RosterEntry, 0, len(g.Players))
	for _, p := range g.Roster() {
		roster = append(roster, model.RosterEntry{
			PlayerID:   p.ID,
			Name:       p.Name,
			TurnOrder:  p.TurnOrder,
			Connected:  p.Connected,
			TokenCount: len(p.Inventory),
		})
	}
	s.broadcast(g.Session.Code, MsgRosterUpdate, map[string]interface{}{"roster": roster})
}

// mirror snapshots the session plus any changed players under the actor and
// writes them to the durable store in the background. A mirror failure is
// logged, never surfaced: the in-memory state stays authoritative.
func (s *SessionService) mirror(g *game.Game, changed ...*model.Player) {
	snap := cloneSession(g.Session)
	playerSnaps := make([]*model.Player, 0, len(changed))
	for _, p := range changed {
		if p != nil {
			playerSnaps = append(playerSnaps, clonePlayer(p))
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := s.sessions.Update(ctx, snap); err != nil {
			s.logger.Error().Err(err).Str("session", snap.ID).Msg("failed to mirror session")
		}
		for _, p := range playerSnaps {
			if err := s.players.Update(ctx, p); err != nil {
				s.logger.Error().Err(err).Str("player", p.ID).Msg("failed to mirror player")
			}
		}
		if err := s.cache.SetStatus(ctx, snap.Code, snap.Status); err != nil {
			s.logger.Error().Err(err).Str("code", snap.Code).Msg("failed to refresh status cache")
		}
	}()
}

// generateCode creates a unique 6-digit session code, reserved in Redis so
// concurrent creates cannot collide.
func (s *SessionService) generateCode(ctx context.Context) (string, error) {
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := cryptorand.Read(b); err != nil {
			s.logger.Error().Err(err).Msg("failed to read random bytes")
			return "", game.ErrInternal
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = '0' + b[i]%10
		}
		codeStr := string(code)

		s.mu.RLock()
		_, live := s.byCode[codeStr]
		s.mu.RUnlock()
		if live {
			continue
		}

		ok, err := s.cache.ReserveCode(ctx, codeStr)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to reserve session code")
			return "", game.ErrInternal
		}
		if ok {
			return codeStr, nil
		}
	}

	s.logger.Error().Msg("exhausted attempts to generate a unique session code")
	return "", game.ErrInternal
}

func (s *SessionService) releaseCode(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to release session code")
	}
}

func cloneSession(sess *model.Session) *model.Session {
	cp := *sess
	cp.PlayerIDs = append([]string(nil), sess.PlayerIDs...)
	cp.MainPan = clonePan(sess.MainPan)
	cp.SecondaryPan = clonePan(sess.SecondaryPan)
	cp.Weights = make(model.WeightTable, len(sess.Weights))
	for color, w := range sess.Weights {
		cp.Weights[color] = w
	}
	if sess.LastGuess != nil {
		lg := *sess.LastGuess
		cp.LastGuess = &lg
	}
	return &cp
}

func clonePan(pan model.Pan) model.Pan {
	pan.Left = append([]model.Token(nil), pan.Left...)
	pan.Right = append([]model.Token(nil), pan.Right...)
	return pan
}

func clonePlayer(p *model.Player) *model.Player {
	cp := *p
	cp.Inventory = append([]model.Token(nil), p.Inventory...)
	return &cp
}

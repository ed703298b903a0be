package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ParikTV/balanza-server/internal/game"
	"github.com/ParikTV/balanza-server/internal/model"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id], nil
}

func (r *fakeSessionRepo) GetByCode(_ context.Context, code string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *model.Session) error {
	return r.Create(context.Background(), s)
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	players map[string]*model.Player
}

func (r *fakePlayerRepo) Create(_ context.Context, p *model.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = p
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id string) (*model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players[id], nil
}

func (r *fakePlayerRepo) Update(_ context.Context, p *model.Player) error {
	return r.Create(context.Background(), p)
}

func (r *fakePlayerRepo) ListBySession(_ context.Context, sessionID string) ([]*model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Player
	for _, p := range r.players {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu    sync.Mutex
	codes map[string]model.SessionStatus
}

func (c *fakeCache) ReserveCode(_ context.Context, code string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.codes[code]; ok {
		return false, nil
	}
	c.codes[code] = model.SessionWaiting
	return true, nil
}

func (c *fakeCache) Exists(_ context.Context, code string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.codes[code]
	return ok, nil
}

func (c *fakeCache) SetStatus(_ context.Context, code string, status model.SessionStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[code] = status
	return nil
}

func (c *fakeCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.codes, code)
	return nil
}

type sentMsg struct {
	Code     string
	PlayerID string // empty for session-wide broadcasts
	Type     string
	Payload  interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	msgs []sentMsg
}

func (b *fakeBroadcaster) SendToPlayer(code, playerID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, sentMsg{Code: code, PlayerID: playerID, Type: msgType, Payload: payload})
}

func (b *fakeBroadcaster) BroadcastToSession(code, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, sentMsg{Code: code, Type: msgType, Payload: payload})
}

func (b *fakeBroadcaster) count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func newTestService() (*SessionService, *fakeSessionRepo, *fakePlayerRepo, *fakeCache, *fakeBroadcaster) {
	sessions := &fakeSessionRepo{sessions: make(map[string]*model.Session)}
	players := &fakePlayerRepo{players: make(map[string]*model.Player)}
	codes := &fakeCache{codes: make(map[string]model.SessionStatus)}
	b := &fakeBroadcaster{}

	svc := NewSessionService(sessions, players, codes, NewAuthService("test-secret"), zerolog.Nop())
	svc.SetBroadcaster(b)
	return svc, sessions, players, codes, b
}

func TestCreateSession(t *testing.T) {
	svc, sessions, players, codes, _ := newTestService()

	resp, err := svc.Create(context.Background(), "Ava")
	if err != nil {
		t.Fatalf("create should succeed: %v", err)
	}
	if len(resp.Code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", resp.Code)
	}
	for _, r := range resp.Code {
		if r < '0' || r > '9' {
			t.Fatalf("code should be numeric, got %q", resp.Code)
		}
	}
	if resp.Token == "" || resp.PlayerID == "" || resp.SessionID == "" {
		t.Fatalf("incomplete create response: %+v", resp)
	}

	stored, _ := sessions.GetByID(context.Background(), resp.SessionID)
	if stored == nil || stored.Status != model.SessionWaiting {
		t.Fatalf("session should be persisted as waiting, got %+v", stored)
	}
	if host, _ := players.GetByID(context.Background(), resp.PlayerID); host == nil {
		t.Fatal("host player should be persisted")
	}
	if reserved, _ := codes.Exists(context.Background(), resp.Code); !reserved {
		t.Fatal("session code should be reserved")
	}
}

func TestCreateSessionNameRequired(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	if _, err := svc.Create(context.Background(), "  "); err != game.ErrNameRequired {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestJoinSession(t *testing.T) {
	svc, _, _, _, b := newTestService()

	created, err := svc.Create(context.Background(), "Ava")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Join(context.Background(), "000000", "Ben"); err != game.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound for a bogus code, got %v", err)
	}

	joined, err := svc.Join(context.Background(), created.Code, "Ben")
	if err != nil {
		t.Fatalf("join should succeed: %v", err)
	}
	if joined.SessionID != created.SessionID {
		t.Fatal("join should land in the created session")
	}
	if _, err := svc.Join(context.Background(), created.Code, "Ava"); err != game.ErrNameTaken {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}

	if b.count(MsgRosterUpdate) == 0 {
		t.Fatal("a join should broadcast a roster update")
	}
}

func TestStartAuthority(t *testing.T) {
	svc, _, _, _, b := newTestService()
	created, _ := svc.Create(context.Background(), "Ava")
	joined, _ := svc.Join(context.Background(), created.Code, "Ben")

	if err := svc.Start(context.Background(), created.SessionID, joined.PlayerID); err != game.ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := svc.Start(context.Background(), created.SessionID, created.PlayerID); err != nil {
		t.Fatalf("host start should succeed: %v", err)
	}
	if b.count(MsgSessionState) == 0 {
		t.Fatal("a start should broadcast per-player state")
	}
}

// secretWeights reaches into the actor; white-box on purpose, the service
// never exposes the table.
func secretWeights(svc *SessionService, sessionID string) model.WeightTable {
	a := svc.actorByID(sessionID)
	var table model.WeightTable
	a.do(func(g *game.Game) {
		table = make(model.WeightTable, len(g.Session.Weights))
		for color, w := range g.Session.Weights {
			table[color] = w
		}
	})
	return table
}

func pairOf(view *model.PlayerView, color model.Color) (string, string) {
	ids := make([]string, 0, 2)
	for _, tok := range view.Me.Inventory {
		if tok.Color == color {
			ids = append(ids, tok.InstanceID)
		}
	}
	return ids[0], ids[1]
}

func TestFullGameThroughService(t *testing.T) {
	svc, sessions, _, _, b := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Ava")
	joined, _ := svc.Join(ctx, created.Code, "Ben")
	if err := svc.Start(ctx, created.SessionID, created.PlayerID); err != nil {
		t.Fatal(err)
	}

	view, err := svc.View(created.SessionID, created.PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	if !view.MyTurn {
		t.Fatal("host opens the game")
	}

	// Ava levels the main pan with a same-color pair.
	a, bID := pairOf(view, model.ColorRed)
	err = svc.PlaceTokens(ctx, created.SessionID, created.PlayerID, []model.Placement{
		{InstanceID: a, Pan: model.PanMain, Side: model.SideLeft},
		{InstanceID: bID, Pan: model.PanMain, Side: model.SideRight},
	})
	if err != nil {
		t.Fatalf("placement should succeed: %v", err)
	}

	guess := map[model.Color]int{}
	for color, w := range secretWeights(svc, created.SessionID) {
		guess[color] = w
	}
	correct, err := svc.GuessWeights(ctx, created.SessionID, joined.PlayerID, guess)
	if err != nil {
		t.Fatalf("guess should resolve: %v", err)
	}
	if !correct {
		t.Fatal("exact guess should win")
	}

	if b.count(MsgSessionOver) == 0 {
		t.Fatal("winning should broadcast session_over")
	}

	// The durable mirror converges in the background.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, _ := sessions.GetByID(ctx, created.SessionID)
		if stored != nil && stored.Status == model.SessionFinishedSuccess {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("mirror never recorded the finished session, got %+v", stored)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestActionsRejectedThroughService(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Ava")
	joined, _ := svc.Join(ctx, created.Code, "Ben")
	if err := svc.Start(ctx, created.SessionID, created.PlayerID); err != nil {
		t.Fatal(err)
	}

	view, _ := svc.View(created.SessionID, joined.PlayerID)
	a, bID := pairOf(view, model.ColorBlue)
	err := svc.PlaceTokens(ctx, created.SessionID, joined.PlayerID, []model.Placement{
		{InstanceID: a, Pan: model.PanMain, Side: model.SideLeft},
		{InstanceID: bID, Pan: model.PanMain, Side: model.SideLeft},
	})
	if err != game.ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}

	if _, err := svc.GuessWeights(ctx, "missing", joined.PlayerID, nil); err != game.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDisconnectThroughService(t *testing.T) {
	svc, _, _, _, b := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Ava")
	joined, _ := svc.Join(ctx, created.Code, "Ben")
	if err := svc.Start(ctx, created.SessionID, created.PlayerID); err != nil {
		t.Fatal(err)
	}

	// Current player drops; the turn must move on.
	svc.Disconnect(created.SessionID, created.PlayerID)
	svc.Disconnect(created.SessionID, created.PlayerID) // idempotent

	view, err := svc.View(created.SessionID, joined.PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	if !view.MyTurn {
		t.Fatal("turn should pass to the remaining player")
	}
	if b.count(MsgPlayerDisconnected) != 1 {
		t.Fatalf("expected exactly one disconnect notice, got %d", b.count(MsgPlayerDisconnected))
	}

	// Last eligible player drops; the session fails.
	svc.Disconnect(created.SessionID, joined.PlayerID)
	view, _ = svc.View(created.SessionID, joined.PlayerID)
	if view.Status != model.SessionFinishedFailure {
		t.Fatalf("expected finished_failure, got %s", view.Status)
	}
}

func TestConnectResyncsPlayer(t *testing.T) {
	svc, _, _, _, b := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Ava")
	joined, _ := svc.Join(ctx, created.Code, "Ben")
	if err := svc.Start(ctx, created.SessionID, created.PlayerID); err != nil {
		t.Fatal(err)
	}

	svc.Disconnect(created.SessionID, joined.PlayerID)
	before := b.count(MsgSessionState)

	if err := svc.Connect(created.SessionID, joined.PlayerID); err != nil {
		t.Fatalf("reconnect should succeed: %v", err)
	}
	if b.count(MsgSessionState) <= before {
		t.Fatal("reconnecting player should receive a fresh state")
	}

	view, _ := svc.View(created.SessionID, joined.PlayerID)
	for _, entry := range view.Roster {
		if entry.PlayerID == joined.PlayerID && !entry.Connected {
			t.Fatal("reconnected player should show as connected")
		}
	}

	if err := svc.Connect(created.SessionID, "nobody"); err != game.ErrPlayerNotFound {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestFinishedSessionActorEvicted(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	svc.evictAfter = 10 * time.Millisecond
	ctx := context.Background()

	created, err := svc.Create(ctx, "Ava")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	joined, err := svc.Join(ctx, created.Code, "Ben")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Start(ctx, created.SessionID, created.PlayerID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Everyone leaving ends the session; the actor should retire after the
	// grace period instead of living for the process lifetime.
	svc.Disconnect(created.SessionID, created.PlayerID)
	svc.Disconnect(created.SessionID, joined.PlayerID)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.actorByID(created.SessionID) == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if svc.actorByID(created.SessionID) != nil {
		t.Fatal("finished session's actor still registered")
	}
	if svc.actorByCode(created.Code) != nil {
		t.Fatal("finished session's code still mapped to an actor")
	}
	if _, err := svc.View(created.SessionID, created.PlayerID); err != game.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after eviction, got %v", err)
	}
}

func TestViewAvailableDuringEvictionGrace(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	svc.evictAfter = time.Hour
	ctx := context.Background()

	created, err := svc.Create(ctx, "Ava")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	joined, err := svc.Join(ctx, created.Code, "Ben")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Start(ctx, created.SessionID, created.PlayerID); err != nil {
		t.Fatalf("start: %v", err)
	}
	svc.Disconnect(created.SessionID, created.PlayerID)
	svc.Disconnect(created.SessionID, joined.PlayerID)

	view, err := svc.View(created.SessionID, created.PlayerID)
	if err != nil {
		t.Fatalf("view during grace period: %v", err)
	}
	if view.Status != model.SessionFinishedFailure {
		t.Fatalf("expected finished_failure, got %s", view.Status)
	}
}

func tablesEqual(a, b model.WeightTable) bool {
	if len(a) != len(b) {
		return false
	}
	for color, w := range a {
		if b[color] != w {
			return false
		}
	}
	return true
}

func TestCreateDrawsIndependentWeightTables(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()

	tables := make([]model.WeightTable, 0, 3)
	for i := 0; i < 3; i++ {
		created, err := svc.Create(ctx, "Ava")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		tables = append(tables, secretWeights(svc, created.SessionID))
	}

	allSame := true
	for _, tb := range tables[1:] {
		if !tablesEqual(tables[0], tb) {
			allSame = false
		}
	}
	if allSame {
		t.Fatal("back-to-back sessions drew identical weight tables")
	}
}

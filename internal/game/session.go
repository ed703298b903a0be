package game

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ParikTV/balanza-server/internal/model"
)

// minPlayersToStart is the smallest active roster a session can start with.
const minPlayersToStart = 2

// Game is the authoritative in-memory state of one session: the session
// record plus every player record it owns. All mutation goes through the
// methods below, each of which validates every precondition before touching
// anything, so a rejected action never leaves a partial write behind.
type Game struct {
	Session *model.Session
	Players map[string]*model.Player
}

// New creates a session in the waiting state with its secret weight table
// fixed for life and the public hint derived from it.
func New(id, code string, rng *rand.Rand) *Game {
	weights := GenerateWeights(rng)
	return &Game{
		Session: &model.Session{
			ID:        id,
			Code:      code,
			Status:    model.SessionWaiting,
			Weights:   weights,
			Hint:      HintFor(weights),
			CreatedAt: time.Now(),
		},
		Players: make(map[string]*model.Player),
	}
}

// AddPlayer admits a new player while the session is still waiting. The
// first player added becomes the host. Every joiner mints their inventory
// from the already-fixed weight table, so all players face the same hidden
// truth.
func (g *Game) AddPlayer(name string) (*model.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if g.Session.Status != model.SessionWaiting {
		return nil, ErrSessionAlreadyStarted
	}
	for _, p := range g.Players {
		if strings.EqualFold(p.Name, name) {
			return nil, ErrNameTaken
		}
	}

	p := &model.Player{
		ID:        uuid.NewString(),
		SessionID: g.Session.ID,
		Code:      g.Session.Code,
		Name:      name,
		TurnOrder: len(g.Session.PlayerIDs) + 1,
		Inventory: MintInventory(g.Session.Weights),
		Connected: true,
		JoinedAt:  time.Now(),
	}
	RecomputeEligibility(p)

	g.Players[p.ID] = p
	g.Session.PlayerIDs = append(g.Session.PlayerIDs, p.ID)
	if p.TurnOrder == 1 {
		g.Session.HostID = p.ID
	}
	return p, nil
}

// Start moves the session from waiting to playing and hands the turn to the
// player at turn order 1. Only the host may start, and only with at least
// two active players on the roster.
func (g *Game) Start(callerID string) error {
	if g.Session.Status != model.SessionWaiting {
		return ErrAlreadyStarted
	}
	if callerID != g.Session.HostID {
		return ErrNotHost
	}
	active := 0
	for _, p := range g.Players {
		if p.Connected {
			active++
		}
	}
	if active < minPlayersToStart {
		return ErrNotEnoughPlayers
	}
	first := g.playerAtOrder(1)
	if first == nil {
		return ErrPlayerNotFound
	}

	now := time.Now()
	g.Session.Status = model.SessionPlaying
	g.Session.StartedAt = &now
	g.Session.TurnOrder = first.TurnOrder
	g.Session.CurrentPlayerID = first.ID
	return nil
}

// PlaceTokens applies one placement action for the acting player: tokens
// leave the inventory atomically and land on the requested pan sides in
// request order, then the turn rotates.
func (g *Game) PlaceTokens(playerID string, placements []model.Placement) error {
	if len(placements) < MinPlacement {
		return ErrTooFewTokens
	}
	for _, pl := range placements {
		if !pl.Pan.Valid() || !pl.Side.Valid() {
			return ErrInvalidPlacement
		}
	}
	if g.Session.Status != model.SessionPlaying {
		return ErrWrongPhase
	}
	p, ok := g.Players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if playerID != g.Session.CurrentPlayerID {
		return ErrNotYourTurn
	}
	if !p.Eligible {
		return ErrNotEligible
	}

	ids := make([]string, len(placements))
	for i, pl := range placements {
		ids[i] = pl.InstanceID
	}
	remaining, taken, err := TakeTokens(p.Inventory, ids)
	if err != nil {
		return err
	}

	// All preconditions hold; mutate.
	p.Inventory = remaining
	RecomputeEligibility(p)
	for i, pl := range placements {
		AddToSide(g.pan(pl.Pan), pl.Side, taken[i:i+1])
	}

	g.advanceTurn()
	return nil
}

// GuessWeights resolves a full five-color guess. The main pan must be
// balanced to even attempt one. Resolution is all-or-nothing: matching four
// of five colors is the same failure as matching none.
func (g *Game) GuessWeights(playerID string, guess map[model.Color]int) (bool, error) {
	if len(guess) != len(model.Colors) {
		return false, ErrInvalidGuess
	}
	for color, w := range guess {
		if !color.Valid() || w < model.MinWeight || w > model.MaxWeight {
			return false, ErrInvalidGuess
		}
	}
	if g.Session.Status != model.SessionPlaying {
		return false, ErrWrongPhase
	}
	if _, ok := g.Players[playerID]; !ok {
		return false, ErrPlayerNotFound
	}
	if playerID != g.Session.CurrentPlayerID {
		return false, ErrNotYourTurn
	}
	if !IsBalanced(&g.Session.MainPan) {
		return false, ErrPanNotBalanced
	}

	correct := true
	for color, w := range g.Session.Weights {
		if guess[color] != w {
			correct = false
			break
		}
	}

	g.Session.LastGuess = &model.GuessResult{
		PlayerID: playerID,
		Correct:  correct,
		At:       time.Now(),
	}
	if correct {
		g.Session.WinnerID = playerID
		g.finish(model.SessionFinishedSuccess)
		return true, nil
	}

	g.advanceTurn()
	return false, nil
}

// Disconnect marks the player as detached from the transport. Idempotent and
// never an error: unknown players are ignored. If the session is mid-game
// and it was that player's turn, the turn rotates immediately.
func (g *Game) Disconnect(playerID string) {
	p, ok := g.Players[playerID]
	if !ok {
		return
	}
	p.Connected = false
	RecomputeEligibility(p)

	if g.Session.Status == model.SessionPlaying && g.Session.CurrentPlayerID == playerID {
		g.advanceTurn()
	}
}

// Reconnect marks a returning player as attached again.
func (g *Game) Reconnect(playerID string) error {
	p, ok := g.Players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Connected = true
	RecomputeEligibility(p)
	return nil
}

// Roster returns the players in turn order.
func (g *Game) Roster() []*model.Player {
	roster := make([]*model.Player, 0, len(g.Players))
	for _, p := range g.Players {
		roster = append(roster, p)
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].TurnOrder < roster[j].TurnOrder
	})
	return roster
}

// advanceTurn hands the turn to the next eligible player, or ends the
// session when a full circular scan finds no one left who can act.
func (g *Game) advanceTurn() {
	next, ok := NextTurn(g.Roster(), g.Session.TurnOrder)
	if !ok {
		if g.Session.WinnerID != "" {
			g.finish(model.SessionFinishedSuccess)
		} else {
			g.finish(model.SessionFinishedFailure)
		}
		return
	}
	g.Session.TurnOrder = next.TurnOrder
	g.Session.CurrentPlayerID = next.ID
}

func (g *Game) finish(status model.SessionStatus) {
	now := time.Now()
	g.Session.Status = status
	g.Session.CurrentPlayerID = ""
	g.Session.EndedAt = &now
}

func (g *Game) pan(id model.PanID) *model.Pan {
	if id == model.PanSecondary {
		return &g.Session.SecondaryPan
	}
	return &g.Session.MainPan
}

func (g *Game) playerAtOrder(order int) *model.Player {
	for _, p := range g.Players {
		if p.TurnOrder == order {
			return p
		}
	}
	return nil
}

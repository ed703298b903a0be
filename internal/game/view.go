package game

import "github.com/ParikTV/balanza-server/internal/model"

// Project builds the view of the session that viewerID is authorized to
// see: public metadata, pans without weights, the viewer's own inventory,
// and a roster summary. It never exposes the secret weight table or another
// player's tokens.
func Project(g *Game, viewerID string) model.PlayerView {
	s := g.Session
	view := model.PlayerView{
		SessionID:       s.ID,
		Code:            s.Code,
		Status:          s.Status,
		Hint:            s.Hint,
		MainPan:         projectPan(&s.MainPan),
		SecondaryPan:    projectPan(&s.SecondaryPan),
		CurrentPlayerID: s.CurrentPlayerID,
		MyTurn:          viewerID != "" && viewerID == s.CurrentPlayerID,
	}

	if self, ok := g.Players[viewerID]; ok {
		view.Me = model.SelfView{
			PlayerID:  self.ID,
			Name:      self.Name,
			TurnOrder: self.TurnOrder,
			Inventory: append([]model.Token(nil), self.Inventory...),
			Eligible:  self.Eligible,
		}
	}

	for _, p := range g.Roster() {
		view.Roster = append(view.Roster, model.RosterEntry{
			PlayerID:   p.ID,
			Name:       p.Name,
			TurnOrder:  p.TurnOrder,
			Connected:  p.Connected,
			TokenCount: len(p.Inventory),
		})
	}

	if s.LastGuess != nil {
		gv := &model.GuessView{PlayerID: s.LastGuess.PlayerID, Correct: s.LastGuess.Correct}
		if p, ok := g.Players[s.LastGuess.PlayerID]; ok {
			gv.PlayerName = p.Name
		}
		view.LastGuess = gv
	}
	return view
}

// ProjectFinal is the session-over view: the normal projection plus the
// revealed weight table and the winner, if any.
func ProjectFinal(g *Game, viewerID string) model.FinalView {
	final := model.FinalView{
		PlayerView: Project(g, viewerID),
		Weights:    g.Session.Weights,
		WinnerID:   g.Session.WinnerID,
	}
	if winner, ok := g.Players[g.Session.WinnerID]; ok {
		final.WinnerName = winner.Name
	}
	return final
}

func projectPan(pan *model.Pan) model.PanView {
	return model.PanView{
		Left:     projectTokens(pan.Left),
		Right:    projectTokens(pan.Right),
		Tilt:     TiltOf(pan),
		Balanced: IsBalanced(pan),
	}
}

func projectTokens(tokens []model.Token) []model.PlacedToken {
	placed := make([]model.PlacedToken, len(tokens))
	for i, tok := range tokens {
		placed[i] = model.PlacedToken{InstanceID: tok.InstanceID, Color: tok.Color}
	}
	return placed
}

package game

import (
	"fmt"

	"schnicken/internal/domain"
)

// NextStep is the prompt shown to playerID for g. Empty when there is
// nothing left to do.
func NextStep(g *domain.Game, subs []domain.Submission, playerID string) string {
	if g.IsFinished() {
		return ""
	}
	if _, ok := g.RoleOf(playerID); !ok {
		return ""
	}

	if g.Status == domain.GameStatusOpen && g.Wager == nil {
		if playerID == g.AngeschnickterID {
			return "Wähle deinen Bock-Wert"
		}
		return "Warte auf den Bock-Wert"
	}

	round := g.ActiveRound()
	for _, s := range subs {
		if s.Round == round && s.PlayerID == playerID {
			return "Warte auf den anderen Spieler"
		}
	}

	r, err := ComputeRange(g, round, subs)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Wähle eine Zahl zwischen %d und %d", r.Min, r.Max)
}

// ResultText says who has to do the task.
func ResultText(g *domain.Game, schnickerName, angeschnickterName string) string {
	if !g.IsFinished() || g.Result == nil {
		return "Spiel läuft noch"
	}
	switch *g.Result {
	case domain.GameResultSchnickerWins:
		return fmt.Sprintf("%s muss die Aufgabe erfüllen", angeschnickterName)
	case domain.GameResultAngeschnickterWins:
		return fmt.Sprintf("Eigentor! %s muss die eigene Aufgabe erfüllen", schnickerName)
	case domain.GameResultTie:
		return "Unentschieden - niemand muss die Aufgabe erfüllen"
	}
	return "Unbekanntes Ergebnis"
}

// VisibleNumber is one submission as a given viewer may see it.
type VisibleNumber struct {
	PlayerID string       `json:"player_id"`
	Round    domain.Round `json:"round"`
	Value    *int         `json:"value"`
}

// RevealNumbers hides the opponent's numbers of a round until both players
// answered it or the game is over. Own numbers are always visible.
func RevealNumbers(g *domain.Game, subs []domain.Submission, viewerID string) []VisibleNumber {
	perRound := map[domain.Round]int{}
	for _, s := range subs {
		perRound[s.Round]++
	}

	out := make([]VisibleNumber, 0, len(subs))
	for _, s := range subs {
		vn := VisibleNumber{PlayerID: s.PlayerID, Round: s.Round}
		if g.IsFinished() || perRound[s.Round] >= 2 || s.PlayerID == viewerID {
			v := s.Value
			vn.Value = &v
		}
		out = append(out, vn)
	}
	return out
}

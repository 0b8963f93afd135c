package notify

import (
	"fmt"
	"strings"

	"schnicken/internal/domain"
)

// Action is something a player has to do next.
type Action string

const (
	ActionSetWager Action = "set_wager"
	ActionRound1   Action = "round1"
	ActionRound2   Action = "round2"
)

// Messages formats the German chat messages. AppURL is appended as a link
// when set.
type Messages struct {
	AppURL string
}

func (m Messages) link(label string) string {
	if m.AppURL == "" {
		return ""
	}
	return fmt.Sprintf("\n\n📱 %s: %s", label, m.AppURL)
}

func (m Messages) NewSchnick(schnicker, angeschnickter, task string) string {
	return fmt.Sprintf("🎮 *NEUER SCHNICK* 🎮\n\n%s hat %s angeschnickt!\n\nAufgabe: %s\n\nSpiel läuft...%s",
		schnicker, angeschnickter, task, m.link("Spiel öffnen"))
}

func (m Messages) BockUpdate(player string, wager int) string {
	return fmt.Sprintf("💰 *BOCK UPDATE* 💰\n\n%s hat %d Bock eingesetzt.%s", player, wager, m.link("Spiel öffnen"))
}

// RoundSubmission announces a number without revealing it. waitingFor is
// empty when the round is complete.
func (m Messages) RoundSubmission(round domain.Round, player, waitingFor string) string {
	waiting := "\n\nBeide Spieler haben ihre Zahl abgegeben!"
	if waitingFor != "" {
		waiting = fmt.Sprintf("\n\n⏳ Warte auf %s für Runde %d...", waitingFor, round)
	}
	return fmt.Sprintf("🔢 *RUNDE %d ZAHL* 🔢\n\n%s hat eine Zahl für Runde %d abgegeben.%s%s",
		round, player, round, waiting, m.link("Spiel öffnen"))
}

// Result is everything the result message shows.
type Result struct {
	Game           *domain.Game
	Schnicker      string
	Angeschnickter string
	Submissions    []domain.Submission
	// player id -> name
	Names map[string]string
}

func (m Messages) GameResult(r Result) string {
	g := r.Game
	var summary, winner, loser string
	if g.Result != nil {
		switch *g.Result {
		case domain.GameResultSchnickerWins:
			summary = fmt.Sprintf("%s hat gewonnen! %s muss die Aufgabe erfüllen.", r.Schnicker, r.Angeschnickter)
			winner, loser = r.Schnicker, r.Angeschnickter
		case domain.GameResultAngeschnickterWins:
			summary = fmt.Sprintf("Eigentor! %s muss die eigene Aufgabe erfüllen.", r.Schnicker)
			winner, loser = r.Angeschnickter, r.Schnicker
		case domain.GameResultTie:
			summary = "Unentschieden! Keine Aufgabe wird erfüllt."
		}
	}

	var b strings.Builder
	b.WriteString("🏆 *SPIELERGEBNIS* 🏆\n\n")
	fmt.Fprintf(&b, "*Schnick:* %s → %s\n", r.Schnicker, r.Angeschnickter)
	if g.Task != "" {
		fmt.Fprintf(&b, "*Aufgabe:* %s\n", g.Task)
	}
	if g.Wager != nil {
		fmt.Fprintf(&b, "*Bock-Wert:* %d\n", *g.Wager)
	}
	fmt.Fprintf(&b, "\n*Ergebnis:* %s\n", summary)

	for _, round := range []domain.Round{domain.Round1, domain.Round2} {
		subs := domain.SubmissionsForRound(r.Submissions, round)
		if len(subs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n*Runde %d Zahlen:*\n", round)
		for _, s := range subs {
			name := r.Names[s.PlayerID]
			if name == "" {
				name = s.PlayerID
			}
			fmt.Fprintf(&b, "- %s: %d\n", name, s.Value)
		}
	}

	switch {
	case loser != "":
		fmt.Fprintf(&b, "\n🏆 %s hat gewonnen! %s muss die Aufgabe erfüllen.", winner, loser)
	default:
		b.WriteString("\n🤝 Unentschieden - Keine Aufgabe wird erfüllt.")
	}
	b.WriteString(m.link("Zum Spiel"))
	return b.String()
}

func (m Messages) ActionRequired(player string, action Action) string {
	emoji, what := "⚠️", "zu handeln"
	switch action {
	case ActionSetWager:
		emoji, what = "💰", "einen Bock-Wert einzugeben"
	case ActionRound1:
		emoji, what = "1️⃣", "eine Zahl für Runde 1 abzugeben"
	case ActionRound2:
		emoji, what = "2️⃣", "eine Zahl für Runde 2 abzugeben"
	}
	msg := fmt.Sprintf("%s *AKTION ERFORDERLICH* %s\n\n%s muss %s!", emoji, emoji, player, what)
	if m.AppURL != "" {
		msg += "\n\n🔔 Bitte öffne die App und reagiere:\n" + m.AppURL
	}
	return msg
}

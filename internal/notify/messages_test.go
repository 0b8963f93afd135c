package notify

import (
	"strings"
	"testing"

	"schnicken/internal/domain"
)

func TestRoundSubmission(t *testing.T) {
	m := Messages{AppURL: "https://schnick.example"}

	waiting := m.RoundSubmission(domain.Round1, "Anna", "Ben")
	if !strings.Contains(waiting, "⏳ Warte auf Ben für Runde 1...") {
		t.Fatalf("waiting message: %q", waiting)
	}
	if !strings.HasSuffix(waiting, "📱 Spiel öffnen: https://schnick.example") {
		t.Fatalf("link missing: %q", waiting)
	}

	done := Messages{}.RoundSubmission(domain.Round2, "Ben", "")
	if !strings.Contains(done, "Beide Spieler haben ihre Zahl abgegeben!") || strings.Contains(done, "📱") {
		t.Fatalf("complete message: %q", done)
	}
}

func TestGameResult(t *testing.T) {
	w := 5
	res := domain.GameResultAngeschnickterWins
	g := &domain.Game{ID: "g1", SchnickerID: "s", AngeschnickterID: "a", Task: "Kopfstand", Wager: &w, Status: domain.GameStatusFinished, Result: &res}
	subs := []domain.Submission{
		{PlayerID: "s", Round: 1, Value: 2},
		{PlayerID: "a", Round: 1, Value: 4},
		{PlayerID: "s", Round: 2, Value: 1},
		{PlayerID: "a", Round: 2, Value: 1},
	}
	text := Messages{}.GameResult(Result{
		Game: g, Schnicker: "Sepp", Angeschnickter: "Anni", Submissions: subs,
		Names: map[string]string{"s": "Sepp", "a": "Anni"},
	})

	for _, want := range []string{
		"*Schnick:* Sepp → Anni",
		"*Aufgabe:* Kopfstand",
		"*Bock-Wert:* 5",
		"Eigentor! Sepp muss die eigene Aufgabe erfüllen.",
		"*Runde 1 Zahlen:*\n- Sepp: 2\n- Anni: 4",
		"*Runde 2 Zahlen:*\n- Sepp: 1\n- Anni: 1",
		"🏆 Anni hat gewonnen! Sepp muss die Aufgabe erfüllen.",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in\n%s", want, text)
		}
	}
}

func TestGameResultTie(t *testing.T) {
	res := domain.GameResultTie
	g := &domain.Game{SchnickerID: "s", AngeschnickterID: "a", Status: domain.GameStatusFinished, Result: &res}
	text := Messages{}.GameResult(Result{Game: g, Schnicker: "S", Angeschnickter: "A"})
	if !strings.Contains(text, "🤝 Unentschieden - Keine Aufgabe wird erfüllt.") || strings.Contains(text, "Runde 2") {
		t.Fatalf("tie message:\n%s", text)
	}
}

func TestActionRequired(t *testing.T) {
	cases := map[Action]string{
		ActionSetWager: "Anna muss einen Bock-Wert einzugeben!",
		ActionRound1:   "Anna muss eine Zahl für Runde 1 abzugeben!",
		ActionRound2:   "Anna muss eine Zahl für Runde 2 abzugeben!",
		Action("x"):    "Anna muss zu handeln!",
	}
	for action, want := range cases {
		if got := (Messages{}).ActionRequired("Anna", action); !strings.Contains(got, want) {
			t.Fatalf("%s: %q", action, got)
		}
	}
}

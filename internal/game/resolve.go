package game

import "schnicken/internal/domain"

// Outcome is what a completed round does to the game.
type Outcome struct {
	Status domain.GameStatus  `json:"status"`
	Result *domain.GameResult `json:"result,omitempty"`
}

func (o Outcome) Finished() bool {
	return o.Status == domain.GameStatusFinished
}

// Resolve decides a completed round. It needs exactly one number from each
// of two players.
//
//	round 1: equal → finished, schnicker wins; unequal → round 2
//	round 2: equal → finished, angeschnickter wins (Eigentor); unequal → tie
func Resolve(round domain.Round, subs []domain.Submission) (Outcome, error) {
	if !round.Valid() {
		return Outcome{}, preconditionf("unknown round %d", round)
	}
	if len(subs) != 2 {
		return Outcome{}, preconditionf("round %d needs 2 submissions, have %d", round, len(subs))
	}
	a, b := subs[0], subs[1]
	if a.PlayerID == b.PlayerID {
		return Outcome{}, preconditionf("round %d has two submissions from player %s", round, a.PlayerID)
	}
	if a.Round != round || b.Round != round {
		return Outcome{}, preconditionf("submission round mismatch, resolving round %d", round)
	}

	equal := a.Value == b.Value
	switch {
	case round == domain.Round1 && equal:
		return finished(domain.GameResultSchnickerWins), nil
	case round == domain.Round1:
		return Outcome{Status: domain.GameStatusRound2}, nil
	case equal:
		return finished(domain.GameResultAngeschnickterWins), nil
	default:
		return finished(domain.GameResultTie), nil
	}
}

func finished(r domain.GameResult) Outcome {
	return Outcome{Status: domain.GameStatusFinished, Result: &r}
}

// Apply writes the outcome onto g.
func (o Outcome) Apply(g *domain.Game) {
	g.Status = o.Status
	if o.Result != nil {
		r := *o.Result
		g.Result = &r
	}
}

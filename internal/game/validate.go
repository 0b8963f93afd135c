package game

import "schnicken/internal/domain"

// ValidateSubmission checks a number against the rules before it is stored.
// subs are all submissions of the game so far. On success it returns the
// range the value was checked against.
func ValidateSubmission(g *domain.Game, playerID string, round domain.Round, value int, subs []domain.Submission) (Range, error) {
	if g.IsFinished() {
		return Range{}, invalidStatef("game is finished, no more numbers accepted")
	}

	switch round {
	case domain.Round1:
		if g.Status != domain.GameStatusOpen {
			return Range{}, invalidStatef("round 1 is over, game is in status %s", g.Status)
		}
		if g.Wager == nil {
			return Range{}, invalidStatef("round 1 needs a wager, wait until it is set")
		}
	case domain.Round2:
		if g.Status != domain.GameStatusRound2 {
			return Range{}, invalidStatef("round 2 needs status %s, game is in status %s", domain.GameStatusRound2, g.Status)
		}
	default:
		return Range{}, invalidStatef("unknown round %d", round)
	}

	for _, s := range subs {
		if s.Round == round && s.PlayerID == playerID {
			return Range{}, &Error{Kind: KindDuplicate, Message: "already answered this round"}
		}
	}

	r, err := ComputeRange(g, round, subs)
	if err != nil {
		return Range{}, err
	}
	if !r.Contains(value) {
		return r, outOfRange(r)
	}
	return r, nil
}

// ValidateWager checks that the angeschnickt player may set wager now.
// maxWager <= 0 means no upper limit.
func ValidateWager(g *domain.Game, playerID string, wager, maxWager int) error {
	if playerID != g.AngeschnickterID {
		return invalidStatef("only the angeschnickt player sets the wager")
	}
	if g.Status != domain.GameStatusOpen {
		return invalidStatef("wager can only be set while the game is %s", domain.GameStatusOpen)
	}
	if g.Wager != nil {
		return invalidStatef("wager already set to %d", *g.Wager)
	}
	return CheckWagerValue(wager, maxWager)
}

// CheckWagerValue checks only the bounds of a wager.
func CheckWagerValue(wager, maxWager int) error {
	upper := maxWager
	if upper <= 0 {
		upper = int(^uint(0) >> 1)
	}
	r := Range{Min: 1, Max: upper}
	if !r.Contains(wager) {
		return outOfRange(r)
	}
	return nil
}

package game

import "schnicken/internal/domain"

// RoundTwoCap is the largest round-2 upper bound, whatever was played in round 1.
const RoundTwoCap = 4

// Range is the inclusive interval a player may pick from.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// RoundOneRange is [1, wager].
func RoundOneRange(wager *int) (Range, error) {
	if wager == nil {
		return Range{}, preconditionf("wager not set")
	}
	if *wager < 1 {
		return Range{}, preconditionf("wager must be positive, got %d", *wager)
	}
	return Range{Min: 1, Max: *wager}, nil
}

// RoundTwoRange is [1, min(min(n1, n2), 4)] over the two round-1 numbers.
func RoundTwoRange(round1 []domain.Submission) (Range, error) {
	if len(round1) != 2 {
		return Range{}, preconditionf("round 2 needs both round-1 numbers, have %d", len(round1))
	}
	low := min(round1[0].Value, round1[1].Value, RoundTwoCap)
	if low < 1 {
		return Range{}, preconditionf("invalid round-1 number %d", low)
	}
	return Range{Min: 1, Max: low}, nil
}

// ComputeRange returns the range for round of g. subs may hold every
// submission of the game; only round 1 numbers are looked at.
func ComputeRange(g *domain.Game, round domain.Round, subs []domain.Submission) (Range, error) {
	switch round {
	case domain.Round1:
		return RoundOneRange(g.Wager)
	case domain.Round2:
		return RoundTwoRange(domain.SubmissionsForRound(subs, domain.Round1))
	}
	return Range{}, preconditionf("unknown round %d", round)
}

package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"schnicken/internal/domain"
	"schnicken/internal/game"

	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	wager := 5
	g := &domain.Game{Status: domain.GameStatusOpen, Wager: &wager}
	_, rangeErr := game.ValidateSubmission(g, "s", domain.Round1, 9, nil)
	_, stateErr := game.ValidateSubmission(g, "s", domain.Round2, 1, nil)

	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"out of range", rangeErr, http.StatusUnprocessableEntity, "Wähle eine Zahl zwischen 1 und 5"},
		{"duplicate", fmt.Errorf("wrap: %w", &game.Error{Kind: game.KindDuplicate}), http.StatusConflict, "Du hast in dieser Runde bereits eine Zahl abgegeben"},
		{"invalid state", stateErr, http.StatusConflict, stateErr.Error()},
		{"precondition", &game.Error{Kind: game.KindPrecondition, Message: "boom"}, http.StatusInternalServerError, "internal error"},
		{"not found", fmt.Errorf("game x: %w", ErrNotFound), http.StatusNotFound, "not found"},
		{"not participant", ErrNotParticipant, http.StatusForbidden, ErrNotParticipant.Error()},
		{"invalid input", invalidInput("task is empty"), http.StatusBadRequest, "invalid input: task is empty"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"other", errors.New("db down"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := Describe(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.msg, msg)
		})
	}
}

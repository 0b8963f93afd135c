package service

import (
	"errors"
	"fmt"
	"net/http"

	"schnicken/internal/game"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotParticipant = errors.New("not a participant of this game")
	ErrInvalidInput   = errors.New("invalid input")
	ErrAlreadyExists  = errors.New("already exists")
	ErrUnauthorized   = errors.New("unauthorized")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Describe maps an error from the services to an HTTP status and the text
// shown to the player. Internal errors get a generic text.
func Describe(err error) (int, string) {
	var gerr *game.Error
	if errors.As(err, &gerr) {
		switch gerr.Kind {
		case game.KindOutOfRange:
			if gerr.Range != nil {
				return http.StatusUnprocessableEntity, fmt.Sprintf("Wähle eine Zahl zwischen %d und %d", gerr.Range.Min, gerr.Range.Max)
			}
			return http.StatusUnprocessableEntity, gerr.Message
		case game.KindDuplicate:
			return http.StatusConflict, "Du hast in dieser Runde bereits eine Zahl abgegeben"
		case game.KindInvalidState:
			return http.StatusConflict, gerr.Message
		}
		return http.StatusInternalServerError, "internal error"
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, ErrNotParticipant):
		return http.StatusForbidden, ErrNotParticipant.Error()
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	}
	return http.StatusInternalServerError, "internal error"
}

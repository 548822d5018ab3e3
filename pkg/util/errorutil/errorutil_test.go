package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"validation", NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{"forbidden", NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		{"invalid state", NewInvalidState("closed", nil), CodeInvalidState, http.StatusUnprocessableEntity},
		{"conflict", NewConcurrencyConflict(nil), CodeConcurrencyConflict, http.StatusConflict},
		{"persistence", NewPersistenceError("save failed", errors.New("boom")), CodePersistence, http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewNotFound("ticket", nil)), CodeNotFound, http.StatusNotFound},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"fiber error", fiber.ErrMethodNotAllowed, CodeNotFound, http.StatusMethodNotAllowed},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.wantCode || got.HTTPStatus != tt.wantStatus {
				t.Fatalf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tt.wantCode, tt.wantStatus)
			}
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	if err := MapError(nil); err != nil {
		t.Fatalf("MapError(nil) = %v", err)
	}
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewPersistenceError("save failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("persistence error should wrap its cause")
	}
	if !HasCode(err, CodePersistence) || HasCode(err, CodeInternal) {
		t.Fatal("HasCode mismatch")
	}
	if HasCode(cause, CodePersistence) {
		t.Fatal("plain error has no code")
	}
}

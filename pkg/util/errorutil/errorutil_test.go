package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrInvalidTransition, CodeInvalidTransition, http.StatusConflict},
		{domain.ErrMissingAssignee, CodeMissingAssignee, http.StatusUnprocessableEntity},
		{domain.ErrSessionAlreadyActive, CodeSessionAlreadyActive, http.StatusConflict},
		{domain.ErrAlreadyClosed, CodeAlreadyClosed, http.StatusConflict},
		{domain.ErrNotSessionOwner, CodeNotSessionOwner, http.StatusForbidden},
		{domain.ErrNotAuthorized, CodeNotAuthorized, http.StatusForbidden},
		{domain.ErrInvalidAssignee, CodeInvalidAssignee, http.StatusUnprocessableEntity},
		{domain.ErrNotFound, CodeNotFound, http.StatusNotFound},
		{domain.ErrConflict, CodeConflict, http.StatusConflict},
		{domain.ErrTicketClosed, CodeConflict, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", domain.ErrValidation), CodeValidation, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			de := FromDomain(tt.err, map[string]any{"k": "v"})
			if de == nil {
				t.Fatalf("no mapping for %v", tt.err)
			}
			if de.Code != tt.code || de.HTTPStatus != tt.status {
				t.Errorf("got %s/%d, want %s/%d", de.Code, de.HTTPStatus, tt.code, tt.status)
			}
			if !errors.Is(de, tt.err) {
				t.Error("mapped error does not unwrap to its source")
			}
		})
	}
	if FromDomain(errors.New("other"), nil) != nil {
		t.Error("unrelated error should not map")
	}
}

func TestUnavailableWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUnavailable(cause)
	if CodeOf(err) != CodeUnavailable {
		t.Fatalf("code = %s", CodeOf(err))
	}
	if !errors.Is(err, domain.ErrUnavailable) || !errors.Is(err, cause) {
		t.Error("unavailable error lost its chain")
	}
}

func TestToDomainErrorFallsBackToInternal(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	if de.Code != CodeInternal || de.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("got %s/%d", de.Code, de.HTTPStatus)
	}
	if ToDomainError(nil) != nil || MapError(nil) != nil {
		t.Error("nil should stay nil")
	}
	conflict := NewConflict("stale", nil)
	if ToDomainError(conflict) != conflict {
		t.Error("existing DomainError should pass through")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("plain error should have no code")
	}
}

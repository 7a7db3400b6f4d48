package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"calixoAPI/internal/types/challenge"
)

func TestRespondStartErrorStatusCodes(t *testing.T) {
	h := NewChallengeHandler(nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown challenge", challenge.ErrNotFound, http.StatusNotFound},
		{"active challenge exists", challenge.ErrActiveChallengeExists, http.StatusBadRequest},
		{"daily quota reached", challenge.ErrDailyQuotaReached, http.StatusBadRequest},
		{"bad focus duration", fmt.Errorf("%w: 3 minutes", challenge.ErrInvalidCustomDuration), http.StatusBadRequest},
		{"database failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.respondStartError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("respondStartError(%v) = %d, want %d", tt.err, rec.Code, tt.want)
			}
		})
	}
}

func TestRespondTransitionErrorStatusCodes(t *testing.T) {
	h := NewChallengeHandler(nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing attempt", challenge.ErrNotFound, http.StatusNotFound},
		{"claim while in progress", fmt.Errorf("%w: status is in_progress", challenge.ErrInvalidState), http.StatusBadRequest},
		{"finish twice", fmt.Errorf("%w: status is finished", challenge.ErrInvalidState), http.StatusBadRequest},
		{"database failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.respondTransitionError(rec, tt.err, "Failed")
			if rec.Code != tt.want {
				t.Errorf("respondTransitionError(%v) = %d, want %d", tt.err, rec.Code, tt.want)
			}
		})
	}
}

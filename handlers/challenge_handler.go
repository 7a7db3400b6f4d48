package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"calixoAPI/internal/types/challenge"
	"calixoAPI/middleware"
	"calixoAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

// GetBoard returns today's challenge selection plus the user's active
// attempt. The type query parameter picks the board (daily, focus, social).
func (h *ChallengeHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challengeType := challenge.Type(r.URL.Query().Get("type"))
	if challengeType == "" {
		challengeType = challenge.TypeDaily
	}
	switch challengeType {
	case challenge.TypeDaily, challenge.TypeFocus, challenge.TypeSocial:
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid challenge type")
		return
	}

	board, err := h.challengeService.GetChallengeBoard(ctx, clerkID, challengeType)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *ChallengeHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "challenge_id is required")
		return
	}

	attempt, err := h.challengeService.StartChallenge(ctx, clerkID, &req)
	if err != nil {
		log.Printf("Start Handler: %v", err)
		h.respondStartError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, attempt)
}

func (h *ChallengeHandler) Finish(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.FinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "user_challenge_id is required")
		return
	}

	attempt, err := h.challengeService.FinishChallenge(ctx, clerkID, &req)
	if err != nil {
		log.Printf("Finish Handler: %v", err)
		h.respondTransitionError(w, err, "Failed to finish challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, attempt)
}

func (h *ChallengeHandler) Claim(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "user_challenge_id is required")
		return
	}

	resp, err := h.challengeService.ClaimChallenge(ctx, clerkID, req.UserChallengeID)
	if err != nil {
		log.Printf("Claim Handler: %v", err)
		h.respondTransitionError(w, err, "Failed to claim reward")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) Share(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "user_challenge_id is required")
		return
	}

	resp, err := h.challengeService.ShareChallenge(ctx, clerkID, &req)
	if err != nil {
		log.Printf("Share Handler: %v", err)
		switch {
		case errors.Is(err, challenge.ErrShareBonusAlreadyPaid):
			respondWithError(w, http.StatusBadRequest, "Challenge already shared")
		default:
			h.respondTransitionError(w, err, "Failed to share challenge")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *ChallengeHandler) DismissShare(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.DismissShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "user_challenge_id is required")
		return
	}

	if err := h.challengeService.DismissShare(ctx, clerkID, req.UserChallengeID); err != nil {
		log.Printf("DismissShare Handler: %v", err)
		h.respondTransitionError(w, err, "Failed to dismiss share")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Share dismissed"})
}

func (h *ChallengeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "user_challenge_id is required")
		return
	}

	if err := h.challengeService.CancelChallenge(ctx, clerkID, req.UserChallengeID); err != nil {
		log.Printf("Cancel Handler: %v", err)
		h.respondTransitionError(w, err, "Failed to cancel challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Challenge canceled"})
}

func (h *ChallengeHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	history, err := h.challengeService.GetHistory(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, history)
}

func (h *ChallengeHandler) respondStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, challenge.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Challenge not found")
	case errors.Is(err, challenge.ErrActiveChallengeExists):
		respondWithError(w, http.StatusBadRequest, "An active challenge is already in progress")
	case errors.Is(err, challenge.ErrDailyQuotaReached):
		respondWithError(w, http.StatusBadRequest, "Daily challenge limit reached")
	case errors.Is(err, challenge.ErrInvalidCustomDuration):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Failed to start challenge")
	}
}

func (h *ChallengeHandler) respondTransitionError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, challenge.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Challenge attempt not found")
	case errors.Is(err, challenge.ErrInvalidState):
		respondWithError(w, http.StatusBadRequest, "Challenge is not in a valid state for this action")
	default:
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

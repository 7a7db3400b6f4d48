package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"calixoAPI/internal/types/post"
	"calixoAPI/middleware"
	"calixoAPI/services"
)

type FeedHandler struct {
	feedService *services.FeedService
}

func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	feed, err := h.feedService.GetFeed(ctx, clerkID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, feed)
}

func (h *FeedHandler) GetMyPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	posts, err := h.feedService.GetUserPosts(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

func (h *FeedHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req post.LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PostID == "" {
		respondWithError(w, http.StatusBadRequest, "post_id is required")
		return
	}

	resp, err := h.feedService.ToggleLike(ctx, clerkID, req.PostID)
	if err != nil {
		errMsg := err.Error()
		switch {
		case errMsg == "post not found":
			respondWithError(w, http.StatusNotFound, errMsg)
		case strings.Contains(errMsg, "invalid post ID"):
			respondWithError(w, http.StatusBadRequest, errMsg)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to toggle like")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

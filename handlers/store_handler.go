package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"calixoAPI/internal/store"
	"calixoAPI/middleware"
	"calixoAPI/services"
)

type StoreHandler struct {
	storeService *services.StoreService
}

func NewStoreHandler(storeService *services.StoreService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
	}
}

func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	store, err := h.storeService.GetStore(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Store is not available")
		return
	}

	respondWithJSON(w, http.StatusOK, store)
}

func (h *StoreHandler) PurchaseCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req store.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CouponID == "" {
		respondWithError(w, http.StatusBadRequest, "coupon_id is required")
		return
	}

	resp, err := h.storeService.PurchaseCoupon(ctx, clerkID, req.CouponID)
	if err != nil {
		log.Printf("PurchaseCoupon Handler: %v", err)
		errMsg := err.Error()
		switch {
		case errMsg == "coupon not found":
			respondWithError(w, http.StatusNotFound, errMsg)
		case errMsg == "coupon is not available for purchase":
			respondWithError(w, http.StatusBadRequest, errMsg)
		case errMsg == "not enough coins to purchase this coupon":
			respondWithError(w, http.StatusBadRequest, errMsg)
		case strings.Contains(errMsg, "user not found"):
			respondWithError(w, http.StatusNotFound, errMsg)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to purchase coupon")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *StoreHandler) GetMyCoupons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	coupons, err := h.storeService.GetUserCoupons(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, coupons)
}

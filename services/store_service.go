package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	qrcode "github.com/skip2/go-qrcode"

	"calixoAPI/internal/notification"
	"calixoAPI/internal/store"
	"calixoAPI/internal/types/transaction"
)

type StoreService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewStoreService(db *pgxpool.Pool, notifService *NotificationService) *StoreService {
	return &StoreService{db: db, notifService: notifService}
}

func (s *StoreService) GetStore(ctx context.Context, clerkID string) (*store.StoreResponse, error) {
	var balance int
	err := s.db.QueryRow(ctx, `SELECT coins FROM users WHERE clerk_id = $1`, clerkID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	query := `
	SELECT id, title, brand, description, price, discount_percent, image_url, is_active, created_at
	FROM store_coupons
	WHERE is_active = true
	ORDER BY price
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get coupons: %w", err)
	}
	defer rows.Close()

	resp := &store.StoreResponse{UserCoinsBalance: balance}
	for rows.Next() {
		c := &store.Coupon{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Brand, &c.Description, &c.Price,
			&c.DiscountPercent, &c.ImageURL, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		resp.Coupons = append(resp.Coupons, c)
	}
	return resp, rows.Err()
}

// PurchaseCoupon spends coins on a catalog coupon: the balance check and
// deduction, the owned-coupon insert, and the spend ledger row all commit
// together or not at all.
func (s *StoreService) PurchaseCoupon(ctx context.Context, clerkID string, couponID string) (*store.PurchaseResponse, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	couponUUID, err := uuid.Parse(couponID)
	if err != nil {
		return nil, fmt.Errorf("invalid coupon ID: %w", err)
	}

	coupon := store.Coupon{}
	couponQuery := `
		SELECT id, title, brand, price, is_active
		FROM store_coupons
		WHERE id = $1
	`
	err = tx.QueryRow(ctx, couponQuery, couponUUID).Scan(
		&coupon.ID, &coupon.Title, &coupon.Brand, &coupon.Price, &coupon.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("coupon not found")
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	if !coupon.IsActive {
		return nil, fmt.Errorf("coupon is not available for purchase")
	}

	var userID uuid.UUID
	var coins int
	err = tx.QueryRow(ctx, `SELECT id, coins FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &coins)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if coins < coupon.Price {
		return nil, fmt.Errorf("not enough coins to purchase this coupon")
	}

	var newBalance int
	err = tx.QueryRow(ctx, `UPDATE users SET coins = coins - $1, updated_at = NOW() WHERE id = $2 RETURNING coins`,
		coupon.Price, userID).Scan(&newBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct coins: %w", err)
	}

	owned := &store.UserCoupon{
		ID:          uuid.New(),
		UserID:      userID,
		CouponID:    couponUUID,
		Code:        generateCouponCode(),
		PurchasedAt: time.Now(),
	}

	insertOwnedQuery := `
		INSERT INTO user_coupons (id, user_id, coupon_id, code, redeemed, purchased_at)
		VALUES ($1, $2, $3, $4, false, $5)
	`
	_, err = tx.Exec(ctx, insertOwnedQuery, owned.ID, owned.UserID, owned.CouponID, owned.Code, owned.PurchasedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to issue coupon: %w", err)
	}

	// Spend amounts are stored positive; the ledger type carries the sign.
	ledgerQuery := `
		INSERT INTO transactions (id, user_id, amount, type, description, coupon_code)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, ledgerQuery, uuid.New(), userID, coupon.Price, transaction.TypeSpend,
		fmt.Sprintf("Coupon: %s %s", coupon.Brand, coupon.Title), owned.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	qrBase64, err := couponQRCode(owned.Code)
	if err != nil {
		// The coupon is already issued; the client can re-render the QR later.
		log.Printf("Failed to generate QR for coupon %s: %v", owned.Code, err)
	}

	_, err = s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeCouponPurchased,
		Data:   map[string]any{"brand": coupon.Brand},
	})
	if err != nil {
		log.Printf("Failed to create coupon notification: %v", err)
	}

	return &store.PurchaseResponse{
		Coupon:       owned,
		QRCodeBase64: qrBase64,
		NewBalance:   newBalance,
	}, nil
}

// GetUserCoupons lists the coupons a user owns, newest first.
func (s *StoreService) GetUserCoupons(ctx context.Context, clerkID string) ([]*store.UserCoupon, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	query := `
	SELECT id, user_id, coupon_id, code, redeemed, redeemed_at, purchased_at
	FROM user_coupons
	WHERE user_id = $1
	ORDER BY purchased_at DESC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*store.UserCoupon
	for rows.Next() {
		c := &store.UserCoupon{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.CouponID, &c.Code, &c.Redeemed,
			&c.RedeemedAt, &c.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func generateCouponCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("CLX-%s-%s", raw[:4], raw[4:8])
}

func couponQRCode(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

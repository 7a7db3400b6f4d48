package store

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a catalog entry: a brand discount purchasable with coins.
type Coupon struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Brand           string    `json:"brand" db:"brand"`
	Description     string    `json:"description" db:"description"`
	Price           int       `json:"price" db:"price"`
	DiscountPercent int       `json:"discount_percent" db:"discount_percent"`
	ImageURL        string    `json:"image_url" db:"image_url"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// UserCoupon is an owned coupon with its redemption code.
type UserCoupon struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	CouponID    uuid.UUID  `json:"coupon_id" db:"coupon_id"`
	Code        string     `json:"code" db:"code"`
	Redeemed    bool       `json:"redeemed" db:"redeemed"`
	RedeemedAt  *time.Time `json:"redeemed_at,omitempty" db:"redeemed_at"`
	PurchasedAt time.Time  `json:"purchased_at" db:"purchased_at"`
}

type PurchaseRequest struct {
	CouponID string `json:"coupon_id" validate:"required"`
}

type PurchaseResponse struct {
	Coupon       *UserCoupon `json:"coupon"`
	QRCodeBase64 string      `json:"qr_code_base64"`
	NewBalance   int         `json:"new_balance"`
}

type StoreResponse struct {
	Coupons          []*Coupon `json:"coupons"`
	UserCoinsBalance int       `json:"user_coins_balance"`
}

package transaction

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeEarn  Type = "earn"
	TypeSpend Type = "spend"
)

// Transaction is an append-only ledger row. Spend amounts are stored
// positive; the type column carries the sign.
type Transaction struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Amount      int        `json:"amount" db:"amount"`
	Type        Type       `json:"type" db:"type"`
	Description string     `json:"description" db:"description"`
	ChallengeID *uuid.UUID `json:"challenge_id,omitempty" db:"challenge_id"`
	CouponCode  *string    `json:"coupon_code,omitempty" db:"coupon_code"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type LedgerResponse struct {
	Transactions []*Transaction `json:"transactions"`
	TotalEarned  int            `json:"total_earned"`
	TotalSpent   int            `json:"total_spent"`
	Balance      int            `json:"balance"`
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"calixoAPI/internal/types/transaction"
)

type TransactionService struct {
	db *pgxpool.Pool
}

func NewTransactionService(db *pgxpool.Pool) *TransactionService {
	return &TransactionService{db: db}
}

// GetLedger returns the user's transaction history newest first, plus
// running totals and the live coin balance from the users row.
func (s *TransactionService) GetLedger(ctx context.Context, clerkID string, limit int) (*transaction.LedgerResponse, error) {
	var userID uuid.UUID
	var balance int
	err := s.db.QueryRow(ctx, `SELECT id, coins FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &balance)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	if limit <= 0 || limit > 200 {
		limit = 100
	}

	query := `
	SELECT id, user_id, amount, type, description, challenge_id, coupon_code, created_at
	FROM transactions
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	resp := &transaction.LedgerResponse{Balance: balance}
	for rows.Next() {
		t := &transaction.Transaction{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description,
			&t.ChallengeID, &t.CouponCode, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		resp.Transactions = append(resp.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Totals cover the full history, not just the returned page.
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'earn'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE type = 'spend'), 0)
		FROM transactions WHERE user_id = $1
	`, userID).Scan(&resp.TotalEarned, &resp.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("failed to total transactions: %w", err)
	}

	return resp, nil
}

package challenge

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeDaily  Type = "daily"
	TypeFocus  Type = "focus"
	TypeSocial Type = "social"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
	StatusNotClaimed Status = "not_claimed"
)

// Domain errors the handlers translate into 4xx responses.
var (
	ErrNotFound              = errors.New("challenge not found")
	ErrActiveChallengeExists = errors.New("another challenge is already in progress")
	ErrDailyQuotaReached     = errors.New("daily challenge limit reached")
	ErrInvalidState          = errors.New("challenge is not in the required state")
	ErrShareBonusAlreadyPaid = errors.New("share bonus already claimed")
	ErrInvalidCustomDuration = errors.New("invalid focus duration")
)

type Challenge struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Type            Type      `json:"type" db:"type"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	Reward          int       `json:"reward" db:"reward"`
	DurationMinutes *int      `json:"duration_minutes" db:"duration_minutes"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type UserChallenge struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID     uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Status          Status     `json:"status" db:"status"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at" db:"finished_at"`
	ClaimedAt       *time.Time `json:"claimed_at" db:"claimed_at"`
	CompletedAt     *time.Time `json:"completed_at" db:"completed_at"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	DurationSeconds int        `json:"duration_seconds" db:"duration_seconds"`
	Interruptions   int        `json:"interruptions" db:"interruptions"`
	Shared          bool       `json:"shared" db:"shared"`
}

// SessionData is the client-reported timing payload attached on finish.
// Interruptions stays 0 under the trust system; the field exists so the
// mobile client can report honestly if it ever starts tracking them.
type SessionData struct {
	DurationSeconds int        `json:"duration_seconds"`
	Interruptions   int        `json:"interruptions"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

type FocusSession struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	UserChallengeID uuid.UUID `json:"user_challenge_id" db:"user_challenge_id"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	CoinsEarned     int       `json:"coins_earned" db:"coins_earned"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

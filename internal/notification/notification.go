package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeStreakMilestone   NotificationType = "streak_milestone"
	TypeShareReminder     NotificationType = "share_reminder"
	TypeFollowedCompleted NotificationType = "followed_completed"
	TypeNewFollower       NotificationType = "new_follower"
	TypePostLiked         NotificationType = "post_liked"
	TypeCouponPurchased   NotificationType = "coupon_purchased"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

type Notification struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	UserID    uuid.UUID            `json:"user_id" db:"user_id"`
	Type      NotificationType     `json:"type" db:"type"`
	Priority  NotificationPriority `json:"priority" db:"priority"`
	Status    NotificationStatus   `json:"status" db:"status"`
	Title     string               `json:"title" db:"title"`
	Body      string               `json:"body" db:"body"`
	Data      map[string]any       `json:"data" db:"data"`
	ActorID   *uuid.UUID           `json:"actor_id,omitempty" db:"actor_id"`
	SentAt    *time.Time           `json:"sent_at,omitempty" db:"sent_at"`
	ReadAt    *time.Time           `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}

type NotificationPreferences struct {
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	PushEnabled  bool            `json:"push_enabled" db:"push_enabled"`
	InAppEnabled bool            `json:"in_app_enabled" db:"in_app_enabled"`
	EnabledTypes map[string]bool `json:"enabled_types" db:"enabled_types"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

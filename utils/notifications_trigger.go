package utils

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"calixoAPI/internal/notification"
)

// NotificationCreator is the one method the triggers need from the
// notification service.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

// NotifyFollowersOfCompletedChallenge fans a feed-post notification out to
// everyone following the author. Best-effort: failures are logged, never
// surfaced to the request that triggered them.
func NotifyFollowersOfCompletedChallenge(db *pgxpool.Pool, notifier NotificationCreator, authorID uuid.UUID, postID uuid.UUID) {
	bgCtx := context.Background()

	var authorName string
	if err := db.QueryRow(bgCtx, `SELECT username FROM users WHERE id = $1`, authorID).Scan(&authorName); err != nil {
		log.Printf("Failed to load author for follower notification: %v", err)
		return
	}

	rows, err := db.Query(bgCtx, `SELECT follower_id FROM follows WHERE followee_id = $1`, authorID)
	if err != nil {
		log.Printf("Failed to get followers for notification: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var followerID uuid.UUID
		if err := rows.Scan(&followerID); err != nil {
			continue
		}

		req := &notification.CreateNotificationRequest{
			UserID:  followerID,
			Type:    notification.TypeFollowedCompleted,
			ActorID: &authorID,
			Data: map[string]any{
				"username": authorName,
				"post_id":  postID.String(),
			},
		}
		if _, err := notifier.CreateNotification(bgCtx, req); err != nil {
			log.Printf("Failed to notify follower %s: %v", followerID, err)
		}
	}
}

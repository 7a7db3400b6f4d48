package post

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	UserChallengeID *uuid.UUID `json:"user_challenge_id,omitempty" db:"user_challenge_id"`
	ImageURL        string     `json:"image_url" db:"image_url"`
	Note            string     `json:"note" db:"note"`
	LikesCount      int        `json:"likes_count" db:"likes_count"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// FeedPost is a Post joined with its author and the viewer's like state.
type FeedPost struct {
	Post
	Username       string  `json:"username"`
	UserImageURL   *string `json:"user_image_url"`
	ChallengeTitle *string `json:"challenge_title,omitempty"`
	LikedByViewer  bool    `json:"liked_by_viewer"`
}

type LikeRequest struct {
	PostID string `json:"post_id" validate:"required"`
}

type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calixoAPI/internal/notification"
	"calixoAPI/internal/types/post"
)

type FeedService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewFeedService(db *pgxpool.Pool, notifService *NotificationService) *FeedService {
	return &FeedService{db: db, notifService: notifService}
}

// GetFeed returns posts from the viewer and everyone they follow.
func (s *FeedService) GetFeed(ctx context.Context, clerkID string, limit int) ([]*post.FeedPost, error) {
	var viewerID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&viewerID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
	SELECT p.id, p.user_id, p.user_challenge_id, p.image_url, p.note, p.likes_count, p.created_at,
	       u.username, u.image_url,
	       c.title,
	       EXISTS(SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $1)
	FROM posts p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN user_challenges uc ON uc.id = p.user_challenge_id
	LEFT JOIN challenges c ON c.id = uc.challenge_id
	WHERE p.user_id = $1
	   OR p.user_id IN (SELECT followee_id FROM follows WHERE follower_id = $1)
	ORDER BY p.created_at DESC
	LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	defer rows.Close()

	var feed []*post.FeedPost
	for rows.Next() {
		fp := &post.FeedPost{}
		if err := rows.Scan(&fp.ID, &fp.UserID, &fp.UserChallengeID, &fp.ImageURL, &fp.Note,
			&fp.LikesCount, &fp.CreatedAt, &fp.Username, &fp.UserImageURL,
			&fp.ChallengeTitle, &fp.LikedByViewer); err != nil {
			return nil, fmt.Errorf("failed to scan feed post: %w", err)
		}
		feed = append(feed, fp)
	}
	return feed, rows.Err()
}

// GetUserPosts returns the user's own posts.
func (s *FeedService) GetUserPosts(ctx context.Context, clerkID string) ([]*post.Post, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	query := `
	SELECT id, user_id, user_challenge_id, image_url, note, likes_count, created_at
	FROM posts
	WHERE user_id = $1
	ORDER BY created_at DESC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer rows.Close()

	var posts []*post.Post
	for rows.Next() {
		p := &post.Post{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserChallengeID, &p.ImageURL, &p.Note,
			&p.LikesCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ToggleLike likes or unlikes a post. The denormalized likes_count update
// is allowed to fail without failing the request; the post_likes table
// stays the source of truth.
func (s *FeedService) ToggleLike(ctx context.Context, clerkID string, postID string) (*post.LikeResponse, error) {
	var viewerID uuid.UUID
	var viewerName string
	err := s.db.QueryRow(ctx, `SELECT id, username FROM users WHERE clerk_id = $1`, clerkID).Scan(&viewerID, &viewerName)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	postUUID, err := uuid.Parse(postID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %w", err)
	}

	var authorID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1`, postUUID).Scan(&authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post not found")
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postUUID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	liked := tag.RowsAffected() == 0
	if liked {
		_, err = s.db.Exec(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postUUID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to like post: %w", err)
		}
	}

	delta := 1
	if !liked {
		delta = -1
	}
	var likesCount int
	err = s.db.QueryRow(ctx, `
		UPDATE posts SET likes_count = GREATEST(likes_count + $1, 0) WHERE id = $2 RETURNING likes_count
	`, delta, postUUID).Scan(&likesCount)
	if err != nil {
		// Don't fail the request over the counter.
		log.Printf("ToggleLike: failed to update likes_count for %s: %v", postUUID, err)
		s.db.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postUUID).Scan(&likesCount)
	}

	if liked && authorID != viewerID {
		_, err := s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:  authorID,
			Type:    notification.TypePostLiked,
			ActorID: &viewerID,
			Data:    map[string]any{"username": viewerName},
		})
		if err != nil {
			log.Printf("ToggleLike: failed to notify author: %v", err)
		}
	}

	return &post.LikeResponse{Liked: liked, LikesCount: likesCount}, nil
}

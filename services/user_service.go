package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calixoAPI/internal/notification"
	"calixoAPI/internal/types/leaderboard"
	"calixoAPI/internal/user"
)

type UserService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewUserService(db *pgxpool.Pool, notifService *NotificationService) *UserService {
	return &UserService{db: db, notifService: notifService}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, clerk_id, email, username, image_url, coins, streak, avatar_energy, is_premium, email_verified, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx, query,
		u.ID, u.ClerkID, u.Email, u.Username, u.ImageURL, u.CreatedAt, u.UpdatedAt,
	).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.ImageURL, &u.Coins, &u.Streak,
		&u.AvatarEnergy, &u.IsPremium, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, image_url, coins, streak, avatar_energy, is_premium, email_verified, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.ImageURL, &u.Coins, &u.Streak,
		&u.AvatarEnergy, &u.IsPremium, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetProfile returns the user plus follower/following/completed counts.
func (s *UserService) GetProfile(ctx context.Context, clerkID string) (*user.Profile, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	profile := &user.Profile{User: u}
	query := `
	SELECT
		(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
		(SELECT COUNT(*) FROM follows WHERE follower_id = $1),
		(SELECT COUNT(*) FROM user_challenges WHERE user_id = $1 AND status = 'completed')
	`
	err = s.db.QueryRow(ctx, query, u.ID).Scan(&profile.Followers, &profile.Following, &profile.CompletedCount)
	if err != nil {
		// Counts are decoration, don't fail the profile request.
		log.Printf("GetProfile: failed to load counts for %s: %v", clerkID, err)
	}

	return profile, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET username = COALESCE(NULLIF($2, ''), username),
	    image_url = COALESCE(NULLIF($3, ''), image_url),
	    updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, username, image_url, coins, streak, avatar_energy, is_premium, email_verified, created_at, updated_at
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID, req.Username, req.ImageURL).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.ImageURL, &u.Coins, &u.Streak,
		&u.AvatarEnergy, &u.IsPremium, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET email_verified = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, verified)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

func (s *UserService) SetPremium(ctx context.Context, clerkID string, premium bool) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET is_premium = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, premium)
	if err != nil {
		return fmt.Errorf("failed to update premium flag: %w", err)
	}
	return nil
}

// Follow creates a one-directional follow edge and notifies the followee.
func (s *UserService) Follow(ctx context.Context, clerkID string, targetUserID string) error {
	var followerID uuid.UUID
	var followerName string
	err := s.db.QueryRow(ctx, `SELECT id, username FROM users WHERE clerk_id = $1`, clerkID).Scan(&followerID, &followerName)
	if err != nil {
		log.Printf("Follow: Failed to find user with clerk_id %s: %v", clerkID, err)
		return fmt.Errorf("user not found")
	}

	followeeID, err := uuid.Parse(targetUserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	if followerID == followeeID {
		return fmt.Errorf("cannot follow yourself")
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, followeeID).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("user to follow not found")
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`, followerID, followeeID)
	if err != nil {
		log.Printf("Follow: Failed to insert follow: %v", err)
		return fmt.Errorf("failed to follow user")
	}

	if tag.RowsAffected() > 0 {
		// Notification is best-effort.
		_, err := s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:  followeeID,
			Type:    notification.TypeNewFollower,
			ActorID: &followerID,
			Data:    map[string]any{"username": followerName},
		})
		if err != nil {
			log.Printf("Follow: failed to notify followee: %v", err)
		}
	}

	return nil
}

func (s *UserService) Unfollow(ctx context.Context, clerkID string, targetUserID string) error {
	var followerID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&followerID)
	if err != nil {
		return fmt.Errorf("user not found")
	}

	followeeID, err := uuid.Parse(targetUserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	result, err := s.db.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to unfollow user")
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("follow not found")
	}
	return nil
}

func (s *UserService) listConnections(ctx context.Context, clerkID string, query string) ([]*user.User, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u := &user.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.ImageURL, &u.Coins, &u.Streak, &u.AvatarEnergy); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserService) GetFollowers(ctx context.Context, clerkID string) ([]*user.User, error) {
	return s.listConnections(ctx, clerkID, `
		SELECT u.id, u.username, u.image_url, u.coins, u.streak, u.avatar_energy
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC
	`)
}

func (s *UserService) GetFollowing(ctx context.Context, clerkID string) ([]*user.User, error) {
	return s.listConnections(ctx, clerkID, `
		SELECT u.id, u.username, u.image_url, u.coins, u.streak, u.avatar_energy
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
	`)
}

// GetGlobalLeaderboard ranks all users by streak, coins as tiebreaker.
func (s *UserService) GetGlobalLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	query := `
	SELECT user_id, username, image_url, coins, streak, rank FROM (
		SELECT id AS user_id, username, image_url, coins, streak,
		       RANK() OVER (ORDER BY streak DESC, coins DESC) AS rank
		FROM users
	) ranked
	ORDER BY rank
	LIMIT 50
	`
	return s.buildLeaderboard(ctx, userID, query)
}

// GetFollowingLeaderboard ranks the user plus everyone they follow.
func (s *UserService) GetFollowingLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	query := `
	SELECT user_id, username, image_url, coins, streak, rank FROM (
		SELECT u.id AS user_id, u.username, u.image_url, u.coins, u.streak,
		       RANK() OVER (ORDER BY u.streak DESC, u.coins DESC) AS rank
		FROM users u
		WHERE u.id = $1
		   OR u.id IN (SELECT followee_id FROM follows WHERE follower_id = $1)
	) ranked
	ORDER BY rank
	`
	return s.buildLeaderboard(ctx, userID, query, userID)
}

func (s *UserService) buildLeaderboard(ctx context.Context, userID uuid.UUID, query string, args ...interface{}) (*leaderboard.Leaderboard, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	lb := &leaderboard.Leaderboard{}
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.ImageURL, &entry.Coins,
			&entry.CurrentStreak, &entry.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		if entry.UserID == userID {
			lb.UserPosition = entry
		}
		lb.Entries = append(lb.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	lb.TotalUsers = len(lb.Entries)
	return lb, nil
}

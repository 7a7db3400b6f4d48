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

	"calixoAPI/internal/energy"
	"calixoAPI/internal/notification"
	"calixoAPI/internal/types/challenge"
	"calixoAPI/internal/types/transaction"
	"calixoAPI/utils"
)

type ChallengeService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, notifService *NotificationService) *ChallengeService {
	return &ChallengeService{
		db:           db,
		notifService: notifService,
	}
}

type challengeUser struct {
	ID           uuid.UUID
	Coins        int
	Streak       int
	AvatarEnergy int
	IsPremium    bool
}

func (s *ChallengeService) getUserByClerkID(ctx context.Context, clerkID string) (*challengeUser, error) {
	u := &challengeUser{}
	query := `SELECT id, coins, streak, avatar_energy, is_premium FROM users WHERE clerk_id = $1`
	err := s.db.QueryRow(ctx, query, clerkID).Scan(&u.ID, &u.Coins, &u.Streak, &u.AvatarEnergy, &u.IsPremium)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// startedTodayCount counts today's attempts that still occupy a quota
// slot. Canceled and not_claimed rows are excluded by definition.
func (s *ChallengeService) startedTodayCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `
	SELECT COUNT(*)
	FROM user_challenges
	WHERE user_id = $1
	  AND started_at >= date_trunc('day', NOW())
	  AND status NOT IN ('canceled', 'not_claimed')
	`
	if err := s.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count todays challenges: %w", err)
	}
	return count, nil
}

func (s *ChallengeService) activeAttempt(ctx context.Context, userID uuid.UUID) (*challenge.UserChallenge, error) {
	uc := &challenge.UserChallenge{}
	query := `
	SELECT id, user_id, challenge_id, status, started_at, finished_at, claimed_at, completed_at,
	       duration_minutes, duration_seconds, interruptions, shared
	FROM user_challenges
	WHERE user_id = $1 AND status = 'in_progress'
	`
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Status, &uc.StartedAt, &uc.FinishedAt,
		&uc.ClaimedAt, &uc.CompletedAt, &uc.DurationMinutes, &uc.DurationSeconds,
		&uc.Interruptions, &uc.Shared,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active challenge: %w", err)
	}
	return uc, nil
}

func (s *ChallengeService) activeCatalog(ctx context.Context, challengeType challenge.Type) ([]*challenge.Challenge, error) {
	query := `
	SELECT id, type, title, description, reward, duration_minutes, is_active, created_at
	FROM challenges
	WHERE type = $1 AND is_active = true
	ORDER BY created_at
	`
	rows, err := s.db.Query(ctx, query, challengeType)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenges: %w", err)
	}
	defer rows.Close()

	var pool []*challenge.Challenge
	for rows.Next() {
		c := &challenge.Challenge{}
		if err := rows.Scan(&c.ID, &c.Type, &c.Title, &c.Description, &c.Reward,
			&c.DurationMinutes, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		pool = append(pool, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pool, nil
}

// GetChallengeBoard serves GET /api/v1/challenges. For type=daily the
// visible set is the deterministic selection for (today, user), so every
// reload and every instance shows the same three challenges all day.
func (s *ChallengeService) GetChallengeBoard(ctx context.Context, clerkID string, challengeType challenge.Type) (*challenge.BoardResponse, error) {
	user, err := s.getUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	pool, err := s.activeCatalog(ctx, challengeType)
	if err != nil {
		return nil, err
	}

	resp := &challenge.BoardResponse{
		UserProfile: &challenge.BoardUserProfile{
			Coins:        user.Coins,
			Streak:       user.Streak,
			AvatarEnergy: user.AvatarEnergy,
			IsPremium:    user.IsPremium,
		},
	}

	switch challengeType {
	case challenge.TypeDaily:
		seed := fmt.Sprintf("%s-%s", time.Now().UTC().Format("2006-01-02"), user.ID)
		resp.Challenges = utils.SelectDailyChallenges(pool, seed)
	case challenge.TypeFocus:
		resp.Challenges = pool
		if len(pool) > 0 {
			resp.FocusChallenge = pool[0]
		}
	default:
		resp.Challenges = pool
	}

	active, err := s.activeAttempt(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	resp.ActiveAttempt = active

	startedToday, err := s.startedTodayCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	switch {
	case active != nil:
		resp.CanStart = false
		resp.CanStartReason = "Finish or cancel your current challenge first."
	case startedToday >= DailyQuotaFor(user.IsPremium):
		resp.CanStart = false
		resp.CanStartReason = QuotaReason(user.IsPremium)
	default:
		resp.CanStart = true
	}

	return resp, nil
}

// StartChallenge creates an in_progress attempt. At most one attempt may
// be in_progress per user, and the daily quota (1 free / 3 premium) is
// checked against today's non-canceled, non-not_claimed rows.
func (s *ChallengeService) StartChallenge(ctx context.Context, clerkID string, req *challenge.StartRequest) (*challenge.UserChallenge, error) {
	user, err := s.getUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	active, err := s.activeAttempt(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, challenge.ErrActiveChallengeExists
	}

	startedToday, err := s.startedTodayCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if startedToday >= DailyQuotaFor(user.IsPremium) {
		return nil, challenge.ErrDailyQuotaReached
	}

	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge ID: %w", err)
	}

	c := &challenge.Challenge{}
	query := `
	SELECT id, type, title, reward, duration_minutes
	FROM challenges
	WHERE id = $1 AND is_active = true
	`
	err = s.db.QueryRow(ctx, query, challengeID).Scan(&c.ID, &c.Type, &c.Title, &c.Reward, &c.DurationMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, challenge.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	duration := utils.EffectiveDuration(c)
	if c.Type == challenge.TypeFocus {
		if req.CustomDuration == nil {
			return nil, challenge.ErrInvalidCustomDuration
		}
		duration, err = ClampFocusDuration(*req.CustomDuration, user.IsPremium)
		if err != nil {
			return nil, err
		}
	}

	uc := &challenge.UserChallenge{
		ID:              uuid.New(),
		UserID:          user.ID,
		ChallengeID:     c.ID,
		Status:          challenge.StatusInProgress,
		StartedAt:       time.Now(),
		DurationMinutes: duration,
	}

	insertQuery := `
	INSERT INTO user_challenges (id, user_id, challenge_id, status, started_at, duration_minutes)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.Exec(ctx, insertQuery, uc.ID, uc.UserID, uc.ChallengeID, uc.Status, uc.StartedAt, uc.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to start challenge: %w", err)
	}

	return uc, nil
}

// FinishChallenge moves in_progress -> finished with the client-reported
// session data. Elapsed time is trusted as reported; there is no server
// timer (trust system).
func (s *ChallengeService) FinishChallenge(ctx context.Context, clerkID string, req *challenge.FinishRequest) (*challenge.UserChallenge, error) {
	user, err := s.getUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	ucID, err := uuid.Parse(req.UserChallengeID)
	if err != nil {
		return nil, fmt.Errorf("invalid user challenge ID: %w", err)
	}

	uc := &challenge.UserChallenge{}
	query := `
	UPDATE user_challenges
	SET status = 'finished', finished_at = NOW(), duration_seconds = $3, interruptions = $4
	WHERE id = $1 AND user_id = $2 AND status = 'in_progress'
	RETURNING id, user_id, challenge_id, status, started_at, finished_at, claimed_at, completed_at,
	          duration_minutes, duration_seconds, interruptions, shared
	`
	err = s.db.QueryRow(ctx, query, ucID, user.ID, req.SessionData.DurationSeconds, req.SessionData.Interruptions).Scan(
		&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Status, &uc.StartedAt, &uc.FinishedAt,
		&uc.ClaimedAt, &uc.CompletedAt, &uc.DurationMinutes, &uc.DurationSeconds,
		&uc.Interruptions, &uc.Shared,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.resolveTransitionError(ctx, ucID, user.ID)
		}
		return nil, fmt.Errorf("failed to finish challenge: %w", err)
	}

	return uc, nil
}

// ClaimChallenge moves finished -> completed and credits the base reward.
// The transition is a single conditional UPDATE inside one transaction,
// so two concurrent claims can never both credit coins.
func (s *ChallengeService) ClaimChallenge(ctx context.Context, clerkID string, userChallengeID string) (*challenge.ClaimResponse, error) {
	user, err := s.getUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	ucID, err := uuid.Parse(userChallengeID)
	if err != nil {
		return nil, fmt.Errorf("invalid user challenge ID: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	uc := &challenge.UserChallenge{}
	claimQuery := `
	UPDATE user_challenges
	SET status = 'completed', claimed_at = NOW(), completed_at = NOW()
	WHERE id = $1 AND user_id = $2 AND status = 'finished'
	RETURNING id, user_id, challenge_id, status, started_at, finished_at, claimed_at, completed_at,
	          duration_minutes, duration_seconds, interruptions, shared
	`
	err = tx.QueryRow(ctx, claimQuery, ucID, user.ID).Scan(
		&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Status, &uc.StartedAt, &uc.FinishedAt,
		&uc.ClaimedAt, &uc.CompletedAt, &uc.DurationMinutes, &uc.DurationSeconds,
		&uc.Interruptions, &uc.Shared,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.resolveTransitionError(ctx, ucID, user.ID)
		}
		return nil, fmt.Errorf("failed to claim challenge: %w", err)
	}

	c := &challenge.Challenge{}
	err = tx.QueryRow(ctx, `SELECT id, type, title, reward FROM challenges WHERE id = $1`, uc.ChallengeID).Scan(
		&c.ID, &c.Type, &c.Title, &c.Reward,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	reward := BaseReward(c, uc)
	newEnergy := energy.UpdateEnergyOnChallengeComplete(user.AvatarEnergy, c.Type)

	resp := &challenge.ClaimResponse{UserChallenge: uc, CoinsEarned: reward, AvatarEnergy: newEnergy}
	updateUserQuery := `
	UPDATE users
	SET coins = coins + $1, streak = streak + 1, avatar_energy = $2, updated_at = NOW()
	WHERE id = $3
	RETURNING coins, streak
	`
	err = tx.QueryRow(ctx, updateUserQuery, reward, newEnergy, user.ID).Scan(&resp.NewBalance, &resp.NewStreak)
	if err != nil {
		return nil, fmt.Errorf("failed to credit reward: %w", err)
	}

	ledgerQuery := `
	INSERT INTO transactions (id, user_id, amount, type, description, challenge_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, ledgerQuery, uuid.New(), user.ID, reward, transaction.TypeEarn,
		fmt.Sprintf("Completed challenge: %s", c.Title), uc.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if c.Type == challenge.TypeFocus {
		focusQuery := `
		INSERT INTO focus_sessions (id, user_id, user_challenge_id, duration_minutes, coins_earned)
		VALUES ($1, $2, $3, $4, $5)
		`
		_, err = tx.Exec(ctx, focusQuery, uuid.New(), user.ID, uc.ID, SessionMinutes(uc), reward)
		if err != nil {
			return nil, fmt.Errorf("failed to insert focus session: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	// Milestone notifications are best-effort, don't fail the claim.
	if resp.NewStreak > 0 && resp.NewStreak%7 == 0 {
		_, err := s.notifService.CreateNotification(context.Background(), &notification.CreateNotificationRequest{
			UserID: user.ID,
			Type:   notification.TypeStreakMilestone,
			Data:   map[string]any{"streak": resp.NewStreak},
		})
		if err != nil {
			log.Printf("Failed to create streak milestone notification: %v", err)
		}
	}

	return resp, nil
}

// ShareChallenge publishes a completed challenge to the feed and pays the
// flat share bonus. The shared flag guards the bonus: it pays at most
// once per attempt.
func (s *ChallengeService) ShareChallenge(ctx context.Context, clerkID string, req *challenge.ShareRequest) (*challenge.ShareResponse, error) {
	user, err := s.getUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	ucID, err := uuid.Parse(req.UserChallengeID)
	if err != nil {
		return nil, fmt.Errorf("invalid user challenge ID: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var challengeID uuid.UUID
	shareQuery := `
	UPDATE user_challenges
	SET shared = true
	WHERE id = $1 AND user_id = $2 AND status = 'completed' AND shared = false
	RETURNING challenge_id
	`
	err = tx.QueryRow(ctx, shareQuery, ucID, user.ID).Scan(&challengeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.resolveShareError(ctx, ucID, user.ID)
		}
		return nil, fmt.Errorf("failed to mark challenge shared: %w", err)
	}

	postID := uuid.New()
	postQuery := `
	INSERT INTO posts (id, user_id, user_challenge_id, image_url, note)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, postQuery, postID, user.ID, ucID, req.ImageURL, req.Note)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed post: %w", err)
	}

	resp := &challenge.ShareResponse{PostID: postID.String(), BonusCoins: ShareBonusCoins}
	err = tx.QueryRow(ctx, `UPDATE users SET coins = coins + $1, updated_at = NOW() WHERE id = $2 RETURNING coins`,
		ShareBonusCoins, user.ID).Scan(&resp.NewBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to credit share bonus: %w", err)
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO transactions (id, user_id, amount, type, description, challenge_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), user.ID, ShareBonusCoins, transaction.TypeEarn, "Share bonus", challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert share bonus transaction: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit share: %w", err)
	}

	go utils.NotifyFollowersOfCompletedChallenge(s.db, s.notifService, user.ID, postID)

	return resp, nil
}

// DismissShare records that the user skipped the share prompt and leaves
// a reminder notification instead.
func (s *ChallengeService) DismissShare(ctx context.Context, clerkID string, userChallengeID string) error {
	user, err := s.getUserByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	ucID, err := uuid.Parse(userChallengeID)
	if err != nil {
		return fmt.Errorf("invalid user challenge ID: %w", err)
	}

	var challengeID uuid.UUID
	query := `SELECT challenge_id FROM user_challenges WHERE id = $1 AND user_id = $2 AND status = 'completed'`
	err = s.db.QueryRow(ctx, query, ucID, user.ID).Scan(&challengeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.resolveTransitionError(ctx, ucID, user.ID)
		}
		return fmt.Errorf("failed to get user challenge: %w", err)
	}

	_, err = s.notifService.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: user.ID,
		Type:   notification.TypeShareReminder,
		Data:   map[string]any{"user_challenge_id": ucID.String()},
	})
	if err != nil {
		return fmt.Errorf("failed to create share reminder: %w", err)
	}
	return nil
}

// CancelChallenge aborts an in_progress attempt. The row stays for audit
// but stops counting against the daily quota.
func (s *ChallengeService) CancelChallenge(ctx context.Context, clerkID string, userChallengeID string) error {
	user, err := s.getUserByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	ucID, err := uuid.Parse(userChallengeID)
	if err != nil {
		return fmt.Errorf("invalid user challenge ID: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
	UPDATE user_challenges
	SET status = 'canceled'
	WHERE id = $1 AND user_id = $2 AND status = 'in_progress'
	`, ucID, user.ID)
	if err != nil {
		return fmt.Errorf("failed to cancel challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.resolveTransitionError(ctx, ucID, user.ID)
	}
	return nil
}

// GetHistory returns the user's attempts, newest first.
func (s *ChallengeService) GetHistory(ctx context.Context, clerkID string) ([]*challenge.UserChallenge, error) {
	user, err := s.getUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, challenge_id, status, started_at, finished_at, claimed_at, completed_at,
	       duration_minutes, duration_seconds, interruptions, shared
	FROM user_challenges
	WHERE user_id = $1
	ORDER BY started_at DESC
	LIMIT 100
	`
	rows, err := s.db.Query(ctx, query, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge history: %w", err)
	}
	defer rows.Close()

	var history []*challenge.UserChallenge
	for rows.Next() {
		uc := &challenge.UserChallenge{}
		if err := rows.Scan(&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Status, &uc.StartedAt,
			&uc.FinishedAt, &uc.ClaimedAt, &uc.CompletedAt, &uc.DurationMinutes,
			&uc.DurationSeconds, &uc.Interruptions, &uc.Shared); err != nil {
			return nil, fmt.Errorf("failed to scan user challenge: %w", err)
		}
		history = append(history, uc)
	}
	return history, rows.Err()
}

// MarkStaleFinishedAsNotClaimed is run by the background sweeper. Rows
// that finished more than 24h ago and were never claimed stop occupying
// quota slots.
func (s *ChallengeService) MarkStaleFinishedAsNotClaimed(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
	UPDATE user_challenges
	SET status = 'not_claimed'
	WHERE status = 'finished' AND finished_at < NOW() - INTERVAL '24 hours'
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale challenges: %w", err)
	}
	return tag.RowsAffected(), nil
}

// resolveTransitionError turns a zero-row conditional update into the
// right domain error: the row is either missing or in the wrong state.
func (s *ChallengeService) resolveTransitionError(ctx context.Context, ucID, userID uuid.UUID) error {
	var status challenge.Status
	err := s.db.QueryRow(ctx, `SELECT status FROM user_challenges WHERE id = $1 AND user_id = $2`, ucID, userID).Scan(&status)
	if err != nil {
		return challenge.ErrNotFound
	}
	return fmt.Errorf("%w: status is %s", challenge.ErrInvalidState, status)
}

func (s *ChallengeService) resolveShareError(ctx context.Context, ucID, userID uuid.UUID) error {
	var status challenge.Status
	var shared bool
	err := s.db.QueryRow(ctx, `SELECT status, shared FROM user_challenges WHERE id = $1 AND user_id = $2`, ucID, userID).Scan(&status, &shared)
	if err != nil {
		return challenge.ErrNotFound
	}
	if status == challenge.StatusCompleted && shared {
		return challenge.ErrShareBonusAlreadyPaid
	}
	return fmt.Errorf("%w: status is %s", challenge.ErrInvalidState, status)
}

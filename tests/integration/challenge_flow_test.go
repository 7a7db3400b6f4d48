package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calixoAPI/internal/types/challenge"
	"calixoAPI/internal/user"
	"calixoAPI/services"
	"calixoAPI/tests/helpers"
)

func seedChallenge(t *testing.T, pool *pgxpool.Pool, chType challenge.Type, reward int, durationMinutes *int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO challenges (id, type, title, description, reward, duration_minutes, is_active)
		VALUES ($1, $2, $3, '', $4, $5, true)
	`, id, chType, "Test challenge "+id.String()[:8], reward, durationMinutes)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM challenges WHERE id = $1", id)
	})
	return id
}

func seedUser(t *testing.T, userService *services.UserService, premium bool) string {
	t.Helper()
	clerkID := "user_test_" + uuid.New().String()[:13]
	ctx := context.Background()
	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "test" + clerkID + "@example.com",
		Username: "lifecycle",
	})
	require.NoError(t, err)
	if premium {
		require.NoError(t, userService.SetPremium(ctx, clerkID, true))
	}
	return clerkID
}

// The happy path: start -> finish -> claim -> share, with the state
// guards checked at every step.
func TestChallengeLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	challengeService := services.NewChallengeService(pool, notificationService)

	ctx := context.Background()
	clerkID := seedUser(t, userService, true)

	duration := 60
	challengeID := seedChallenge(t, pool, challenge.TypeDaily, 10, &duration)

	// Start
	attempt, err := challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: challengeID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusInProgress, attempt.Status)

	// Claiming before finishing must be rejected
	_, err = challengeService.ClaimChallenge(ctx, clerkID, attempt.ID.String())
	assert.ErrorIs(t, err, challenge.ErrInvalidState)

	// A second concurrent start must be rejected
	otherID := seedChallenge(t, pool, challenge.TypeDaily, 5, &duration)
	_, err = challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: otherID.String(),
	})
	assert.ErrorIs(t, err, challenge.ErrActiveChallengeExists)

	// Finish
	finished, err := challengeService.FinishChallenge(ctx, clerkID, &challenge.FinishRequest{
		UserChallengeID: attempt.ID.String(),
		SessionData:     challenge.SessionData{DurationSeconds: 3600},
	})
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusFinished, finished.Status)

	// Finishing twice must be rejected
	_, err = challengeService.FinishChallenge(ctx, clerkID, &challenge.FinishRequest{
		UserChallengeID: attempt.ID.String(),
	})
	assert.ErrorIs(t, err, challenge.ErrInvalidState)

	// Claim
	claim, err := challengeService.ClaimChallenge(ctx, clerkID, attempt.ID.String())
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusCompleted, claim.UserChallenge.Status)
	assert.Equal(t, 10, claim.CoinsEarned)
	assert.Equal(t, 10, claim.NewBalance)

	// Claiming twice must not pay twice
	_, err = challengeService.ClaimChallenge(ctx, clerkID, attempt.ID.String())
	assert.ErrorIs(t, err, challenge.ErrInvalidState)

	var balance int
	require.NoError(t, pool.QueryRow(ctx, "SELECT coins FROM users WHERE clerk_id = $1", clerkID).Scan(&balance))
	assert.Equal(t, 10, balance, "double claim must not double credit")

	// Share pays the bonus exactly once
	share, err := challengeService.ShareChallenge(ctx, clerkID, &challenge.ShareRequest{
		UserChallengeID: attempt.ID.String(),
		ImageURL:        "https://example.com/proof.jpg",
		Note:            "done!",
	})
	require.NoError(t, err)
	assert.Equal(t, services.ShareBonusCoins, share.BonusCoins)
	assert.Equal(t, 12, share.NewBalance)

	_, err = challengeService.ShareChallenge(ctx, clerkID, &challenge.ShareRequest{
		UserChallengeID: attempt.ID.String(),
		ImageURL:        "https://example.com/proof.jpg",
	})
	assert.ErrorIs(t, err, challenge.ErrShareBonusAlreadyPaid)

	// The share created a feed post
	var postCount int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM posts WHERE user_challenge_id = $1", attempt.ID).Scan(&postCount))
	assert.Equal(t, 1, postCount)
}

func TestChallengeDailyQuota_FreeUser(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	challengeService := services.NewChallengeService(pool, notificationService)

	ctx := context.Background()
	clerkID := seedUser(t, userService, false)

	duration := 30
	first := seedChallenge(t, pool, challenge.TypeDaily, 5, &duration)
	second := seedChallenge(t, pool, challenge.TypeDaily, 5, &duration)

	attempt, err := challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: first.String(),
	})
	require.NoError(t, err)

	_, err = challengeService.FinishChallenge(ctx, clerkID, &challenge.FinishRequest{
		UserChallengeID: attempt.ID.String(),
		SessionData:     challenge.SessionData{DurationSeconds: 1800},
	})
	require.NoError(t, err)
	_, err = challengeService.ClaimChallenge(ctx, clerkID, attempt.ID.String())
	require.NoError(t, err)

	// One completed attempt exhausts the free quota for today.
	_, err = challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: second.String(),
	})
	assert.ErrorIs(t, err, challenge.ErrDailyQuotaReached)
}

func TestChallengeCancel_FreesQuota(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	challengeService := services.NewChallengeService(pool, notificationService)

	ctx := context.Background()
	clerkID := seedUser(t, userService, false)

	duration := 30
	challengeID := seedChallenge(t, pool, challenge.TypeDaily, 5, &duration)

	attempt, err := challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: challengeID.String(),
	})
	require.NoError(t, err)

	require.NoError(t, challengeService.CancelChallenge(ctx, clerkID, attempt.ID.String()))

	// A canceled attempt does not count against the quota.
	retry, err := challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: challengeID.String(),
	})
	require.NoError(t, err)
	assert.NotEqual(t, attempt.ID, retry.ID)
}

func TestFocusChallenge_RewardScalesWithDuration(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	challengeService := services.NewChallengeService(pool, notificationService)

	ctx := context.Background()
	clerkID := seedUser(t, userService, false)

	focusID := seedChallenge(t, pool, challenge.TypeFocus, 0, nil)

	// Focus without a duration is rejected.
	_, err := challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: focusID.String(),
	})
	assert.ErrorIs(t, err, challenge.ErrInvalidCustomDuration)

	customMinutes := 119
	attempt, err := challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID:    focusID.String(),
		CustomDuration: &customMinutes,
	})
	require.NoError(t, err)
	assert.Equal(t, 119, attempt.DurationMinutes)

	_, err = challengeService.FinishChallenge(ctx, clerkID, &challenge.FinishRequest{
		UserChallengeID: attempt.ID.String(),
		SessionData:     challenge.SessionData{DurationSeconds: 119 * 60},
	})
	require.NoError(t, err)

	claim, err := challengeService.ClaimChallenge(ctx, clerkID, attempt.ID.String())
	require.NoError(t, err)

	// 119 reported minutes is one full hour, the partial hour pays nothing.
	assert.Equal(t, 1, claim.CoinsEarned)

	var sessions int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM focus_sessions WHERE user_challenge_id = $1", attempt.ID).Scan(&sessions))
	assert.Equal(t, 1, sessions, "claiming a focus challenge records a focus session")
}

func TestStaleFinishedSweep(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	challengeService := services.NewChallengeService(pool, notificationService)

	ctx := context.Background()
	clerkID := seedUser(t, userService, false)

	duration := 30
	challengeID := seedChallenge(t, pool, challenge.TypeDaily, 5, &duration)

	attempt, err := challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: challengeID.String(),
	})
	require.NoError(t, err)
	_, err = challengeService.FinishChallenge(ctx, clerkID, &challenge.FinishRequest{
		UserChallengeID: attempt.ID.String(),
	})
	require.NoError(t, err)

	// Age the attempt past the claim window.
	_, err = pool.Exec(ctx,
		"UPDATE user_challenges SET finished_at = NOW() - INTERVAL '25 hours' WHERE id = $1", attempt.ID)
	require.NoError(t, err)

	n, err := challengeService.MarkStaleFinishedAsNotClaimed(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = challengeService.ClaimChallenge(ctx, clerkID, attempt.ID.String())
	require.True(t, errors.Is(err, challenge.ErrInvalidState))

	var balance int
	require.NoError(t, pool.QueryRow(ctx, "SELECT coins FROM users WHERE clerk_id = $1", clerkID).Scan(&balance))
	assert.Equal(t, 0, balance, "expired attempts pay nothing")

	// The slot is free again.
	retry, err := challengeService.StartChallenge(ctx, clerkID, &challenge.StartRequest{
		ChallengeID: challengeID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusInProgress, retry.Status)
}

// The board payload carries the viewer's profile snapshot alongside the
// challenge list, so the client renders coins and energy from one call.
func TestChallengeBoard_IncludesViewerProfile(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	challengeService := services.NewChallengeService(pool, notificationService)

	ctx := context.Background()
	clerkID := seedUser(t, userService, true)

	duration := 30
	seedChallenge(t, pool, challenge.TypeDaily, 5, &duration)

	board, err := challengeService.GetChallengeBoard(ctx, clerkID, challenge.TypeDaily)
	require.NoError(t, err)
	require.NotNil(t, board.UserProfile)
	assert.Equal(t, 0, board.UserProfile.Coins)
	assert.Equal(t, 50, board.UserProfile.AvatarEnergy)
	assert.True(t, board.UserProfile.IsPremium)
	assert.True(t, board.CanStart)
}

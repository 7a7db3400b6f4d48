package services

import (
	"fmt"

	"calixoAPI/internal/types/challenge"
)

const (
	FreeDailyQuota    = 1
	PremiumDailyQuota = 3

	ShareBonusCoins = 2

	MinFocusMinutes        = 5
	MaxFocusMinutesFree    = 120
	MaxFocusMinutesPremium = 480
)

// DailyQuotaFor returns how many challenges a user may start per calendar
// day. Canceled and not_claimed attempts never count against it.
func DailyQuotaFor(isPremium bool) int {
	if isPremium {
		return PremiumDailyQuota
	}
	return FreeDailyQuota
}

// QuotaReason explains a blocked start so the client can render it.
func QuotaReason(isPremium bool) string {
	if isPremium {
		return fmt.Sprintf("You have reached your %d daily challenges. Come back tomorrow!", PremiumDailyQuota)
	}
	return "You have used your free daily challenge. Upgrade to premium for 3 per day, or come back tomorrow!"
}

// BaseReward computes the coins credited at claim time. Focus challenges
// pay 1 coin per full hour of the session, truncated; partial hours earn
// nothing. The session length is the one the client reported at finish,
// falling back to the planned length when none was reported. Everything
// else pays the catalog reward.
func BaseReward(c *challenge.Challenge, uc *challenge.UserChallenge) int {
	if c.Type == challenge.TypeFocus {
		return SessionMinutes(uc) / 60
	}
	return c.Reward
}

// SessionMinutes resolves the effective focus session length for an attempt.
func SessionMinutes(uc *challenge.UserChallenge) int {
	if uc.DurationSeconds > 0 {
		return uc.DurationSeconds / 60
	}
	return uc.DurationMinutes
}

// ClampFocusDuration bounds a user-chosen focus duration by tier.
func ClampFocusDuration(minutes int, isPremium bool) (int, error) {
	max := MaxFocusMinutesFree
	if isPremium {
		max = MaxFocusMinutesPremium
	}
	if minutes < MinFocusMinutes || minutes > max {
		return 0, fmt.Errorf("%w: must be between %d and %d minutes", challenge.ErrInvalidCustomDuration, MinFocusMinutes, max)
	}
	return minutes, nil
}

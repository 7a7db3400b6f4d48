package services

import (
	"errors"
	"testing"

	"calixoAPI/internal/types/challenge"
)

func TestBaseRewardFocusTruncates(t *testing.T) {
	focus := &challenge.Challenge{Type: challenge.TypeFocus, Reward: 99}

	cases := []struct {
		minutes int
		want    int
	}{
		{59, 0},
		{60, 1},
		{61, 1},
		{119, 1},
		{120, 2},
		{480, 8},
	}
	for _, tc := range cases {
		// Reported session and planned-only attempts must pay the same.
		reported := &challenge.UserChallenge{DurationSeconds: tc.minutes * 60}
		if got := BaseReward(focus, reported); got != tc.want {
			t.Errorf("BaseReward(focus, %d reported min) = %d, want %d", tc.minutes, got, tc.want)
		}
		planned := &challenge.UserChallenge{DurationMinutes: tc.minutes}
		if got := BaseReward(focus, planned); got != tc.want {
			t.Errorf("BaseReward(focus, %d planned min) = %d, want %d", tc.minutes, got, tc.want)
		}
	}
}

func TestBaseRewardFocusPrefersReportedSession(t *testing.T) {
	focus := &challenge.Challenge{Type: challenge.TypeFocus}
	// Planned two hours, reported one. The reported session wins.
	uc := &challenge.UserChallenge{DurationMinutes: 120, DurationSeconds: 60 * 60}
	if got := BaseReward(focus, uc); got != 1 {
		t.Errorf("BaseReward(focus, planned 120 reported 60) = %d, want 1", got)
	}
}

func TestBaseRewardNonFocusUsesCatalog(t *testing.T) {
	daily := &challenge.Challenge{Type: challenge.TypeDaily, Reward: 10}
	uc := &challenge.UserChallenge{DurationMinutes: 600}
	if got := BaseReward(daily, uc); got != 10 {
		t.Errorf("BaseReward(daily) = %d, want catalog reward 10", got)
	}

	social := &challenge.Challenge{Type: challenge.TypeSocial, Reward: 12}
	if got := BaseReward(social, uc); got != 12 {
		t.Errorf("BaseReward(social) = %d, want catalog reward 12", got)
	}
}

func TestDailyQuotaFor(t *testing.T) {
	if got := DailyQuotaFor(false); got != 1 {
		t.Errorf("free quota = %d, want 1", got)
	}
	if got := DailyQuotaFor(true); got != 3 {
		t.Errorf("premium quota = %d, want 3", got)
	}
}

func TestQuotaReasonMentionsUpgradePath(t *testing.T) {
	free := QuotaReason(false)
	if free == "" || free == QuotaReason(true) {
		t.Errorf("free and premium quota reasons must differ and be non-empty")
	}
}

func TestClampFocusDuration(t *testing.T) {
	if _, err := ClampFocusDuration(4, false); !errors.Is(err, challenge.ErrInvalidCustomDuration) {
		t.Errorf("below minimum: expected ErrInvalidCustomDuration, got %v", err)
	}
	if _, err := ClampFocusDuration(121, false); !errors.Is(err, challenge.ErrInvalidCustomDuration) {
		t.Errorf("free above 120: expected ErrInvalidCustomDuration, got %v", err)
	}

	got, err := ClampFocusDuration(121, true)
	if err != nil || got != 121 {
		t.Errorf("premium 121 minutes: got (%d, %v), want (121, nil)", got, err)
	}

	if _, err := ClampFocusDuration(481, true); !errors.Is(err, challenge.ErrInvalidCustomDuration) {
		t.Errorf("premium above 480: expected ErrInvalidCustomDuration, got %v", err)
	}

	got, err = ClampFocusDuration(5, false)
	if err != nil || got != 5 {
		t.Errorf("minimum boundary: got (%d, %v), want (5, nil)", got, err)
	}
}

package challenge

type StartRequest struct {
	ChallengeID    string `json:"challenge_id"`
	CustomDuration *int   `json:"custom_duration,omitempty"`
}

type FinishRequest struct {
	UserChallengeID string      `json:"user_challenge_id"`
	SessionData     SessionData `json:"session_data"`
}

type ClaimRequest struct {
	UserChallengeID string `json:"user_challenge_id"`
}

type ShareRequest struct {
	UserChallengeID string `json:"user_challenge_id"`
	ImageURL        string `json:"image_url"`
	Note            string `json:"note"`
}

type DismissShareRequest struct {
	UserChallengeID string `json:"user_challenge_id"`
}

type CancelRequest struct {
	UserChallengeID string `json:"user_challenge_id"`
}

type ClaimResponse struct {
	UserChallenge *UserChallenge `json:"user_challenge"`
	CoinsEarned   int            `json:"coins_earned"`
	NewBalance    int            `json:"new_balance"`
	NewStreak     int            `json:"new_streak"`
	AvatarEnergy  int            `json:"avatar_energy"`
}

type ShareResponse struct {
	PostID     string `json:"post_id"`
	BonusCoins int    `json:"bonus_coins"`
	NewBalance int    `json:"new_balance"`
}

// BoardUserProfile is the viewer snapshot embedded in the board payload.
type BoardUserProfile struct {
	Coins        int  `json:"coins"`
	Streak       int  `json:"streak"`
	AvatarEnergy int  `json:"avatar_energy"`
	IsPremium    bool `json:"is_premium"`
}

// BoardResponse is the payload for GET /api/v1/challenges.
type BoardResponse struct {
	Challenges     []*Challenge      `json:"challenges"`
	UserProfile    *BoardUserProfile `json:"user_profile"`
	ActiveAttempt  *UserChallenge    `json:"active_attempt,omitempty"`
	FocusChallenge *Challenge        `json:"focus_challenge,omitempty"`
	CanStart       bool              `json:"can_start"`
	CanStartReason string            `json:"can_start_reason,omitempty"`
}

package user

import "time"

type User struct {
	ID            string    `json:"id"`
	ClerkID       string    `json:"clerkId"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Coins         int       `json:"coins"`
	Streak        int       `json:"streak"`
	AvatarEnergy  int       `json:"avatarEnergy"`
	IsPremium     bool      `json:"isPremium"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Profile struct {
	User           *User `json:"user"`
	Followers      int   `json:"followers"`
	Following      int   `json:"following"`
	CompletedCount int   `json:"completedCount"`
}

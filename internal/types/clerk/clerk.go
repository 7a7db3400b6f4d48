package clerk

import "encoding/json"

type ClerkWebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type ClerkEmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verification struct {
		Status string `json:"status"`
	} `json:"verification"`
}

type ClerkUserData struct {
	ID              string              `json:"id"`
	Username        string              `json:"username"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	ImageURL        string              `json:"image_url"`
	ProfileImageURL string              `json:"profile_image_url"`
	EmailAddresses  []ClerkEmailAddress `json:"email_addresses"`
}

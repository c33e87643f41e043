package entity

// Identity is the signed-in principal as reported by the identity provider.
// Only UID is guaranteed to be set; everything else is best-effort.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	Provider      string `json:"provider,omitempty"` // e.g. "google.com", "password"
	EmailVerified bool   `json:"email_verified"`
}

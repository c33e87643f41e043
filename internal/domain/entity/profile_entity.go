package entity

import (
	"time"
)

const DefaultProfileRole = "patient"

// Profile is the per-user document keyed by the identity UID.
// It is provisioned once on first sign-in and edited by the user afterwards.
type Profile struct {
	UID         string    `firestore:"uid" json:"uid"`
	Email       string    `firestore:"email" json:"email"`
	DisplayName string    `firestore:"displayName" json:"display_name"`
	PhotoURL    string    `firestore:"photoURL" json:"photo_url,omitempty"`
	Phone       string    `firestore:"phone" json:"phone,omitempty"`
	DateOfBirth string    `firestore:"dateOfBirth" json:"date_of_birth,omitempty"`
	Address     string    `firestore:"address" json:"address,omitempty"`
	Role        string    `firestore:"role" json:"role"`
	CreatedAt   time.Time `firestore:"createdAt" json:"created_at"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updated_at"`
}

// NewProfileFromIdentity builds the default document written during provisioning.
func NewProfileFromIdentity(id Identity) *Profile {
	return &Profile{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
		Phone:       id.PhoneNumber,
		Role:        DefaultProfileRole,
	}
}

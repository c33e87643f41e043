package firebase

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"github.com/oksasatya/go-appointment-auth/internal/domain/entity"
)

var ErrInvalidIDToken = errors.New("invalid id token")

// IDTokenVerifier is the part of *auth.Client used for sign-in.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// TokenVerifier turns Firebase ID tokens into identities.
type TokenVerifier struct {
	client IDTokenVerifier
}

func NewTokenVerifier(client IDTokenVerifier) *TokenVerifier {
	return &TokenVerifier{client: client}
}

func (v *TokenVerifier) Verify(ctx context.Context, idToken string) (entity.Identity, error) {
	if idToken == "" {
		return entity.Identity{}, ErrInvalidIDToken
	}
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return entity.Identity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	return IdentityFromToken(tok), nil
}

// IdentityFromToken maps the standard Firebase claims onto an Identity.
func IdentityFromToken(tok *auth.Token) entity.Identity {
	id := entity.Identity{
		UID:           tok.UID,
		Email:         claimString(tok.Claims, "email"),
		DisplayName:   claimString(tok.Claims, "name"),
		PhotoURL:      claimString(tok.Claims, "picture"),
		PhoneNumber:   claimString(tok.Claims, "phone_number"),
		Provider:      tok.Firebase.SignInProvider,
		EmailVerified: claimBool(tok.Claims, "email_verified"),
	}
	if id.UID == "" {
		id.UID = tok.Subject
	}
	return id
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimBool(claims map[string]interface{}, key string) bool {
	v, _ := claims[key].(bool)
	return v
}

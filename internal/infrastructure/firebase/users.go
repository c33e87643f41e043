package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

type UserSummary struct {
	UID         string
	Email       string
	DisplayName string
}

// ListUsers pages through Firebase Auth users, stopping after limit entries
// (limit <= 0 means all).
func ListUsers(ctx context.Context, client *auth.Client, limit int) ([]UserSummary, error) {
	var out []UserSummary
	it := client.Users(ctx, "")
	for limit <= 0 || len(out) < limit {
		u, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, UserSummary{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName})
	}
	return out, nil
}

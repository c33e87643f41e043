package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

const (
	UsersCollection        = "users"
	AppointmentsCollection = "appointments"
)

// NewClient opens a Firestore client for projectID. When FIRESTORE_EMULATOR_HOST
// is set the client talks to the emulator instead.
func NewClient(ctx context.Context, projectID, credsPath string) (*firestore.Client, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	c, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return c, nil
}

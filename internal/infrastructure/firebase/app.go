package firebase

import (
	"context"
	"fmt"

	fb "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// NewApp initializes the Firebase Admin SDK. If credsPath is empty,
// Application Default Credentials are used.
func NewApp(ctx context.Context, projectID, credsPath string) (*fb.App, error) {
	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}

	var conf *fb.Config
	if projectID != "" {
		conf = &fb.Config{ProjectID: projectID}
	}

	app, err := fb.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	return app, nil
}

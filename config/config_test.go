package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearFirebaseEnv(t *testing.T) {
	t.Helper()
	for _, v := range (&Config{}).FirebaseVars() {
		t.Setenv(v.Name, "")
		t.Setenv(v.Fallback, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearFirebaseEnv(t)
	t.Setenv("PROFILE_STORE", "")
	t.Setenv("AUTH_STATE_LOAD_TIMEOUT", "")

	c := Load()

	assert.Equal(t, "firestore", c.ProfileStore)
	assert.False(t, c.UsePostgresProfiles())
	assert.Equal(t, 10*time.Second, c.AuthStateLoadTimeout)
	assert.Equal(t, 5*time.Minute, c.ProfileCacheTTL)
	assert.Len(t, c.MissingFirebaseVars(), 6)
}

func TestLoad_FirebaseFallsBackToPublicNames(t *testing.T) {
	clearFirebaseEnv(t)
	t.Setenv("NEXT_PUBLIC_FIREBASE_PROJECT_ID", "web-project")

	c := Load()
	assert.Equal(t, "web-project", c.FirebaseProjectID)

	t.Setenv("FIREBASE_PROJECT_ID", "server-project")
	c = Load()
	assert.Equal(t, "server-project", c.FirebaseProjectID)
	assert.NotContains(t, c.MissingFirebaseVars(), "NEXT_PUBLIC_FIREBASE_PROJECT_ID")
	assert.Contains(t, c.MissingFirebaseVars(), "NEXT_PUBLIC_FIREBASE_API_KEY")
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("AUTH_STATE_LOAD_TIMEOUT", "soon")
	t.Setenv("SEED_LIST_USERS", "maybe")
	t.Setenv("PROFILE_STORE", "Postgres")

	c := Load()
	assert.Equal(t, 10*time.Second, c.AuthStateLoadTimeout)
	assert.False(t, c.SeedListUsers)
	assert.True(t, c.UsePostgresProfiles())
}

func TestCORSOrigins_TrimsAndSkipsEmpty(t *testing.T) {
	c := &Config{CORSAllowedOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSOrigins())
}

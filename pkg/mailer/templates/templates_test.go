package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-appointment-auth/config"
)

func TestRender_Welcome(t *testing.T) {
	cfg := &config.Config{AppName: "CareBook", AppURL: "https://carebook.test", CompanyName: "CareBook Inc."}
	data := NewWelcomeData(cfg, "Alice", "alice@example.com", WithRole("patient"))

	subject, text, html, err := Render(Welcome, data)
	require.NoError(t, err)

	assert.Contains(t, subject, "Welcome to CareBook")
	assert.Contains(t, text, "Hi Alice")
	assert.Contains(t, text, "registered as a patient")
	assert.Contains(t, html, `href="https://carebook.test"`)
}

func TestRender_WelcomeDefaults(t *testing.T) {
	subject, text, _, err := Render(Welcome, NewWelcomeData(nil, "", "bob@example.com"))
	require.NoError(t, err)
	assert.Contains(t, subject, "our clinic")
	assert.Contains(t, text, "Hi there")
}

func TestRender_ProfileUpdated(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	data := NewProfileUpdatedData(nil, "Alice", "alice@example.com",
		map[string]string{"phone": "+1234567890"}, WithTime(at))

	_, text, html, err := Render(ProfileUpdated, data)
	require.NoError(t, err)
	assert.Contains(t, text, "15 January 2024, 10:00")
	assert.Contains(t, text, "phone: +1234567890")
	assert.Contains(t, html, "<strong>phone</strong>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	assert.False(t, Known("login_otp"))
	_, _, _, err := Render("login_otp", nil)
	assert.Error(t, err)
}

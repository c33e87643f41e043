package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/go-appointment-auth/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithRole(role string) Option {
	return func(d *EmailData) {
		if s := strings.TrimSpace(role); s != "" {
			d.Role = s
		}
	}
}

func WithChanges(ch map[string]string) Option {
	return func(d *EmailData) { d.Changes = ch }
}

// NewBaseEmailData fills the common fields from cfg, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.CompanyAddress = cfg.CompanyAddress
		d.AppName = cfg.AppName
		d.AppURL = cfg.AppURL
		d.LogoURL = cfg.LogoURL
		d.SupportURL = cfg.SupportURL
		d.PrivacyURL = cfg.PrivacyURL
		d.UnsubscribeURL = cfg.UnsubscribeURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, opts...))
}

func NewProfileUpdatedData(cfg *config.Config, name, email string, changes map[string]string, opts ...Option) map[string]any {
	opts = append([]Option{WithChanges(changes)}, opts...)
	return ToMap(NewBaseEmailData(cfg, ProfileUpdated, name, email, opts...))
}

package authstate

import (
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultLoadTimeout = 10 * time.Second

type Option func(*Publisher)

func WithLogger(l *logrus.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLoadTimeout bounds provisioning plus fetch for one transition, and a
// single Refresh. Non-positive values keep the default.
func WithLoadTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.loadTimeout = d
		}
	}
}

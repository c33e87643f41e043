package mailer

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-appointment-auth/pkg/mailer/templates"
)

// Sender delivers one rendered message. *Mailgun implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Disposition tells the consumer loop what to do with a delivery.
type Disposition int

const (
	Ack     Disposition = iota
	Discard             // nack without requeue: the message can never succeed
	Requeue             // nack with requeue: transient send failure
)

// Worker turns queued EmailJobs into sent mail.
type Worker struct {
	Sender      Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

func NewWorker(s Sender, logger *logrus.Logger) *Worker {
	return &Worker{Sender: s, Logger: logger, SendTimeout: 15 * time.Second}
}

// Handle decodes, renders and sends a single job.
func (w *Worker) Handle(ctx context.Context, body []byte) Disposition {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.warn(err, "", "bad email job")
		return Discard
	}
	if job.To == "" {
		w.warn(nil, job.Template, "email job without recipient")
		return Discard
	}
	job.EnsureRecipient()

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			w.warn(err, job.Template, "render email failed")
			return Discard
		}
		subject, text, html = s, t, h
	}

	c, cancel := context.WithTimeout(ctx, w.SendTimeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		w.warn(err, job.Template, "send email failed")
		return Requeue
	}
	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	}
	return Ack
}

// Run consumes msgs until the channel closes or ctx is done.
func (w *Worker) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch w.Handle(ctx, msg.Body) {
			case Ack:
				_ = msg.Ack(false)
			case Discard:
				_ = msg.Nack(false, false)
			case Requeue:
				_ = msg.Nack(false, true)
			}
		}
	}
}

func (w *Worker) warn(err error, template, msg string) {
	if w.Logger == nil {
		return
	}
	entry := w.Logger.WithField("template", template)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
}

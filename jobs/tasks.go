package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/quillpress/quillpress/internal/jobs"
	"github.com/quillpress/quillpress/internal/mailer"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeTokenSweep is the task type for clearing expired
	// verification and reset tokens.
	TaskTypeTokenSweep = "tokens:sweep"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewTokenSweepTask constructs the nightly sweep task.
func NewTokenSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeTokenSweep, nil)
}

// NewSendEmailHandler builds the handler that delivers queued emails over
// SMTP.
func NewSendEmailHandler(m *mailer.Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeSendEmail)
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		if err := m.Send(payload.To, payload.Subject, payload.Body); err != nil {
			logger.Error("send email", slog.String("subject", payload.Subject), slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("email sent", slog.String("subject", payload.Subject))
		return tracker.End(nil)
	}
}

// NewTokenSweepHandler builds the handler that nulls out expired
// verification and reset tokens so stale links stop resolving.
func NewTokenSweepHandler(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeTokenSweep)
		tag, err := pool.Exec(ctx, `
			UPDATE users SET
				verification_token = NULL, verification_token_expires = NULL
			WHERE verification_token IS NOT NULL AND verification_token_expires < NOW()`)
		if err != nil {
			return tracker.End(err)
		}
		swept := tag.RowsAffected()
		tag, err = pool.Exec(ctx, `
			UPDATE users SET
				reset_token = NULL, reset_token_expires = NULL
			WHERE reset_token IS NOT NULL AND reset_token_expires < NOW()`)
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("token sweep",
			slog.Int64("verification", swept),
			slog.Int64("reset", tag.RowsAffected()))
		return tracker.End(nil)
	}
}

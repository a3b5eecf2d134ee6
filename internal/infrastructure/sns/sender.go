package sns

import (
	"context"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/geooptima/backend/internal/config"
)

// SMSSender delivers a message to a phone number out-of-band.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type sender struct {
	client *sns.Client
}

// NewSender builds an AWS SNS backed SMSSender.
func NewSender(cfg *config.Config) (SMSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	return err
}

// LogSender writes messages to the log instead of sending them. Used in
// development so the code can be read off the console and typed into the app.
type LogSender struct{}

func (LogSender) SendSMS(_ context.Context, to, message string) error {
	slog.Info("sms (log delivery)", "to", to, "message", message)
	return nil
}

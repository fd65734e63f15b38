package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/crudkit/identity/internal/domain"
	pkgkafka "github.com/crudkit/identity/pkg/kafka"
)

// Kafka topic constants for identity domain events. The notification service
// consumes these to send the corresponding emails.
const (
	TopicUserRegistered    = "identity.user.registered"
	TopicUserPasswordReset = "identity.user.password_reset"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from the identity service.
const SourceIdentityService = "identity-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// UserPasswordResetData is the payload for a user.password_reset event. The
// reset token travels only on this internal topic so the mailer can build
// the reset link; it is never returned over HTTP.
type UserPasswordResetData struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// Producer publishes identity domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the identity service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.RoleName,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, strconv.FormatInt(user.ID, 10), AggregateTypeUser, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishUserPasswordReset publishes a user.password_reset event.
func (p *Producer) PublishUserPasswordReset(ctx context.Context, userID int64, email, resetToken string) error {
	data := UserPasswordResetData{
		UserID:     userID,
		Email:      email,
		ResetToken: resetToken,
	}

	event, err := pkgkafka.NewEvent(TopicUserPasswordReset, strconv.FormatInt(userID, 10), AggregateTypeUser, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create user.password_reset event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserPasswordReset, event); err != nil {
		return fmt.Errorf("publish user.password_reset event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.password_reset event",
		slog.Int64("user_id", userID),
	)

	return nil
}

// Package notify implements domain.Notifier.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/msomdec/accountd/internal/domain"
)

// LogNotifier records token issuance in the log instead of delivering it.
// Tokens are only written at debug level.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier writing to logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) VerificationIssued(ctx context.Context, user *domain.User, token string) error {
	n.logger.Info("verification token issued", zap.String("user_id", user.ID))
	n.logger.Debug("verification token", zap.String("email", user.Email), zap.String("token", token))
	return nil
}

func (n *LogNotifier) PasswordResetIssued(ctx context.Context, ticket *domain.ResetTicket) error {
	n.logger.Info("password reset token issued", zap.Time("expires_at", ticket.ExpiresAt))
	n.logger.Debug("password reset token", zap.String("email", ticket.Email), zap.String("token", ticket.Token))
	return nil
}

package notification

import (
	"context"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
)

// LogNotifier writes notifications to the application log
type LogNotifier struct {
	logger coreport.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger coreport.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ notification.Notifier = (*LogNotifier)(nil)

// Notify logs n at info level
func (n *LogNotifier) Notify(_ context.Context, msg notification.Notification) error {
	n.logger.Info("Notification", map[string]any{
		"user_id": msg.UserID.String(),
		"kind":    string(msg.Kind),
		"title":   msg.Title,
		"message": msg.Message,
	})
	return nil
}

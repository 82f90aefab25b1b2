package notification

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/memory"
	timeprovider "github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/time"
)

type recordingSender struct {
	sent []*gomail.Message
}

func (r *recordingSender) DialAndSend(m ...*gomail.Message) error {
	r.sent = append(r.sent, m...)
	return nil
}

func newUser(t *testing.T, uow *memory.UnitOfWork, phone, email string) *entity.User {
	t.Helper()
	user, err := entity.NewUser(entity.NewUserParams{FullName: "Rahim Uddin", Phone: phone, Email: email}, time.Now())
	require.NoError(t, err)
	require.NoError(t, uow.GetUserRepository(context.Background()).Create(context.Background(), user))
	return user
}

func TestEmailNotifier(t *testing.T) {
	uow := memory.NewUnitOfWork(memory.NewStore(timeprovider.NewRealTimeProvider()))
	sender := &recordingSender{}
	notifier := NewEmailNotifierWithSender(sender, "ledger@example.com", uow, logger.NewNoopLogger())
	ctx := context.Background()

	t.Run("sends to the address on file", func(t *testing.T) {
		user := newUser(t, uow, "01711111111", "rahim@example.com")

		err := notifier.Notify(ctx, notification.Notification{
			UserID:  user.ID,
			Kind:    notification.KindDepositVerified,
			Title:   "Deposit verified",
			Message: "Your deposit of 500.00 was credited.",
		})
		require.NoError(t, err)
		require.Len(t, sender.sent, 1)

		msg := sender.sent[0]
		assert.Equal(t, []string{"Deposit verified"}, msg.GetHeader("Subject"))
		assert.Contains(t, msg.GetHeader("To")[0], "rahim@example.com")

		var body bytes.Buffer
		_, err = msg.WriteTo(&body)
		require.NoError(t, err)
		assert.Contains(t, body.String(), "500.00 was credited")
	})

	t.Run("skips users without email", func(t *testing.T) {
		sender.sent = nil
		user := newUser(t, uow, "01722222222", "")

		require.NoError(t, notifier.Notify(ctx, notification.Notification{UserID: user.ID, Message: "hi"}))
		assert.Empty(t, sender.sent)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := notifier.Notify(ctx, notification.Notification{UserID: uuid.New(), Message: "hi"})
		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})
}

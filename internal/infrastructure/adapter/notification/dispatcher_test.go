package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// blockingNotifier holds every delivery until release is closed
type blockingNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	seen    int
}

func (b *blockingNotifier) Notify(ctx context.Context, _ notification.Notification) error {
	<-b.release
	b.mu.Lock()
	b.seen++
	b.mu.Unlock()
	return nil
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	next := new(mockNotifier)
	userID := uuid.New()

	var mu sync.Mutex
	var kinds []notification.Kind
	next.On("Notify", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		kinds = append(kinds, args.Get(1).(notification.Notification).Kind)
		mu.Unlock()
	}).Return(nil)

	d := NewDispatcher(next, DispatcherConfig{QueueSize: 8}, logger.NewNoopLogger())

	require.NoError(t, d.Notify(context.Background(), notification.Notification{UserID: userID, Kind: notification.KindDepositVerified}))
	require.NoError(t, d.Notify(context.Background(), notification.Notification{UserID: userID, Kind: notification.KindProfitCredited}))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, []notification.Kind{notification.KindDepositVerified, notification.KindProfitCredited}, kinds)
	next.AssertNumberOfCalls(t, "Notify", 2)
}

func TestDispatcher_DeliveryFailureIsSwallowed(t *testing.T) {
	next := new(mockNotifier)
	next.On("Notify", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	next.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()

	d := NewDispatcher(next, DispatcherConfig{QueueSize: 4}, logger.NewNoopLogger())

	require.NoError(t, d.Notify(context.Background(), notification.Notification{UserID: uuid.New()}))
	require.NoError(t, d.Notify(context.Background(), notification.Notification{UserID: uuid.New()}))
	require.NoError(t, d.Close(context.Background()))

	next.AssertNumberOfCalls(t, "Notify", 2)
}

func TestDispatcher_QueueFullAndClosed(t *testing.T) {
	next := &blockingNotifier{release: make(chan struct{})}
	d := NewDispatcher(next, DispatcherConfig{QueueSize: 1}, logger.NewNoopLogger())
	ctx := context.Background()

	// the worker takes the first item and blocks on it; the second fills the queue
	require.NoError(t, d.Notify(ctx, notification.Notification{UserID: uuid.New()}))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Notify(ctx, notification.Notification{UserID: uuid.New()}))

	assert.ErrorIs(t, d.Notify(ctx, notification.Notification{UserID: uuid.New()}), ErrQueueFull)

	close(next.release)
	require.NoError(t, d.Close(ctx))
	assert.ErrorIs(t, d.Notify(ctx, notification.Notification{UserID: uuid.New()}), ErrDispatcherClosed)

	next.mu.Lock()
	defer next.mu.Unlock()
	assert.Equal(t, 2, next.seen)
}

func TestDispatcher_CloseHonoursDeadline(t *testing.T) {
	next := &blockingNotifier{release: make(chan struct{})}
	defer close(next.release)

	d := NewDispatcher(next, DispatcherConfig{QueueSize: 2}, logger.NewNoopLogger())
	require.NoError(t, d.Notify(context.Background(), notification.Notification{UserID: uuid.New()}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}

package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
)

// Serializer defaults
const (
	// DefaultQueueSize is the per-user backlog before callers block
	DefaultQueueSize = 100
	// DefaultIdleTimeout is how long a user's worker waits for work before exiting
	DefaultIdleTimeout = time.Minute
)

// ErrSerializerClosed is returned for work submitted after Shutdown
var ErrSerializerClosed = errors.New("user serializer is shut down")

// Task is a unit of work run on behalf of one user
type Task func(ctx context.Context) error

// UserSerializer runs tasks for the same user strictly one at a time, in arrival order.
// Tasks of different users run concurrently. A user's worker exits after
// idleTimeout without work and is restarted by the next task.
type UserSerializer struct {
	logger      coreport.Logger
	queueSize   int
	idleTimeout time.Duration

	// mu guards userQueues and every queue's pending count
	mu             sync.Mutex
	userQueues     map[uuid.UUID]*userQueue
	queueWaitGroup sync.WaitGroup

	// closeMu keeps Shutdown from closing a queue while a send is in flight
	closeMu sync.RWMutex
	closed  bool
}

// userQueue is one user's task channel. pending counts tasks handed to the
// channel and not yet finished; the worker only retires at zero.
type userQueue struct {
	tasks   chan *serialTask
	pending int
}

// serialTask represents a queued task
type serialTask struct {
	ctx        context.Context
	fn         Task
	resultChan chan error
}

// NewUserSerializer creates a new serializer
func NewUserSerializer(logger coreport.Logger, queueSize int) *UserSerializer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &UserSerializer{
		logger:      logger,
		queueSize:   queueSize,
		idleTimeout: DefaultIdleTimeout,
		userQueues:  make(map[uuid.UUID]*userQueue),
	}
}

// WithIdleTimeout sets how long an idle user worker is kept
func (s *UserSerializer) WithIdleTimeout(d time.Duration) *UserSerializer {
	if d > 0 {
		s.idleTimeout = d
	}
	return s
}

// Do queues fn behind earlier work for userID and waits for its result.
// fn must not call Do for the same user.
func (s *UserSerializer) Do(ctx context.Context, userID uuid.UUID, fn Task) error {
	resultChan := make(chan error, 1)
	task := &serialTask{ctx: ctx, fn: fn, resultChan: resultChan}

	if err := s.enqueue(ctx, userID, task); err != nil {
		return err
	}

	// Wait for result
	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		s.logger.Warn("Context canceled while waiting for serialized task", map[string]any{
			"user_id": userID.String(),
			"error":   ctx.Err().Error(),
		})
		return ctx.Err()
	}
}

func (s *UserSerializer) enqueue(ctx context.Context, userID uuid.UUID, task *serialTask) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()

	if s.closed {
		return ErrSerializerClosed
	}

	// Get or create queue for this user; the pending count pins it while we send
	s.mu.Lock()
	queue, ok := s.userQueues[userID]
	if !ok {
		queue = &userQueue{tasks: make(chan *serialTask, s.queueSize)}
		s.userQueues[userID] = queue
		s.logger.Debug("Starting queue worker for user", map[string]any{
			"user_id": userID.String(),
		})
		s.queueWaitGroup.Add(1)
		go s.processUserTasks(userID, queue)
	}
	queue.pending++
	s.mu.Unlock()

	select {
	case queue.tasks <- task:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		queue.pending--
		s.mu.Unlock()
		s.logger.Warn("Context canceled while enqueueing task", map[string]any{
			"user_id": userID.String(),
			"error":   ctx.Err().Error(),
		})
		return ctx.Err()
	}
}

// processUserTasks is the worker goroutine for a user's queue
func (s *UserSerializer) processUserTasks(userID uuid.UUID, queue *userQueue) {
	defer s.queueWaitGroup.Done()

	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case task, ok := <-queue.tasks:
			if !ok {
				s.logger.Debug("Queue worker stopped", map[string]any{
					"user_id": userID.String(),
				})
				return
			}
			// the caller gave up while the task was queued
			if err := task.ctx.Err(); err != nil {
				task.resultChan <- err
			} else {
				task.resultChan <- s.run(task)
			}

			s.mu.Lock()
			queue.pending--
			s.mu.Unlock()
			idle.Reset(s.idleTimeout)

		case <-idle.C:
			s.mu.Lock()
			if queue.pending == 0 {
				delete(s.userQueues, userID)
				s.mu.Unlock()
				s.logger.Debug("Idle queue worker retired", map[string]any{
					"user_id": userID.String(),
				})
				return
			}
			s.mu.Unlock()
			idle.Reset(s.idleTimeout)
		}
	}
}

// activeWorkers returns the number of live user workers
func (s *UserSerializer) activeWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.userQueues)
}

func (s *UserSerializer) run(task *serialTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Serialized task panicked", map[string]any{"panic": r})
			err = errs.ErrInternalServer
		}
	}()
	return task.fn(task.ctx)
}

// Shutdown stops accepting work, drains queued tasks and stops all workers
func (s *UserSerializer) Shutdown() {
	s.logger.Info("Shutting down user serializer", nil)

	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	s.mu.Lock()
	for userID, queue := range s.userQueues {
		close(queue.tasks)
		delete(s.userQueues, userID)
	}
	s.mu.Unlock()
	s.closeMu.Unlock()

	// Wait for all workers to finish
	s.queueWaitGroup.Wait()
	s.logger.Info("User serializer shut down", nil)
}

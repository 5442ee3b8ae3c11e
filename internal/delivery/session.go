package delivery

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/notification"
	"github.com/fjod/bakehouse/internal/toast"
)

// Session is one live client view of a user's notifications.
type Session struct {
	userID string
	repo   Notifications
	logger *slog.Logger

	mu          sync.Mutex
	known       map[string]struct{}
	list        []domain.UserNotification // newest first
	pending     []domain.UserNotification // delivered, not yet drained; oldest first
	toasts      *toast.Queue
	toastsDirty atomic.Bool
	wake        chan struct{}
	done        chan struct{}
	unsubscribe func()
	closed      bool
}

func (s *Session) UserID() string {
	return s.userID
}

// Deliver offers a candidate notification. It reports true only the first
// time an id is seen; candidates for other users are dropped.
func (s *Session) Deliver(n domain.UserNotification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || n.UserID != s.userID {
		return false
	}
	if _, seen := s.known[n.ID]; seen {
		return false
	}

	s.known[n.ID] = struct{}{}
	s.list = slices.Insert(s.list, 0, n)
	s.toasts.Enqueue(toast.Item{
		ID:          n.ID,
		Message:     n.Message,
		OrderID:     n.OrderID,
		OrderStatus: n.OrderStatus,
	})

	s.pending = append(s.pending, n)
	s.signal()
	s.logger.Debug("notification delivered", "notification_id", n.ID)
	return true
}

// Wake fires after new deliveries or toast changes. Several events may
// collapse into one wake-up; consumers call Drain and ToastChange each time.
func (s *Session) Wake() <-chan struct{} {
	return s.wake
}

// Done is closed by Close.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Drain returns the notifications delivered since the previous call, oldest
// first.
func (s *Session) Drain() []domain.UserNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// ToastChange reports the visible toasts when they changed since the
// previous call.
func (s *Session) ToastChange() ([]toast.Item, bool) {
	if !s.toastsDirty.Swap(false) {
		return nil, false
	}
	return s.toasts.Items(), true
}

func (s *Session) toastsChanged() {
	s.toastsDirty.Store(true)
	s.signal()
}

// signal never blocks; wake holds at most one pending wake-up.
func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Notifications returns the session's list, newest first.
func (s *Session) Notifications() []domain.UserNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.list)
}

func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return notification.CountUnread(s.list)
}

func (s *Session) Toasts() []toast.Item {
	return s.toasts.Items()
}

func (s *Session) DismissToast(id string) {
	s.toasts.Dismiss(id)
}

// MarkRead persists first and only then flips the local copy.
func (s *Session) MarkRead(ctx context.Context, id string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		if s.list[i].ID == id {
			s.list[i].IsRead = true
		}
	}
	return nil
}

func (s *Session) MarkAllRead(ctx context.Context) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.repo.MarkAllRead(ctx, s.userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		s.list[i].IsRead = true
	}
	return nil
}

// Close unsubscribes and discards session state. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.known = nil
	s.list = nil
	s.pending = nil
	close(s.done)
	s.mu.Unlock()

	// outside the lock: a bus may be mid-callback into Deliver
	if unsub != nil {
		unsub()
	}
	s.toasts.Close()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

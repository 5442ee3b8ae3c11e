package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/fjod/bakehouse/internal/delivery"
	"github.com/fjod/bakehouse/internal/domain"
	"github.com/fjod/bakehouse/internal/notification"
	"github.com/fjod/bakehouse/internal/toast"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	ServiceName      = "bakery.NotificationStream"
	subscribeMethod  = "/" + ServiceName + "/Subscribe"
	metadataUserID   = "user-id"
	metadataRole     = "role"
	metadataUserName = "user-name"
)

type SubscribeRequest struct {
	// IncludeExisting replays stored notifications, oldest first, before
	// live ones.
	IncludeExisting bool `json:"include_existing"`
}

type EventKind string

const (
	EventNotification EventKind = "notification"
	// EventToasts carries the full set of visible toasts after one was
	// shown, dismissed or expired.
	EventToasts EventKind = "toasts"
)

type Event struct {
	Kind         EventKind                `json:"kind"`
	Notification *domain.UserNotification `json:"notification,omitempty"`
	Title        string                   `json:"title,omitempty"`
	Toasts       []toast.Item             `json:"toasts,omitempty"`
	Unread       int                      `json:"unread"`
	Existing     bool                     `json:"existing,omitempty"`
}

type NotificationStreamServer interface {
	Subscribe(req *SubscribeRequest, stream grpc.ServerStream) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NotificationStreamServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "bakery/notification_stream",
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	req := new(SubscribeRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(NotificationStreamServer).Subscribe(req, stream)
}

// Sessions is implemented by delivery.Channel.
type Sessions interface {
	Open(ctx context.Context, id domain.Identity) (*delivery.Session, error)
}

// NotificationServer streams each notification newly delivered to the
// caller's session for as long as the stream stays open.
type NotificationServer struct {
	sessions Sessions
	logger   *slog.Logger
}

func NewNotificationServer(sessions Sessions, logger *slog.Logger) *NotificationServer {
	return &NotificationServer{sessions: sessions, logger: logger}
}

func (s *NotificationServer) Subscribe(req *SubscribeRequest, stream grpc.ServerStream) error {
	ctx := stream.Context()
	id, err := identityFromMetadata(ctx)
	if err != nil {
		return err
	}

	sess, err := s.sessions.Open(ctx, id)
	if errors.Is(err, delivery.ErrNotDeliverable) {
		return status.Error(codes.PermissionDenied, "notifications are only delivered to customers")
	}
	if err != nil {
		return status.Errorf(codes.Internal, "failed to open session: %v", err)
	}
	defer sess.Close()
	s.logger.InfoContext(ctx, "notification stream opened", "user_id", id.UserID)

	if req.IncludeExisting {
		existing := sess.Notifications()
		unread := notification.CountUnread(existing)
		for i := len(existing) - 1; i >= 0; i-- {
			if err := stream.SendMsg(newEvent(existing[i], unread, true)); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "notification stream closed", "user_id", id.UserID)
			return nil
		case <-sess.Done():
			return nil
		case <-sess.Wake():
			if err := flush(stream, sess); err != nil {
				return err
			}
		}
	}
}

// flush sends everything delivered since the last wake-up, then the toast
// set if it changed.
func flush(stream grpc.ServerStream, sess *delivery.Session) error {
	for _, n := range sess.Drain() {
		if err := stream.SendMsg(newEvent(n, sess.UnreadCount(), false)); err != nil {
			return err
		}
	}
	if toasts, changed := sess.ToastChange(); changed {
		ev := &Event{Kind: EventToasts, Toasts: toasts, Unread: sess.UnreadCount()}
		if err := stream.SendMsg(ev); err != nil {
			return err
		}
	}
	return nil
}

func newEvent(n domain.UserNotification, unread int, existing bool) *Event {
	return &Event{
		Kind:         EventNotification,
		Notification: &n,
		Title:        notification.Title(n.OrderStatus),
		Unread:       unread,
		Existing:     existing,
	}
}

func identityFromMetadata(ctx context.Context) (domain.Identity, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.Identity{}, status.Error(codes.Unauthenticated, "missing metadata")
	}
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	userID := first(metadataUserID)
	if userID == "" || userID == domain.GuestUserID {
		return domain.Identity{}, status.Error(codes.Unauthenticated, "missing user-id")
	}
	id := domain.Identity{UserID: userID, Role: domain.RoleCustomer, Name: first(metadataUserName)}
	if strings.EqualFold(first(metadataRole), string(domain.RoleAdmin)) {
		id.Role = domain.RoleAdmin
	}
	return id, nil
}

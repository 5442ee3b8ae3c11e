package grpc

import (
	"context"
	"errors"
	"io"

	"github.com/fjod/bakehouse/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Watch subscribes as userID and calls fn for every event until ctx is
// cancelled, the server ends the stream, or fn returns an error.
func Watch(ctx context.Context, conn grpc.ClientConnInterface, who domain.Identity, includeExisting bool, fn func(Event) error) error {
	ctx = metadata.AppendToOutgoingContext(ctx,
		metadataUserID, who.UserID,
		metadataRole, string(who.Role),
		metadataUserName, who.Name,
	)

	stream, err := conn.NewStream(ctx, &ServiceDesc.Streams[0], subscribeMethod, grpc.CallContentSubtype(codecName))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&SubscribeRequest{IncludeExisting: includeExisting}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		var ev Event
		if err := stream.RecvMsg(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if status.Code(err) == codes.Canceled && ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

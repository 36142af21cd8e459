package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session"
)

// RemoteClient is a client for the remote control service.
type RemoteClient struct {
	getStatus *connect.Client[emptypb.Empty, structpb.Struct]
	control   *connect.Client[structpb.Struct, structpb.Struct]
	subscribe *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewRemoteClient creates a client for the service at baseURL.
func NewRemoteClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *RemoteClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append(opts, connect.WithInterceptors(NewClientAuthInterceptor(token)))

	return &RemoteClient{
		getStatus: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStatusProcedure, opts...),
		control:   connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ControlProcedure, opts...),
		subscribe: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+SubscribeProcedure, opts...),
	}
}

// GetStatus returns the player status.
func (c *RemoteClient) GetStatus(ctx context.Context) (session.Status, error) {
	resp, err := c.getStatus.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return session.Status{}, errors.Wrap(err, "failed to get status")
	}
	return session.ParseStatus(resp.Msg), nil
}

// Control sends a command and returns the server's message.
func (c *RemoteClient) Control(ctx context.Context, cmd playback.Command) (string, error) {
	resp, err := c.control.CallUnary(ctx, connect.NewRequest(CommandRequest(cmd)))
	if err != nil {
		return "", errors.Wrapf(err, "failed to send %s", cmd.Kind)
	}
	return resp.Msg.GetFields()["message"].GetStringValue(), nil
}

// Subscribe streams notifications to fn until ctx is cancelled, the stream
// ends or fn returns an error.
func (c *RemoteClient) Subscribe(ctx context.Context, fn func(*structpb.Struct) error) error {
	stream, err := c.subscribe.CallServerStream(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return errors.Wrap(err, "failed to subscribe")
	}
	defer stream.Close()

	for stream.Receive() {
		if err := fn(stream.Msg()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "notification stream failed")
	}
	return nil
}

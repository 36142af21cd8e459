// Package connect provides the Connect RPC remote control service.
package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session"
)

const (
	// RemoteServiceName is the fully-qualified name of the remote service.
	RemoteServiceName = "vinylbox.remote.v1.RemoteService"

	// GetStatusProcedure returns the player status.
	GetStatusProcedure = "/" + RemoteServiceName + "/GetStatus"
	// ControlProcedure applies a player command.
	ControlProcedure = "/" + RemoteServiceName + "/Control"
	// SubscribeProcedure streams player notifications.
	SubscribeProcedure = "/" + RemoteServiceName + "/Subscribe"
)

// RemoteService implements the remote control RPC.
type RemoteService struct {
	session *session.Manager
}

// NewRemoteService creates a new RemoteService.
func NewRemoteService(session *session.Manager) *RemoteService {
	return &RemoteService{
		session: session,
	}
}

// NewRemoteServiceHandler builds an HTTP handler serving every procedure of
// the service. It returns the path on which to mount the handler.
func NewRemoteServiceHandler(svc *RemoteService, opts ...connect.HandlerOption) (string, http.Handler) {
	getStatus := connect.NewUnaryHandler(GetStatusProcedure, svc.GetStatus, opts...)
	control := connect.NewUnaryHandler(ControlProcedure, svc.Control, opts...)
	subscribe := connect.NewServerStreamHandler(SubscribeProcedure, svc.Subscribe, opts...)

	return "/" + RemoteServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GetStatusProcedure:
			getStatus.ServeHTTP(w, r)
		case ControlProcedure:
			control.ServeHTTP(w, r)
		case SubscribeProcedure:
			subscribe.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// GetStatus returns the current player status.
func (s *RemoteService) GetStatus(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	resp, err := structpb.NewStruct(session.StatusFields(s.session.GetStatus()))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(resp), nil
}

// Control applies a player command.
// The request carries "command" and, depending on it, "index" or "value".
func (s *RemoteService) Control(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	cmd, err := ParseCommand(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.session.Dispatch(cmd); err != nil {
		switch {
		case errors.Is(err, session.ErrNotReady), errors.Is(err, session.ErrNotAttached), errors.Is(err, session.ErrSessionEnded):
			return nil, connect.NewError(connect.CodeUnavailable, err)
		default:
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}

	zlog.Info().Msgf("remote: command accepted: %s", cmd.Kind)
	return connect.NewResponse(controlResult(true, "Command accepted: "+cmd.Kind.String())), nil
}

// Subscribe streams the initial state followed by player notifications.
func (s *RemoteService) Subscribe(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	subscriptionID, err := s.session.Subscribe(stream)
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	defer s.session.Unsubscribe(subscriptionID)

	// Wait for client disconnect, session end or subscriber eviction
	select {
	case <-ctx.Done():
	case <-s.session.Done():
	case <-s.session.SubscriptionGone(subscriptionID):
		return connect.NewError(connect.CodeResourceExhausted, errors.New("subscriber fell behind"))
	}
	return nil
}

// ParseCommand converts a Control request into a player command.
func ParseCommand(msg *structpb.Struct) (playback.Command, error) {
	f := msg.GetFields()
	name := f["command"].GetStringValue()
	kind, ok := playback.ParseCommandKind(name)
	if !ok {
		return playback.Command{}, errors.Newf("unknown command %q", name)
	}

	cmd := playback.Command{Kind: kind}
	switch kind {
	case playback.CommandPlay:
		v, ok := f["index"]
		if !ok {
			return playback.Command{}, errors.New("play requires an index")
		}
		cmd.Index = int(v.GetNumberValue())
	case playback.CommandSetVolume, playback.CommandSeek:
		v, ok := f["value"]
		if !ok {
			return playback.Command{}, errors.Newf("%s requires a value", kind)
		}
		cmd.Value = v.GetNumberValue()
	}
	return cmd, nil
}

// CommandRequest builds a Control request for cmd.
func CommandRequest(cmd playback.Command) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"command": structpb.NewStringValue(cmd.Kind.String()),
	}
	switch cmd.Kind {
	case playback.CommandPlay:
		fields["index"] = structpb.NewNumberValue(float64(cmd.Index))
	case playback.CommandSetVolume, playback.CommandSeek:
		fields["value"] = structpb.NewNumberValue(cmd.Value)
	}
	return &structpb.Struct{Fields: fields}
}

func controlResult(success bool, message string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"success": structpb.NewBoolValue(success),
		"message": structpb.NewStringValue(message),
	}}
}

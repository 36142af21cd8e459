package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
)

const (
	// RemoteTokenHeader is the header name for the remote control token.
	RemoteTokenHeader = "X-Remote-Token"
)

// tokenInterceptor attaches the remote token on the client side and
// validates it on the handler side, for unary and streaming calls alike.
type tokenInterceptor struct {
	token string
}

// NewRemoteAuthInterceptor creates an interceptor that validates the remote
// token of every incoming call.
func NewRemoteAuthInterceptor(token string) connect.Interceptor {
	return &tokenInterceptor{token: token}
}

// NewClientAuthInterceptor creates an interceptor that sends token with every call.
func NewClientAuthInterceptor(token string) connect.Interceptor {
	return &tokenInterceptor{token: token}
}

func (i *tokenInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			req.Header().Set(RemoteTokenHeader, i.token)
			return next(ctx, req)
		}
		if err := i.check(req.Header().Get(RemoteTokenHeader)); err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *tokenInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		conn.RequestHeader().Set(RemoteTokenHeader, i.token)
		return conn
	}
}

func (i *tokenInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if err := i.check(conn.RequestHeader().Get(RemoteTokenHeader)); err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

func (i *tokenInterceptor) check(token string) error {
	if token == "" || i.token == "" {
		return connect.NewError(connect.CodeUnauthenticated, nil)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(i.token)) != 1 {
		return connect.NewError(connect.CodeUnauthenticated, nil)
	}
	return nil
}

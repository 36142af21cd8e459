package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/vinylbox/internal/app/notification"
	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session"
	"github.com/osa030/vinylbox/internal/app/session/state"
)

const testToken = "s3cret"

type commandLog struct {
	mu   sync.Mutex
	cmds []playback.Command
}

func (l *commandLog) send(cmd playback.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cmds = append(l.cmds, cmd)
}

func (l *commandLog) all() []playback.Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]playback.Command(nil), l.cmds...)
}

func newTestServer(t *testing.T) (*session.Manager, *commandLog, *httptest.Server) {
	t.Helper()
	mgr := session.NewManager()
	mgr.State().SetLoading("songs.json")
	mgr.State().SetLoaded(3)
	log := &commandLog{}
	mgr.Attach(log.send)

	ctx, cancel := context.WithCancel(context.Background())
	go mgr.Run(ctx)

	path, handler := NewRemoteServiceHandler(
		NewRemoteService(mgr),
		connect.WithInterceptors(NewRemoteAuthInterceptor(testToken)),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		mgr.Stop()
		cancel()
		server.Close()
	})
	return mgr, log, server
}

func TestRemoteService_GetStatus(t *testing.T) {
	mgr, _, server := newTestServer(t)
	mgr.Publish(playback.Snapshot{Index: 1, TrackName: "Second", TrackCount: 3, Playing: true, Volume: 0.7, Duration: 200})

	client := NewRemoteClient(server.Client(), server.URL, testToken)
	status, err := client.GetStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, state.PhaseReady, status.Info.Phase)
	assert.Equal(t, "songs.json", status.Info.Source)
	assert.Equal(t, 1, status.Snapshot.Index)
	assert.Equal(t, "Second", status.Snapshot.TrackName)
	assert.True(t, status.Snapshot.Playing)
	assert.Equal(t, 200.0, status.Snapshot.Duration)
}

func TestRemoteService_Unauthenticated(t *testing.T) {
	_, log, server := newTestServer(t)

	for _, token := range []string{"", "wrong"} {
		client := NewRemoteClient(server.Client(), server.URL, token)

		_, err := client.GetStatus(context.Background())
		require.Error(t, err)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

		_, err = client.Control(context.Background(), playback.Command{Kind: playback.CommandNext})
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

		err = client.Subscribe(context.Background(), func(*structpb.Struct) error { return nil })
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	}
	assert.Empty(t, log.all())
}

func TestRemoteService_Control(t *testing.T) {
	_, log, server := newTestServer(t)
	client := NewRemoteClient(server.Client(), server.URL, testToken)
	ctx := context.Background()

	msg, err := client.Control(ctx, playback.Command{Kind: playback.CommandTogglePlay})
	require.NoError(t, err)
	assert.Equal(t, "Command accepted: toggle", msg)

	_, err = client.Control(ctx, playback.Command{Kind: playback.CommandPlay, Index: 2})
	require.NoError(t, err)
	_, err = client.Control(ctx, playback.Command{Kind: playback.CommandSetVolume, Value: 0.25})
	require.NoError(t, err)

	assert.Equal(t, []playback.Command{
		{Kind: playback.CommandTogglePlay},
		{Kind: playback.CommandPlay, Index: 2},
		{Kind: playback.CommandSetVolume, Value: 0.25},
	}, log.all())
}

func TestRemoteService_ControlInvalid(t *testing.T) {
	_, log, server := newTestServer(t)
	httpClient := server.Client()

	raw := connect.NewClient[structpb.Struct, structpb.Struct](
		httpClient, server.URL+ControlProcedure,
		connect.WithInterceptors(NewClientAuthInterceptor(testToken)),
	)

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{name: "unknown command", fields: map[string]any{"command": "rewind"}},
		{name: "play without index", fields: map[string]any{"command": "play"}},
		{name: "volume without value", fields: map[string]any{"command": "volume"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)
			_, err = raw.CallUnary(context.Background(), connect.NewRequest(req))
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		})
	}
	assert.Empty(t, log.all())
}

func TestRemoteService_ControlNotReady(t *testing.T) {
	mgr, _, server := newTestServer(t)
	mgr.State().SetFailed("catalog request failed: 500 Internal Server Error")

	client := NewRemoteClient(server.Client(), server.URL, testToken)
	_, err := client.Control(context.Background(), playback.Command{Kind: playback.CommandNext})
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
}

func TestRemoteService_Subscribe(t *testing.T) {
	mgr, _, server := newTestServer(t)
	client := NewRemoteClient(server.Client(), server.URL, testToken)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *structpb.Struct, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Subscribe(ctx, func(n *structpb.Struct) error {
			received <- n
			if notification.Type(n) == notification.TypeTrackChanged {
				return errStop
			}
			return nil
		})
	}()

	initial := <-received
	assert.Equal(t, notification.TypeInitialState, notification.Type(initial))

	// The subscription is registered right after the initial state is sent.
	require.Eventually(t, func() bool {
		return mgr.GetNotificationManager().SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	mgr.Publish(playback.Snapshot{Index: 2, TrackName: "Third", TrackCount: 3})

	select {
	case n := <-received:
		assert.Equal(t, notification.TypeTrackChanged, notification.Type(n))
		assert.Equal(t, "Third", n.Fields["track_name"].GetStringValue())
		assert.Greater(t, notification.SequenceNo(n), notification.SequenceNo(initial))
	case <-ctx.Done():
		t.Fatal("timed out waiting for track change")
	}
	assert.ErrorIs(t, <-errCh, errStop)
}

var errStop = errors.New("stop")

func TestCommandRequestRoundTrip(t *testing.T) {
	for _, cmd := range []playback.Command{
		{Kind: playback.CommandNext},
		{Kind: playback.CommandPlay, Index: 4},
		{Kind: playback.CommandSeek, Value: 42.5},
		{Kind: playback.CommandCycleRepeat},
	} {
		got, err := ParseCommand(CommandRequest(cmd))
		require.NoError(t, err)
		assert.Equal(t, cmd, got)
	}
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"offertory/internal/log"
)

const waitFor = 2 * time.Second

type manualTimer struct {
	delay   time.Duration
	f       func()
	mu      sync.Mutex
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *manualTimer) Fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.f()
}

func (t *manualTimer) pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped && !t.fired
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) all() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*manualTimer(nil), c.timers...)
}

func (c *manualClock) pending() []*manualTimer {
	var out []*manualTimer
	for _, t := range c.all() {
		if t.pending() {
			out = append(out, t)
		}
	}
	return out
}

type fakeConn struct {
	in   chan []byte
	end  chan error
	done chan struct{}
	once sync.Once

	mu         sync.Mutex
	sent       [][]byte
	closedWith *CloseError
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:   make(chan []byte, 8),
		end:  make(chan error, 1),
		done: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-f.in:
		return data, nil
	case err := <-f.end:
		return nil, err
	case <-f.done:
		return nil, errors.New("use of closed network connection")
	}
}

func (f *fakeConn) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeConn) Close(code int, reason string) error {
	f.once.Do(func() {
		f.mu.Lock()
		f.closedWith = &CloseError{Code: code, Reason: reason}
		f.mu.Unlock()
		close(f.done)
	})
	return nil
}

func (f *fakeConn) peerClose(code int) {
	f.end <- &CloseError{Code: code, Reason: "peer"}
}

func (f *fakeConn) closed() *CloseError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closedWith
}

// fakeDialer hands out queued connections and refuses once the queue is empty.
type fakeDialer struct {
	mu    sync.Mutex
	urls  []string
	conns []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func newTestClient(t *testing.T, dialer *fakeDialer, clock *manualClock) *Client {
	t.Helper()
	c := New(Options{
		URL:    "ws://localhost:8000/ws/",
		Dialer: dialer,
		Clock:  clock,
		Logger: log.Discard(),
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitStatus(t *testing.T, c *Client, want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Status() == want }, waitFor, time.Millisecond,
		"status never became %s", want)
}

func waitPendingTimer(t *testing.T, clock *manualClock) *manualTimer {
	t.Helper()
	var timer *manualTimer
	require.Eventually(t, func() bool {
		p := clock.pending()
		if len(p) == 1 {
			timer = p[0]
			return true
		}
		return false
	}, waitFor, time.Millisecond)
	return timer
}

func TestClient_BackoffSchedule(t *testing.T) {
	clock := &manualClock{}
	dialer := &fakeDialer{}
	c := newTestClient(t, dialer, clock)

	require.NoError(t, c.Connect("42"))

	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}
	for _, d := range want {
		timer := waitPendingTimer(t, clock)
		require.Equal(t, d, timer.delay)
		require.Eventually(t, func() bool { return c.State().Reconnecting }, waitFor, time.Millisecond)
		timer.Fire()
	}

	require.Eventually(t, func() bool {
		s := c.State()
		return s.Attempt == 5 && s.Status == StatusDisconnected
	}, waitFor, time.Millisecond)

	require.Equal(t, 6, dialer.dials())
	require.Empty(t, clock.pending())
	require.Len(t, clock.all(), 5)
	require.False(t, c.State().Reconnecting)
	require.Equal(t, "ws://localhost:8000/ws/42", dialer.urls[0])
}

func TestClient_OpenResetsAttempts(t *testing.T) {
	clock := &manualClock{}
	first, second := newFakeConn(), newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{first, second}}
	c := newTestClient(t, dialer, clock)

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)

	first.peerClose(1006)
	timer := waitPendingTimer(t, clock)
	require.Equal(t, time.Second, timer.delay)
	waitStatus(t, c, StatusDisconnected)

	timer.Fire()
	waitStatus(t, c, StatusConnected)
	require.Equal(t, 0, c.State().Attempt)

	second.peerClose(1011)
	require.Eventually(t, func() bool { return len(clock.all()) == 2 && len(clock.pending()) == 1 }, waitFor, time.Millisecond)
	require.Equal(t, time.Second, clock.pending()[0].delay)
}

func TestClient_NormalCloseDoesNotRetry(t *testing.T) {
	clock := &manualClock{}
	conn := newFakeConn()
	c := newTestClient(t, &fakeDialer{conns: []*fakeConn{conn}}, clock)

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)

	conn.peerClose(CloseNormal)
	waitStatus(t, c, StatusDisconnected)
	require.Empty(t, clock.all())
}

func TestClient_DisconnectCancelsPendingReconnect(t *testing.T) {
	clock := &manualClock{}
	dialer := &fakeDialer{}
	c := newTestClient(t, dialer, clock)

	require.NoError(t, c.Connect("7"))
	timer := waitPendingTimer(t, clock)

	require.NoError(t, c.Disconnect())

	s := c.State()
	require.Equal(t, StatusDisconnected, s.Status)
	require.Equal(t, 0, s.Attempt)
	require.False(t, s.Reconnecting)
	require.Empty(t, clock.pending())

	// A fire racing the cancellation must be ignored.
	timer.f()
	require.Never(t, func() bool { return dialer.dials() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestClient_DisconnectClosesNormally(t *testing.T) {
	clock := &manualClock{}
	conn := newFakeConn()
	c := newTestClient(t, &fakeDialer{conns: []*fakeConn{conn}}, clock)

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)

	require.NoError(t, c.Disconnect())
	require.Equal(t, &CloseError{Code: CloseNormal, Reason: "User disconnect"}, conn.closed())
	require.Equal(t, StatusDisconnected, c.Status())

	// The reader notices the local close, but that close belongs to a
	// retired connection and must not schedule anything.
	require.Never(t, func() bool { return len(clock.all()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestClient_MessagesDecoding(t *testing.T) {
	clock := &manualClock{}
	conn := newFakeConn()
	c := newTestClient(t, &fakeDialer{conns: []*fakeConn{conn}}, clock)

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)

	conn.in <- []byte("{not json")
	conn.in <- []byte(`{"type":"mystery","timestamp":"2025-03-02T10:00:00Z"}`)
	conn.in <- []byte(`{"type":"receipt_generated","data":{"collection_id":3},"timestamp":"2025-03-02T10:01:00Z"}`)

	select {
	case msg := <-c.Messages():
		require.Equal(t, TypeReceiptGenerated, msg.Type)
		require.JSONEq(t, `{"collection_id":3}`, string(msg.Data))
	case <-time.After(waitFor):
		t.Fatal("no message delivered")
	}

	require.Eventually(t, func() bool {
		last := c.State().LastMessage
		return last != nil && last.Type == TypeReceiptGenerated
	}, waitFor, time.Millisecond)
	require.Equal(t, StatusConnected, c.Status())

	select {
	case msg := <-c.Messages():
		t.Fatalf("unexpected extra message %+v", msg)
	default:
	}
}

func TestClient_UnknownTypeRecordedAsLast(t *testing.T) {
	conn := newFakeConn()
	c := newTestClient(t, &fakeDialer{conns: []*fakeConn{conn}}, &manualClock{})

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)

	conn.in <- []byte(`{"type":"mystery","timestamp":"t"}`)
	require.Eventually(t, func() bool {
		last := c.State().LastMessage
		return last != nil && last.Type == "mystery"
	}, waitFor, time.Millisecond)

	select {
	case msg := <-c.Messages():
		t.Fatalf("unknown kind should not be delivered, got %+v", msg)
	default:
	}
}

func TestClient_Send(t *testing.T) {
	conn := newFakeConn()
	c := newTestClient(t, &fakeDialer{conns: []*fakeConn{conn}}, &manualClock{})

	// Not connected: dropped without error.
	require.NoError(t, c.Send(map[string]string{"type": "ping"}))

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)
	require.NoError(t, c.Send(map[string]string{"type": "ping"}))

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.sent, 1)
	var got map[string]string
	require.NoError(t, json.Unmarshal(conn.sent[0], &got))
	require.Equal(t, "ping", got["type"])
}

func TestClient_TransportErrorTriggersReconnect(t *testing.T) {
	clock := &manualClock{}
	conn := newFakeConn()
	c := newTestClient(t, &fakeDialer{conns: []*fakeConn{conn}}, clock)

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)

	conn.end <- errors.New("connection reset by peer")
	timer := waitPendingTimer(t, clock)
	require.Equal(t, time.Second, timer.delay)
	waitStatus(t, c, StatusDisconnected)
}

func TestClient_ConnectValidation(t *testing.T) {
	clock := &manualClock{}
	dialer := &fakeDialer{conns: []*fakeConn{newFakeConn()}}
	c := newTestClient(t, dialer, clock)

	require.ErrorIs(t, c.Connect(""), ErrNoUser)

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)
	require.NoError(t, c.Connect("7"))
	require.Equal(t, 1, dialer.dials())
}

func TestClient_Close(t *testing.T) {
	conn := newFakeConn()
	c := New(Options{URL: "ws://x/ws", Dialer: &fakeDialer{conns: []*fakeConn{conn}}, Clock: &manualClock{}, Logger: log.Discard()})

	require.NoError(t, c.Connect("7"))
	waitStatus(t, c, StatusConnected)

	require.NoError(t, c.Close())
	require.NotNil(t, conn.closed())
	require.ErrorIs(t, c.Connect("7"), ErrClosed)

	_, open := <-c.Messages()
	require.False(t, open)
}

func TestDecode(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"connection","message":"Connected","timestamp":"2025-03-02T10:00:00Z"}`))
	require.NoError(t, err)
	require.Equal(t, TypeConnection, msg.Type)
	require.Equal(t, "Connected", msg.Message)
	require.True(t, msg.Type.Known())

	_, err = Decode([]byte(`[1,2`))
	require.Error(t, err)

	require.False(t, MessageType("other").Known())
}

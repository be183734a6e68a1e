package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"offertory/internal/log"
)

var (
	ErrNoUser = errors.New("notify: user id is required")
	ErrClosed = errors.New("notify: client closed")
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second

	messageBuffer = 64
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// URL is the base endpoint; the user id is appended as a path segment.
	URL         string
	MaxAttempts int
	BaseDelay   time.Duration
	Dialer      Dialer
	Clock       Clock
	Logger      *log.Logger
}

// State is a point-in-time view of the client.
type State struct {
	Status       Status
	UserID       string
	Attempt      int
	Reconnecting bool
	LastMessage  *Message
}

// Connected reports whether the channel is open.
func (s State) Connected() bool { return s.Status == StatusConnected }

// Client maintains one notification channel per signed-in user. All mutable
// connection state is owned by a single event loop goroutine; the public
// methods post commands to it.
type Client struct {
	url         string
	maxAttempts int
	baseDelay   time.Duration
	dialer      Dialer
	clock       Clock
	logger      *log.Logger

	events   chan any
	messages chan Message
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	mu       sync.RWMutex
	snapshot State

	// loop-owned
	status     Status
	userID     string
	attempt    int
	conn       Conn
	gen        uint64
	cancelDial context.CancelFunc
	timer      Timer
	timerSeq   uint64
	last       *Message
}

type (
	connectCmd struct {
		userID string
		reply  chan error
	}
	disconnectCmd struct {
		reply chan error
	}
	sendCmd struct {
		payload []byte
		reply   chan error
	}
	openedEvent struct {
		gen  uint64
		conn Conn
	}
	frameEvent struct {
		gen  uint64
		data []byte
	}
	errorEvent struct {
		gen uint64
		err error
	}
	closedEvent struct {
		gen    uint64
		code   int
		reason string
	}
	retryEvent struct {
		seq uint64
	}
)

// New starts the client's event loop. Call Close to release it.
func New(opts Options) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = NewWebSocketDialer(10 * time.Second)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}

	c := &Client{
		url:         strings.TrimRight(opts.URL, "/"),
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		dialer:      opts.Dialer,
		clock:       opts.Clock,
		logger:      opts.Logger.WithComponent(log.ComponentNotify),
		events:      make(chan any),
		messages:    make(chan Message, messageBuffer),
		done:        make(chan struct{}),
		status:      StatusDisconnected,
	}
	c.snapshot = State{Status: StatusDisconnected}

	c.wg.Add(1)
	go c.run()
	return c
}

// Connect opens the channel for userID. Connecting again for the same user
// while a connection or retry is in flight is a no-op; a different user
// replaces the current connection.
func (c *Client) Connect(userID string) error {
	if userID == "" {
		return ErrNoUser
	}
	return c.call(func(reply chan error) any { return connectCmd{userID: userID, reply: reply} })
}

// Disconnect cancels any pending retry, closes the channel normally and
// resets the attempt counter.
func (c *Client) Disconnect() error {
	return c.call(func(reply chan error) any { return disconnectCmd{reply: reply} })
}

// Send writes v as JSON. When the channel is not open the message is dropped
// with a warning and Send returns nil.
func (c *Client) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode outgoing message: %w", err)
	}
	return c.call(func(reply chan error) any { return sendCmd{payload: payload, reply: reply} })
}

// Messages delivers decoded notifications of known kinds. It is closed by Close.
func (c *Client) Messages() <-chan Message {
	return c.messages
}

// State returns the latest snapshot published by the event loop.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Status is shorthand for State().Status.
func (c *Client) Status() Status {
	return c.State().Status
}

// Close stops the event loop, closing any open channel.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.wg.Wait()
		close(c.messages)
	})
	return nil
}

func (c *Client) call(build func(chan error) any) error {
	reply := make(chan error, 1)
	select {
	case c.events <- build(reply):
	case <-c.done:
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// post hands an event to the loop; false means the client is shutting down.
func (c *Client) post(ev any) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) run() {
	defer c.wg.Done()
	for {
		select {
		case ev := <-c.events:
			c.handle(ev)
			c.publish()
		case <-c.done:
			c.teardown("Client shutdown")
			c.status = StatusDisconnected
			c.publish()
			return
		}
	}
}

func (c *Client) handle(ev any) {
	switch ev := ev.(type) {
	case connectCmd:
		c.respond(ev.reply, c.onConnect(ev.userID))
	case disconnectCmd:
		c.teardown("User disconnect")
		c.userID = ""
		c.attempt = 0
		c.status = StatusDisconnected
		c.logger.Info("Notification channel disconnected by user")
		c.respond(ev.reply, nil)
	case sendCmd:
		c.respond(ev.reply, c.onSend(ev.payload))
	case openedEvent:
		c.onOpened(ev)
	case frameEvent:
		if ev.gen == c.gen {
			c.onFrame(ev.data)
		}
	case errorEvent:
		if ev.gen == c.gen {
			c.status = StatusError
			c.logger.Error("Notification channel error", log.FieldError, ev.err, log.FieldAttempt, c.attempt)
		}
	case closedEvent:
		if ev.gen == c.gen {
			c.onClosed(ev.code, ev.reason)
		}
	case retryEvent:
		if ev.seq != c.timerSeq || c.timer == nil {
			return
		}
		c.timer = nil
		c.attempt++
		c.logger.Info("Reconnecting notification channel", log.FieldAttempt, c.attempt, log.FieldOperation, log.OpReconnect)
		c.dial()
	}
}

// respond publishes before replying so callers observe the new state.
func (c *Client) respond(reply chan error, err error) {
	c.publish()
	reply <- err
}

func (c *Client) onConnect(userID string) error {
	if userID == c.userID && (c.conn != nil || c.timer != nil || c.status == StatusConnecting) {
		return nil
	}
	c.teardown("User disconnect")
	c.userID = userID
	c.attempt = 0
	c.dial()
	return nil
}

func (c *Client) onSend(payload []byte) error {
	if c.status != StatusConnected || c.conn == nil {
		c.logger.Warn("Notification channel not connected, message not sent", log.FieldStatus, string(c.status))
		return nil
	}
	if err := c.conn.WriteMessage(payload); err != nil {
		c.logger.Error("Failed to send message", log.FieldError, err, log.FieldOperation, log.OpSend)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *Client) onOpened(ev openedEvent) {
	if ev.gen != c.gen {
		_ = ev.conn.Close(CloseNormal, "Superseded")
		return
	}
	c.conn = ev.conn
	c.status = StatusConnected
	c.attempt = 0
	c.logger.Info("Notification channel connected", log.FieldUserID, c.userID)
}

func (c *Client) onFrame(data []byte) {
	msg, err := Decode(data)
	if err != nil {
		c.logger.Warn("Dropping malformed notification", log.FieldError, err, log.FieldOperation, log.OpDecode)
		return
	}
	c.last = &msg
	if !msg.Type.Known() {
		c.logger.Info("Ignoring unknown notification type", log.FieldMessageType, string(msg.Type))
		return
	}
	c.logger.Debug("Notification received", log.FieldMessageType, string(msg.Type))
	select {
	case c.messages <- msg:
	default:
		c.logger.Warn("Notification buffer full, dropping message", log.FieldMessageType, string(msg.Type))
	}
}

func (c *Client) onClosed(code int, reason string) {
	c.conn = nil
	c.stopDial()
	c.status = StatusDisconnected
	c.logger.Info("Notification channel closed", log.FieldCloseCode, code, "reason", reason)

	if code == CloseNormal {
		return
	}
	if c.attempt >= c.maxAttempts {
		c.logger.Warn("Giving up on notification channel", log.FieldAttempt, c.attempt, log.FieldCloseCode, code)
		return
	}

	delay := c.baseDelay << c.attempt
	c.timerSeq++
	seq := c.timerSeq
	c.timer = c.clock.AfterFunc(delay, func() { c.post(retryEvent{seq: seq}) })
	c.logger.Info("Scheduling reconnect", log.NewFields().WithReconnect(c.attempt+1, delay.Milliseconds(), code).ToSlice()...)
}

// dial starts a new connection generation. Events from older generations
// are ignored by handle.
func (c *Client) dial() {
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	c.status = StatusConnecting
	url := c.url + "/" + c.userID
	c.logger.Debug("Dialing notification channel", log.FieldURL, url, log.FieldOperation, log.OpConnect)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		conn, err := c.dialer.Dial(ctx, url)
		if err != nil {
			if c.post(errorEvent{gen: gen, err: err}) {
				c.post(closedEvent{gen: gen, code: CloseAbnormal, reason: err.Error()})
			}
			return
		}
		if !c.post(openedEvent{gen: gen, conn: conn}) {
			_ = conn.Close(CloseNormal, "Client shutdown")
			return
		}
		c.read(gen, conn)
	}()
}

func (c *Client) read(gen uint64, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			code, reason := CloseAbnormal, err.Error()
			var ce *CloseError
			if errors.As(err, &ce) {
				code, reason = ce.Code, ce.Reason
			} else if !c.post(errorEvent{gen: gen, err: err}) {
				return
			}
			c.post(closedEvent{gen: gen, code: code, reason: reason})
			return
		}
		if !c.post(frameEvent{gen: gen, data: data}) {
			return
		}
	}
}

// teardown cancels the pending retry and closes the live connection. Bumping
// the generation makes any in-flight events from it stale.
func (c *Client) teardown(reason string) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerSeq++
	c.stopDial()
	if c.conn != nil {
		if err := c.conn.Close(CloseNormal, reason); err != nil {
			c.logger.Debug("Close notification channel", log.FieldError, err)
		}
		c.conn = nil
	}
	c.gen++
}

func (c *Client) stopDial() {
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
}

func (c *Client) publish() {
	s := State{
		Status:       c.status,
		UserID:       c.userID,
		Attempt:      c.attempt,
		Reconnecting: c.timer != nil,
	}
	if c.last != nil {
		m := *c.last
		s.LastMessage = &m
	}
	c.mu.Lock()
	c.snapshot = s
	c.mu.Unlock()
}

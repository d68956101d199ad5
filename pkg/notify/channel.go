package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nexusforge/console/pkg/api/httpclient"
	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/events"
	"github.com/nexusforge/console/pkg/notice"
)

type State string

const (
	StateConnecting State = "CONNECTING"
	StateOpen       State = "OPEN"
	StateClosed     State = "CLOSED"
)

var (
	ErrClosed  = errors.New("notification channel is closed")
	ErrRunning = errors.New("notification channel is already running")
)

const defaultMaxReconnectDelay = 30 * time.Second

type Options struct {
	Feed     *Feed
	Notifier notice.Notifier
	Bus      *events.Bus
	// Invalidates lists the resources announced as changed on every
	// message. Nil means all of them.
	Invalidates []events.Resource
	// ReconnectAttempts is how many times a dropped transport is re-dialed.
	// Zero leaves the channel closed after the first failure.
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

// Channel owns one push transport for the lifetime of the shell.
type Channel struct {
	source Source
	opts   Options

	mu      sync.Mutex
	state   State
	stream  Stream
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	closed  bool

	// deliverMu orders message handling against Close.
	deliverMu sync.Mutex
}

func NewChannel(source Source, opts Options) *Channel {
	if opts.Feed == nil {
		opts.Feed = NewFeed()
	}
	if opts.Notifier == nil {
		opts.Notifier = notice.Discard
	}
	if opts.Invalidates == nil {
		opts.Invalidates = events.AllResources
	}
	if opts.MaxReconnectDelay <= 0 {
		opts.MaxReconnectDelay = defaultMaxReconnectDelay
	}
	return &Channel{source: source, opts: opts, state: StateClosed}
}

func (c *Channel) Feed() *Feed { return c.opts.Feed }

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run connects and processes messages until ctx ends, Close is called or
// the transport fails for good. A transport failure is logged and
// returned; the feed keeps what it already received.
func (c *Channel) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.running {
		c.mu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	done := c.done
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.state = StateClosed
		c.running = false
		c.mu.Unlock()
		close(done)
	}()

	// The reconnect budget covers consecutive failed dials. A session that
	// reached OPEN resets it, along with the backoff delay.
	attempts := c.opts.ReconnectAttempts + 1
	for {
		var dropped error
		err := httpclient.Retry(ctx, attempts, c.opts.ReconnectDelay, c.opts.MaxReconnectDelay, func() error {
			opened, err := c.session(ctx)
			if opened && ctx.Err() == nil && !errors.Is(err, ErrClosed) {
				dropped = err
				return nil
			}
			return err
		})
		if ctx.Err() != nil || errors.Is(err, ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.opts.ReconnectAttempts <= 0 {
			return dropped
		}

		select {
		case <-time.After(c.opts.ReconnectDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

// session runs one connection from dial to failure. opened reports
// whether the connection reached OPEN.
func (c *Channel) session(ctx context.Context) (opened bool, err error) {
	log := logger.WithField("source", c.source.Name())
	c.setState(StateConnecting)

	stream, err := c.source.Open(ctx)
	if err != nil {
		c.setState(StateClosed)
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.WithError(err).Warn("Notification channel failed to connect")
		return false, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = stream.Close()
		return false, ErrClosed
	}
	c.stream = stream
	c.state = StateOpen
	c.mu.Unlock()
	log.Info("Notification channel open")

	defer func() {
		c.mu.Lock()
		c.stream = nil
		c.state = StateClosed
		c.mu.Unlock()
		_ = stream.Close()
	}()

	for {
		n, err := stream.Receive(ctx)
		if errors.Is(err, ErrMalformedMessage) {
			log.WithError(err).Warn("Dropping notification")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			log.WithError(err).Warn("Notification channel closed")
			return true, err
		}
		if !c.deliver(n) {
			return true, ErrClosed
		}
	}
}

// deliver records n, toasts it and announces the invalidated resources.
// It reports false once the channel is closed.
func (c *Channel) deliver(n models.Notification) bool {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}

	stored := c.opts.Feed.Push(n)
	notify(c.opts.Notifier, stored)
	if c.opts.Bus != nil {
		for _, r := range c.opts.Invalidates {
			c.opts.Bus.Publish(events.Event{Resource: r, Action: events.ActionRemote})
		}
	}
	return true
}

func notify(n notice.Notifier, msg models.Notification) {
	switch notice.Level(msg.Type) {
	case notice.LevelSuccess:
		notice.Success(n, msg.Message)
	case notice.LevelWarning:
		notice.Warning(n, msg.Message)
	case notice.LevelError:
		notice.Error(n, msg.Message)
	default:
		notice.Info(n, msg.Message)
	}
}

// Close tears the channel down and waits for Run to return. Messages that
// arrive afterwards are not processed. Bus handlers must not call Close.
func (c *Channel) Close() {
	c.deliverMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.deliverMu.Unlock()
		return
	}
	c.closed = true
	cancel, stream, done := c.cancel, c.stream, c.done
	if !c.running {
		c.state = StateClosed
	}
	c.mu.Unlock()
	c.deliverMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stream != nil {
		_ = stream.Close()
	}
	if done != nil {
		<-done
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

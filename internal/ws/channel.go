// Package ws maintains the persistent live-update connection to the
// backend: a single websocket with keep-alive heartbeats and a fixed-delay
// reconnect loop, modeled as an explicit state machine driven by one run
// goroutine.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rmail/rmail/internal/models"
)

// State is the lifecycle position of the channel.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EventHandler receives recognized push events. Control frames and
// malformed payloads never reach it.
type EventHandler func(event models.PushEvent)

// Channel is the live update connection. One Channel maintains at most one
// open socket at a time; Start may be called once, Stop tears everything
// down (socket, heartbeat, pending reconnect) and is terminal.
type Channel struct {
	url            string
	heartbeat      time.Duration
	reconnectDelay time.Duration
	handler        EventHandler
	logger         *zap.Logger
	dialer         *websocket.Dialer

	mu    sync.Mutex
	state State

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New creates a channel for the given websocket URL.
func New(url string, heartbeat, reconnectDelay time.Duration, handler EventHandler, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		url:            url,
		heartbeat:      heartbeat,
		reconnectDelay: reconnectDelay,
		handler:        handler,
		logger:         logger,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		state:          StateIdle,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start launches the connection loop.
func (c *Channel) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

// Stop closes the socket, cancels the heartbeat and any pending reconnect,
// and waits for the run loop to exit.
func (c *Channel) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.Start() // ensure done gets closed even if Start was never called
	<-c.done
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the socket is open right now.
func (c *Channel) Connected() bool {
	return c.State() == StateOpen
}

func (c *Channel) run() {
	defer close(c.done)
	defer c.setState(StateStopped)

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.setState(StateConnecting)
		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			c.logger.Debug("channel dial failed", zap.Error(err))
			c.setState(StateClosed)
			if !c.waitReconnect() {
				return
			}
			continue
		}

		c.setState(StateOpen)
		c.serve(conn)
		c.setState(StateClosed)

		if !c.waitReconnect() {
			return
		}
	}
}

// serve pumps one connection until it errors or the channel stops. The
// heartbeat ticker lives and dies with the connection, so keep-alives can
// never fire while the state is Closed.
func (c *Channel) serve(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	serveDone := make(chan struct{})
	defer close(serveDone)

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-serveDone:
				return
			}
		}
	}()

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case err := <-readErr:
			c.logger.Debug("channel read failed", zap.Error(err))
			return
		case data := <-frames:
			c.dispatch(data)
		case <-ticker.C:
			if err := conn.WriteJSON(models.PushEvent{Type: models.EventPing}); err != nil {
				c.logger.Debug("channel heartbeat failed", zap.Error(err))
				return
			}
		}
	}
}

// dispatch parses an inbound frame. Unrecognized or malformed payloads are
// discarded silently; they must neither crash the client nor force a
// reconnect.
func (c *Channel) dispatch(data []byte) {
	var event models.PushEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Debug("discarding malformed frame", zap.Error(err))
		return
	}

	switch event.Type {
	case models.EventNewEmail, models.EventEmailSent:
		if event.Email == nil {
			return
		}
		if c.handler != nil {
			c.handler(event)
		}
	case models.EventPing, models.EventPong:
		// control traffic, not store data
	default:
		c.logger.Debug("discarding unknown event", zap.String("type", event.Type))
	}
}

// waitReconnect sleeps the fixed delay before the next attempt, or returns
// false when the channel is being torn down.
func (c *Channel) waitReconnect() bool {
	timer := time.NewTimer(c.reconnectDelay)
	defer timer.Stop()
	select {
	case <-c.stop:
		return false
	case <-timer.C:
		return true
	}
}

func (c *Channel) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStopped {
		return
	}
	c.state = state
}

// Package vss is a client for the KUKSA.val WebSocket protocol used to read
// and actuate Vehicle Signal Specification paths.
package vss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClosed  = errors.New("vss client closed")
	ErrTimeout = errors.New("vss request timed out")
)

type Config struct {
	URL     string
	Token   string
	Reconn  time.Duration
	Timeout time.Duration
}

type Client struct {
	ws  *WebSocket
	cfg Config

	waiterMu sync.Mutex
	waiters  map[string]chan *Response

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("empty vss url")
	}
	if cfg.Reconn <= 0 {
		cfg.Reconn = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	web, err := NewWebSocket(ctx, cfg.URL, cfg.Reconn)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ws:      web,
		cfg:     cfg,
		waiters: make(map[string]chan *Response),
		ctx:     runCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go c.run()

	if err := c.authorize(ctx); err != nil {
		c.Close()
		return nil, err
	}

	log.Info("Connected to vss", "url", cfg.URL)
	return c, nil
}

// Set writes the target value of an actuator path.
func (c *Client) Set(ctx context.Context, path string, value any) error {
	_, err := c.do(ctx, Request{
		Action:    ActionSet,
		Path:      path,
		Attribute: AttrTargetValue,
		Value:     value,
	})
	return err
}

// Get reads the current value of a path.
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	resp, err := c.do(ctx, Request{
		Action:    ActionGet,
		Path:      path,
		Attribute: AttrValue,
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("get %s: empty data", path)
	}
	return resp.Data.DP.Value, nil
}

func (c *Client) Close() error {
	c.cancel()
	err := c.ws.Close()
	<-c.done
	return err
}

func (c *Client) authorize(ctx context.Context) error {
	if c.cfg.Token == "" {
		return nil
	}
	if _, err := c.do(ctx, Request{Action: ActionAuthorize, Tokens: c.cfg.Token}); err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	req.RequestID = uuid.NewString()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.Action, err)
	}

	w := c.installWaiter(req.RequestID)
	defer c.clearWaiter(req.RequestID)

	if err := c.ws.Write(payload); err != nil {
		return nil, fmt.Errorf("write %s: %w", req.Action, err)
	}

	timer := time.NewTimer(c.cfg.Timeout)
	defer timer.Stop()

	select {
	case resp := <-w:
		if resp.Error != nil {
			return resp, fmt.Errorf("%s %s: %w", req.Action, req.Path, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%s %s: %w", req.Action, req.Path, ErrTimeout)
	case <-c.done:
		return nil, ErrClosed
	}
}

func (c *Client) run() {
	defer close(c.done)

	for {
		in := c.ws.Read()
		if c.ctx.Err() != nil {
			return
		}

		switch in.kind {
		case connClosed, readFailed:
			log.Warn("Vss connection lost, reconnecting", "url", c.cfg.URL, "err", in.err)
			if err := c.ws.Reconnect(c.ctx); err != nil {
				return
			}
			log.Info("Reconnected to vss", "url", c.cfg.URL)

			// tokens are bound to the connection
			go func() {
				if err := c.authorize(c.ctx); err != nil {
					log.Error("Failed to re-authorize vss", "err", err)
				}
			}()

		case readOK:
			resp, err := ParseResponse(in.msg)
			if err != nil {
				log.Warn("Failed to parse vss frame", "msg", string(in.msg), "err", err)
				continue
			}
			if !c.deliver(resp) {
				log.Debug("Unsolicited vss frame", "requestId", resp.RequestID, "action", resp.Action)
			}
		}
	}
}

func (c *Client) installWaiter(id string) chan *Response {
	c.waiterMu.Lock()
	defer c.waiterMu.Unlock()
	w := make(chan *Response, 1)
	c.waiters[id] = w
	return w
}

func (c *Client) clearWaiter(id string) {
	c.waiterMu.Lock()
	defer c.waiterMu.Unlock()
	delete(c.waiters, id)
}

func (c *Client) deliver(resp *Response) bool {
	c.waiterMu.Lock()
	defer c.waiterMu.Unlock()

	w, ok := c.waiters[resp.RequestID]
	if !ok {
		return false
	}
	select {
	case w <- resp:
	default:
	}
	return true
}

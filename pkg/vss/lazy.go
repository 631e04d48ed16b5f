package vss

import (
	"context"
	"sync"
	"time"
)

// Lazy defers dialing to the first request, so a databroker that is down at
// boot only fails the requests that need it. A failed dial is retried on the
// next request.
type Lazy struct {
	cfg Config

	mu sync.Mutex
	c  *Client
}

func NewLazy(cfg Config) *Lazy {
	return &Lazy{cfg: cfg}
}

func (l *Lazy) Set(ctx context.Context, path string, value any) error {
	c, err := l.client(ctx)
	if err != nil {
		return err
	}
	return c.Set(ctx, path, value)
}

func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.c == nil {
		return nil
	}
	err := l.c.Close()
	l.c = nil
	return err
}

func (l *Lazy) client(ctx context.Context) (*Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.c != nil {
		return l.c, nil
	}

	timeout := l.cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := Dial(dctx, l.cfg)
	if err != nil {
		return nil, err
	}
	l.c = c
	return c, nil
}

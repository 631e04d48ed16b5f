package vss

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

type WebSocket struct {
	mu      sync.Mutex
	conn    *ws.Conn
	url     string
	reconn  time.Duration
	writeMu sync.Mutex
}

func NewWebSocket(ctx context.Context, url string, reconn time.Duration) (*WebSocket, error) {
	log.Debug("Dialing vss websocket", "url", url)

	conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	return &WebSocket{
		conn:   conn,
		url:    url,
		reconn: reconn,
	}, nil
}

func (web *WebSocket) Write(payload []byte) error {
	web.writeMu.Lock()
	defer web.writeMu.Unlock()

	log.Debug("Write vss", "msg", string(payload))
	return web.current().WriteMessage(ws.TextMessage, payload)
}

type incomeKind uint

const (
	connClosed incomeKind = iota
	readFailed
	readOK
)

type income struct {
	kind incomeKind
	msg  []byte
	err  error
}

func (web *WebSocket) Read() income {
	_, msg, err := web.current().ReadMessage()
	if err != nil {
		if isClosed(err) {
			return income{kind: connClosed, err: err}
		}
		return income{kind: readFailed, err: err}
	}

	log.Debug("Read vss", "msg", string(msg))
	return income{kind: readOK, msg: msg}
}

// Reconnect dials until it succeeds or ctx ends.
func (web *WebSocket) Reconnect(ctx context.Context) error {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, web.url, nil)
		if err == nil {
			web.writeMu.Lock()
			web.mu.Lock()
			old := web.conn
			web.conn = conn
			web.mu.Unlock()
			web.writeMu.Unlock()

			if old != nil {
				old.Close()
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(web.reconn):
		}
	}
}

func (web *WebSocket) Close() error {
	conn := web.current()

	web.writeMu.Lock()
	_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	web.writeMu.Unlock()

	return conn.Close()
}

func (web *WebSocket) current() *ws.Conn {
	web.mu.Lock()
	defer web.mu.Unlock()
	return web.conn
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}

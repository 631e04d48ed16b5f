// Package hmi publishes assistant turns to the in-cabin display bus.
package hmi

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

type Message struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Kind       string `json:"kind"`
	Transcript string `json:"transcript"`
	Action     string `json:"action"`
	Content    string `json:"content"`
}

func Turn(transcript, action, content string) Message {
	return Message{
		From:       "rita",
		To:         "hmi",
		Kind:       "turn",
		Transcript: transcript,
		Action:     action,
		Content:    content,
	}
}

// Bus is a write-only connection to the HMI. It dials lazily and redials on
// the next Publish after a failed write.
type Bus struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewBus(url string) *Bus {
	return &Bus{url: url}
}

func (b *Bus) Publish(ctx context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, nil)
		if err != nil {
			return fmt.Errorf("dial hmi: %w", err)
		}
		log.Info("Connected to HMI bus", "url", b.url)
		b.conn = conn
	}

	b.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		b.conn.Close()
		b.conn = nil
		return fmt.Errorf("write hmi: %w", err)
	}
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil
	}
	b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := b.conn.Close()
	b.conn = nil
	return err
}

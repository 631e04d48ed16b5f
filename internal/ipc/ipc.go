// Package ipc is the local control socket used by rita-ctl to inject a
// turn into the running assistant.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"strings"
)

const DefaultSocketPath = "/tmp/rita.sock"

const (
	CmdAsk    = "ask"
	CmdListen = "listen"
)

var ErrBadRequest = errors.New("bad control request")

// Request is one JSON object per connection.
type Request struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"`
}

func (r Request) Validate() error {
	switch r.Cmd {
	case CmdAsk:
		if strings.TrimSpace(r.Text) == "" {
			return fmt.Errorf("%w: ask needs text", ErrBadRequest)
		}
	case CmdListen:
		if r.Path == "" {
			return fmt.Errorf("%w: listen needs a path", ErrBadRequest)
		}
	default:
		return fmt.Errorf("%w: unknown command %q", ErrBadRequest, r.Cmd)
	}
	return nil
}

type Server struct {
	path string
	ln   net.Listener
}

// Listen removes a stale socket at path and starts accepting. Each valid
// request is passed to handler; the server stops when ctx is done.
func Listen(ctx context.Context, path string, handler func(Request)) (*Server, error) {
	if path == "" {
		path = DefaultSocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	s := &Server{path: path, ln: ln}

	go func() {
		<-ctx.Done()
		s.Close()
	}()
	go s.serve(handler)

	log.Info("Control socket ready", "path", path)
	return s, nil
}

func (s *Server) Close() error {
	err := s.ln.Close()
	os.Remove(s.path)
	return err
}

func (s *Server) serve(handler func(Request)) {
	for {
		conn, err := s.ln.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			log.Warn("Accept failed", "err", err)
			continue
		}
		go handleConn(conn, handler)
	}
}

func handleConn(conn net.Conn, handler func(Request)) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("Bad control message", "err", err)
		return
	}
	if err := req.Validate(); err != nil {
		log.Warn("Rejected control message", "err", err)
		return
	}
	handler(req)
}

func Send(path string, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if path == "" {
		path = DefaultSocketPath
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(req)
}

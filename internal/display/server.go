package display

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes the hub at /ws.
type Server struct {
	hub       *Hub
	http      *http.Server
	upgrader  websocket.Upgrader
	writeWait time.Duration
	log       *zap.Logger
}

func NewServer(addr string, hub *Hub, writeWait time.Duration, log *zap.Logger) *Server {
	s := &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true }, // renderers run on other origins
		},
		writeWait: writeWait,
		log:       log,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Serve runs the hub and the HTTP listener until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("display listen: %w", err)
	}
	s.log.Info("display feed listening", zap.String("addr", ln.Addr().String()))

	go s.hub.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.http.Shutdown(shutdownCtx)
	}()

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("display serve: %w", err)
	}
	return nil
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(s.hub, conn, s.writeWait)
	if !s.hub.join(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// ABOUTME: HTTP diagnostics server for the click mute processor
// ABOUTME: JSON status endpoint plus a websocket that streams snapshots
package diag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/clickmute-go/internal/clickmute"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultInterval is how often websocket sessions receive a snapshot
	DefaultInterval = 250 * time.Millisecond

	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

// Config holds server configuration
type Config struct {
	Addr     string
	Interval time.Duration
	// Devices lists the monitored input devices, optional
	Devices func() []string
}

// Server serves status snapshots
type Server struct {
	config   Config
	info     *clickmute.Info
	serverID string

	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	httpServer *http.Server
	listener   net.Listener

	sessions   map[string]*websocket.Conn
	sessionsMu sync.Mutex

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a diagnostics server
func New(config Config, info *clickmute.Info) *Server {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	s := &Server{
		config:   config,
		info:     info,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// read-only status on a trusted network
				return true
			},
		},
		sessions: make(map[string]*websocket.Conn),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	return s
}

// Handler exposes the routes
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ID identifies this server instance
func (s *Server) ID() string {
	return s.serverID
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Diagnostics server failed")
		}
	}()

	logrus.WithField("addr", ln.Addr().String()).Info("Diagnostics server listening")
	return nil
}

// Addr returns the listening address once started
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes sessions and shuts the server down
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				logrus.WithError(err).Warn("Diagnostics server shutdown error")
			}
		}

		s.sessionsMu.Lock()
		for _, conn := range s.sessions {
			conn.Close()
		}
		s.sessionsMu.Unlock()

		s.wg.Wait()
	})
}

func (s *Server) snapshot() Snapshot {
	snap := TakeSnapshot(s.info)
	snap.ServerID = s.serverID
	if s.config.Devices != nil {
		snap.Devices = s.config.Devices()
	}
	return snap
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		logrus.WithError(err).Debug("Failed to write status")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade error")
		return
	}

	id := uuid.New().String()
	log := logrus.WithFields(logrus.Fields{
		"session": id,
		"remote":  r.RemoteAddr,
	})
	log.Info("Diagnostics session opened")

	s.sessionsMu.Lock()
	s.sessions[id] = conn
	s.sessionsMu.Unlock()

	s.wg.Add(1)
	defer func() {
		s.sessionsMu.Lock()
		delete(s.sessions, id)
		s.sessionsMu.Unlock()
		conn.Close()
		s.wg.Done()
		log.Info("Diagnostics session closed")
	}()

	s.streamSession(conn)
}

// streamSession pushes snapshots until the peer goes away or the server stops
func (s *Server) streamSession(conn *websocket.Conn) {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	send := func() bool {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		return conn.WriteJSON(s.snapshot()) == nil
	}
	if !send() {
		return
	}

	for {
		select {
		case <-s.stopChan:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
				time.Now().Add(time.Second))
			return
		case <-gone:
			return
		case <-ticker.C:
			if !send() {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

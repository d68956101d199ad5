package backend

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/common/models"
)

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	s.hubMu.Lock()
	s.clients[conn] = &sync.Mutex{}
	s.hubMu.Unlock()

	// Drain until the peer goes away so close frames are handled.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.hubMu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.hubMu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// Broadcast sends n to every connected console and returns how many
// received it.
func (s *Server) Broadcast(n models.Notification) int {
	s.hubMu.Lock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for conn, mu := range s.clients {
		targets[conn] = mu
	}
	s.hubMu.Unlock()

	delivered := 0
	for conn, mu := range targets {
		mu.Lock()
		err := conn.WriteJSON(n)
		mu.Unlock()
		if err != nil {
			s.drop(conn)
			continue
		}
		delivered++
	}
	return delivered
}

// SendRaw writes an arbitrary text frame, for malformed-payload cases.
func (s *Server) SendRaw(payload string) {
	s.hubMu.Lock()
	defer s.hubMu.Unlock()
	for conn, mu := range s.clients {
		mu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(payload))
		mu.Unlock()
	}
}

func (s *Server) Clients() int {
	s.hubMu.Lock()
	defer s.hubMu.Unlock()
	return len(s.clients)
}

// DropClients closes every push connection from the server side.
func (s *Server) DropClients() {
	s.hubMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.hubMu.Unlock()

	for _, conn := range conns {
		s.drop(conn)
	}
}

// WaitForClients blocks until n consoles are connected or fails the test.
func (s *Server) WaitForClients(t testing.TB, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.Clients() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d push clients, have %d", n, s.Clients())
}

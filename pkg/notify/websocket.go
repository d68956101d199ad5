package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nexusforge/console/pkg/common/models"
)

type WebSocketSource struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
}

func NewWebSocketSource(url string, header http.Header) *WebSocketSource {
	return &WebSocketSource{
		url:    url,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (s *WebSocketSource) Name() string { return s.url }

func (s *WebSocketSource) Open(ctx context.Context) (Stream, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}
	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func (s *wsStream) Receive(ctx context.Context) (models.Notification, error) {
	// A past read deadline unblocks ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := s.conn.ReadMessage()
	if ctx.Err() != nil {
		return models.Notification{}, ctx.Err()
	}
	if err != nil {
		return models.Notification{}, err
	}
	return decode(data)
}

func (s *wsStream) Close() error {
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

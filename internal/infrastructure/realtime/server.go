package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	"github.com/campusconnect/campus-connect/pkg/metrics"
)

const (
	FrameAuth   = "auth"
	FrameAuthOK = "auth_ok"

	maxFrameBytes = 4096
)

var errClientClosed = errors.New("connection closed")

// Frame is the envelope for every message on a live connection.
type Frame struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Authenticator resolves the session credential carried by the auth frame.
type Authenticator interface {
	ResolveSession(ctx context.Context, token string) (*entity.User, error)
}

// Client wraps a websocket connection so pushes from many goroutines are
// serialized.
type Client struct {
	ws           *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	closed       atomic.Bool
}

func newClient(ws *websocket.Conn, writeTimeout time.Duration) *Client {
	return &Client{ws: ws, writeTimeout: writeTimeout}
}

func (c *Client) Send(v any) error {
	if c.closed.Load() {
		return errClientClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(v)
}

func (c *Client) Closed() bool { return c.closed.Load() }

func (c *Client) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *Client) close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.ws.Close()
	}
}

type Options struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// Server is the live connection endpoint. Connections start anonymous and
// must authenticate with their first frame.
type Server struct {
	registry *Registry
	auth     Authenticator
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration
}

func NewServer(registry *Registry, auth Authenticator, logger *logrus.Logger, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongTimeout <= opts.PingInterval {
		opts.PongTimeout = 2 * opts.PingInterval
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Server{
		registry: registry,
		auth:     auth,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		pingInterval: opts.PingInterval,
		pongTimeout:  opts.PongTimeout,
		writeTimeout: opts.WriteTimeout,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Handle upgrades the request and runs the connection until it closes.
func (s *Server) Handle(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}
	s.serve(c.Request.Context(), newClient(ws, s.writeTimeout))
}

func (s *Server) serve(ctx context.Context, client *Client) {
	var userID string
	defer client.close()
	defer func() {
		if userID != "" {
			s.registry.Unregister(client)
			s.logger.WithField("user_id", userID).Debug("live connection closed")
		}
	}()

	ws := client.ws
	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(s.pongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.pongTimeout))
	})

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(s.pongTimeout))
			select {
			case frames <- data:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-frames:
			if userID != "" {
				continue
			}
			u, ok := s.authenticate(ctx, data)
			if !ok {
				metrics.LiveAuthFailures.Inc()
				return
			}
			userID = u.ID
			s.registry.Register(userID, client)
			s.logger.WithField("user_id", userID).Debug("live connection authenticated")
			if err := client.Send(Frame{Type: FrameAuthOK, Data: map[string]string{"user_id": userID}}); err != nil {
				return
			}

		case <-ticker.C:
			if err := client.ping(); err != nil {
				return
			}

		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.WithError(err).WithField("user_id", userID).Debug("live connection read failed")
			}
			return
		}
	}
}

func (s *Server) authenticate(ctx context.Context, data []byte) (*entity.User, bool) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}
	if f.Type != FrameAuth || f.Token == "" {
		return nil, false
	}
	u, err := s.auth.ResolveSession(ctx, f.Token)
	if err != nil {
		return nil, false
	}
	return u, true
}

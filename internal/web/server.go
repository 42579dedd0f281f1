// Package web exposes the running visualizer over HTTP: a status endpoint,
// live settings edits, persistence and a websocket status feed.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/guidoenr/barviz/internal/app"
	"github.com/guidoenr/barviz/internal/config"
)

const (
	// DefaultInterval is the period of the websocket status broadcast.
	DefaultInterval = 500 * time.Millisecond

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxBody    = 1 << 20
)

// StatusProvider reports the state of the render loop.
type StatusProvider interface {
	Status() app.Status
}

// Server serves the control API for one visualizer.
type Server struct {
	mu        sync.RWMutex
	store     *config.Store
	status    StatusProvider
	path      string
	log       *zerolog.Logger
	clients   map[*websocketClient]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
	interval  time.Duration
}

type websocketClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// StatusResponse is the body of /api/status and of every websocket message.
type StatusResponse struct {
	app.Status
	Theme     string `json:"theme"`
	ColorMode string `json:"color_mode"`
	Style     int    `json:"style"`
	Mirror    bool   `json:"mirror"`
}

// ConfigResponse is returned by /api/config. Rejected maps each refused key
// to the reason it was refused; the key keeps its previous value.
type ConfigResponse struct {
	Config   map[string]any    `json:"config"`
	Rejected map[string]string `json:"rejected,omitempty"`
}

// NewServer creates a server over store. path is where /api/save writes the
// settings record; an empty path disables saving.
func NewServer(store *config.Store, status StatusProvider, path string, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{
		store:     store,
		status:    status,
		path:      path,
		log:       logger,
		clients:   make(map[*websocketClient]bool),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		interval: DefaultInterval,
	}
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/api/themes", s.handleList(config.ThemeNames))
	mux.HandleFunc("/api/charsets", s.handleList(config.CharSetNames))
	mux.HandleFunc("/api/fonts", s.handleList(config.FontNames))
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.startLoops(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("web server listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web serve: %w", err)
	}
	return nil
}

func (s *Server) startLoops(ctx context.Context) {
	go s.broadcastLoop(ctx)
	go s.statusUpdateLoop(ctx)
}

func (s *Server) snapshot() StatusResponse {
	cfg := s.store.Current()
	resp := StatusResponse{
		Theme:     cfg.Theme,
		ColorMode: cfg.ColorMode,
		Style:     int(cfg.Style),
		Mirror:    cfg.Mirror,
	}
	if s.status != nil {
		resp.Status = s.status.Status()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, ConfigResponse{Config: config.Values(s.store.Current())})
	case http.MethodPost:
		var values map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&values); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cfg, errs := s.store.Patch(values)
		resp := ConfigResponse{Config: config.Values(cfg)}
		for _, err := range errs {
			if resp.Rejected == nil {
				resp.Rejected = map[string]string{}
			}
			var fe *config.FieldError
			if errors.As(err, &fe) {
				resp.Rejected[fe.Key] = fe.Reason
				continue
			}
			resp.Rejected["_"] = err.Error()
		}
		s.log.Info().Int("fields", len(values)).Int("rejected", len(resp.Rejected)).Msg("config patched")
		writeJSON(w, http.StatusOK, resp)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.path == "" {
		http.Error(w, "no config file configured", http.StatusConflict)
		return
	}
	if err := config.Save(s.path, s.store.Current()); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("save config")
		http.Error(w, fmt.Sprintf("failed to save config: %v", err), http.StatusInternalServerError)
		return
	}
	s.log.Info().Str("path", s.path).Msg("config saved")
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "path": s.path})
}

func (s *Server) handleList(names func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, names())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	client := &websocketClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			for client := range s.clients {
				close(client.send)
				delete(s.clients, client)
			}
			s.mu.Unlock()
			return
		case message := <-s.broadcast:
			s.mu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// slow client
					close(client.send)
					delete(s.clients, client)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) statusUpdateLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		data, err := json.Marshal(s.snapshot())
		if err != nil {
			s.log.Debug().Err(err).Msg("encode status")
			continue
		}
		select {
		case s.broadcast <- data:
		default:
		}
	}
}

func (s *Server) drop(c *websocketClient) {
	s.mu.Lock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

func (c *websocketClient) readPump() {
	defer func() {
		c.server.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxBody)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *websocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/model"
	logx "github.com/Kaztic/foodiespot-reservation-agent/pkg/logger"
)

// welcomeText greets every new session before the first turn.
const welcomeText = "Hi there! I'm FoodieSpot's AI assistant. How can I help you today? Looking for a restaurant recommendation or would you like to make a reservation?"

// ClientMessage is one frame from the browser: a chat turn or a session reset.
type ClientMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ServerMessage is one frame to the browser. Reply frames carry the turn's
// tool-call audit entries for the debug panel.
type ServerMessage struct {
	Type           string                 `json:"type"`
	Text           string                 `json:"text,omitempty"`
	Message        string                 `json:"message,omitempty"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	ToolCalls      []model.ToolCallRecord `json:"tool_calls,omitempty"`
}

// Config holds the HTTP listener settings.
type Config struct {
	Port           int      `envconfig:"SERVER_PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"SERVER_ALLOWED_ORIGINS" default:"*"`
}

// Server is the websocket chat shell: one conversation per connection,
// turns processed sequentially in connection order.
type Server struct {
	httpServer *http.Server
	upgrader   websocket.Upgrader
	runner     graph.Runner
	config     Config
}

func New(cfg Config, runner graph.Runner) *Server {
	s := &Server{
		runner: runner,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.AllowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the HTTP mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for connections
func (s *Server) Start() error {
	logx.Info().Int("port", s.config.Port).Msg("WebSocket server starting")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	logx.Info().Msg("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	conversationID := uuid.NewString()
	logx.Info().Str("conversation_id", conversationID).Msg("Session opened")

	welcome := ServerMessage{Type: "reply", Text: welcomeText, ConversationID: conversationID}
	if err := conn.WriteJSON(welcome); err != nil {
		logx.Error().Err(err).Msg("Failed to send welcome")
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logx.Warn().Str("conversation_id", conversationID).Err(err).Msg("Connection dropped")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.writeJSON(conn, ServerMessage{Type: "error", Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case "chat":
			if strings.TrimSpace(msg.Text) == "" {
				s.writeJSON(conn, ServerMessage{Type: "error", Message: "empty message"})
				continue
			}
			reply := s.runner.Invoke(r.Context(), model.QueryInput{
				ConversationID: conversationID,
				Query:          msg.Text,
			})
			s.writeJSON(conn, ServerMessage{
				Type:      "reply",
				Text:      reply.Text,
				ToolCalls: reply.ToolCalls,
			})
		case "reset":
			if err := s.runner.Reset(r.Context(), conversationID); err != nil {
				logx.Error().Str("conversation_id", conversationID).Err(err).Msg("Reset failed")
				s.writeJSON(conn, ServerMessage{Type: "error", Message: "reset failed"})
				continue
			}
			s.writeJSON(conn, ServerMessage{Type: "status", Message: "conversation reset"})
		default:
			s.writeJSON(conn, ServerMessage{Type: "error", Message: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}

	logx.Info().Str("conversation_id", conversationID).Msg("Session closed")
}

func (s *Server) writeJSON(conn *websocket.Conn, msg ServerMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		logx.Error().Err(err).Msg("Failed to write frame")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

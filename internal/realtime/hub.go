// Package realtime pushes board invalidation messages to websocket subscribers of a project.
//
// With redis configured every replica publishes to a per-project channel and relays what it
// receives to its own sockets, so a change made on one pod reaches viewers connected to another.
package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"task-board-api/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32

	channelPrefix = "board:project:"
)

// MessageBoardInvalidated tells a client to refetch the board projection
const MessageBoardInvalidated = "board.invalidated"

// Message is the payload written to subscribers
type Message struct {
	Type      string      `json:"type"`
	ProjectID uuid.UUID   `json:"projectId"`
	TaskIDs   []uuid.UUID `json:"taskIds"`
	Timestamp time.Time   `json:"timestamp"`
}

// PubSub is the part of the redis client the hub uses
type PubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	PSubscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type subscriber struct {
	conn      *websocket.Conn
	send      chan []byte
	projectID uuid.UUID
	userID    uuid.UUID
}

// Hub tracks websocket subscribers per project
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*subscriber]struct{}

	pubsub  PubSub
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewHub creates a hub. pubsub may be nil for a single replica.
func NewHub(pubsub PubSub, m *metrics.Metrics, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[*subscriber]struct{}),
		pubsub:  pubsub,
		metrics: m,
		logger:  logger,
	}
}

// Run relays redis messages to local subscribers until ctx is done
func (h *Hub) Run(ctx context.Context) {
	if h.pubsub == nil {
		<-ctx.Done()
		h.closeAll()
		return
	}

	ps := h.pubsub.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()
	ch := ps.Channel()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			projectID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, channelPrefix))
			if err != nil {
				h.logger.Warn("Ignoring message on unexpected channel", zap.String("channel", msg.Channel))
				continue
			}
			h.deliver(projectID, []byte(msg.Payload))
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// BoardChanged notifies every subscriber of the project that the board changed
func (h *Hub) BoardChanged(projectID uuid.UUID, taskIDs []uuid.UUID) {
	if taskIDs == nil {
		taskIDs = []uuid.UUID{}
	}
	payload, err := json.Marshal(Message{
		Type:      MessageBoardInvalidated,
		ProjectID: projectID,
		TaskIDs:   taskIDs,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("Failed to encode board message", zap.Error(err))
		return
	}

	if h.pubsub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := h.pubsub.Publish(ctx, channelPrefix+projectID.String(), payload).Err()
		if err == nil {
			return
		}
		h.logger.Warn("Redis publish failed, delivering locally",
			zap.String("project_id", projectID.String()),
			zap.Error(err),
		)
	}
	h.deliver(projectID, payload)
}

// Subscribe registers conn for projectID and starts its read and write pumps.
// The connection is closed when the peer goes away.
func (h *Hub) Subscribe(conn *websocket.Conn, projectID, userID uuid.UUID) {
	s := &subscriber{
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		projectID: projectID,
		userID:    userID,
	}
	h.add(s)

	go h.writePump(s)
	go h.readPump(s)
}

// Count returns the number of open subscriptions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// ProjectCount returns the number of subscriptions for one project
func (h *Hub) ProjectCount(projectID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	if h.clients[s.projectID] == nil {
		h.clients[s.projectID] = make(map[*subscriber]struct{})
	}
	h.clients[s.projectID][s] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Board subscriber registered",
		zap.String("project_id", s.projectID.String()),
		zap.String("user_id", s.userID.String()),
	)
	h.updateGauge()
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	set, ok := h.clients[s.projectID]
	if ok {
		if _, exists := set[s]; exists {
			delete(set, s)
			close(s.send)
		}
		if len(set) == 0 {
			delete(h.clients, s.projectID)
		}
	}
	h.mu.Unlock()
	h.updateGauge()
}

func (h *Hub) deliver(projectID uuid.UUID, payload []byte) {
	var slow []*subscriber

	h.mu.RLock()
	for s := range h.clients[projectID] {
		select {
		case s.send <- payload:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	// 버퍼가 가득 찬 클라이언트는 끊는다
	for _, s := range slow {
		h.logger.Warn("Dropping slow board subscriber",
			zap.String("project_id", projectID.String()),
			zap.String("user_id", s.userID.String()),
		)
		h.remove(s)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for projectID, set := range h.clients {
		for s := range set {
			close(s.send)
		}
		delete(h.clients, projectID)
	}
	h.mu.Unlock()
	h.updateGauge()
}

func (h *Hub) updateGauge() {
	if h.metrics != nil {
		h.metrics.SetRealtimeConnections(h.Count())
	}
}

// readPump only keeps the deadline fresh. Clients never send commands.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		h.remove(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Board websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

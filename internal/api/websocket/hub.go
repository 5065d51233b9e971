package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/auth"
	"github.com/KevinKickass/mtconnect-core/internal/formatter"
	"github.com/KevinKickass/mtconnect-core/internal/metrics"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

type outbound struct {
	doc *streams.Document
	msg *Message
}

// Hub maintains active WebSocket clients and broadcasts ingested documents,
// encoded once per format in use.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	registry      *formatter.Registry
	authService   *auth.AuthService
	metrics       *metrics.Metrics
	defaultFormat string
	logger        *zap.Logger
}

func NewHub(registry *formatter.Registry, authService *auth.AuthService, defaultFormat string, logger *zap.Logger) *Hub {
	if defaultFormat == "" {
		defaultFormat = formatter.JSON
	}
	return &Hub{
		broadcast:     make(chan outbound, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
		clients:       make(map[*Client]bool),
		registry:      registry,
		authService:   authService,
		defaultFormat: defaultFormat,
		logger:        logger,
	}
}

func (h *Hub) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket Hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.updateClientGauge()
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.updateClientGauge()
			h.logger.Info("WebSocket client registered",
				zap.String("client_id", client.id.String()),
				zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.logger.Info("WebSocket client unregistered",
					zap.String("client_id", client.id.String()),
					zap.Int("total_clients", len(h.clients)))
			}
			h.mu.Unlock()
			h.updateClientGauge()

		case out := <-h.broadcast:
			h.mu.Lock()
			if out.doc != nil {
				h.sendDocument(*out.doc)
			} else {
				h.sendMessage(*out.msg)
			}
			h.mu.Unlock()
			h.updateClientGauge()
		}
	}
}

// sendDocument encodes doc once for every format a client subscribed to.
// Callers hold h.mu.
func (h *Hub) sendDocument(doc streams.Document) {
	encoded := make(map[string][]byte)
	for client := range h.clients {
		format := client.Format()
		data, ok := encoded[format]
		if !ok {
			f, err := h.registry.Get(format)
			if err != nil {
				h.logger.Error("Unknown client format", zap.String("format", format), zap.Error(err))
				continue
			}
			document, err := f.Format(doc)
			if err != nil {
				h.logger.Error("Failed to format broadcast document",
					zap.String("format", format),
					zap.Error(err))
				continue
			}
			data, err = json.Marshal(NewDocumentMessage(f.ID(), document))
			if err != nil {
				h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
				continue
			}
			encoded[format] = data
		}
		h.deliver(client, data)
	}
}

func (h *Hub) sendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}
	for client := range h.clients {
		h.deliver(client, data)
	}
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(client *Client, data []byte) {
	if client.enqueue(data) {
		return
	}
	client.close()
	delete(h.clients, client)
	h.logger.Warn("Client send buffer full, unregistering",
		zap.String("client_id", client.id.String()))
}

// add registers a client; it reports false once the hub has stopped.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// BroadcastDocument queues an ingested document for every client.
func (h *Hub) BroadcastDocument(doc streams.Document) {
	select {
	case h.broadcast <- outbound{doc: &doc}:
	default:
		h.logger.Warn("Hub broadcast channel full, document dropped",
			zap.Int("observations", doc.Len()))
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- outbound{msg: &msg}:
	default:
		h.logger.Warn("Hub broadcast channel full, message dropped",
			zap.String("message_type", string(msg.Type)))
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) updateClientGauge() {
	if h.metrics != nil {
		h.metrics.SetClients(h.GetClientCount())
	}
}

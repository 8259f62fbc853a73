package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EventPublisher, service katmanının subscriber'lara event broadcast etmek için
// kullandığı interface. Service'ler Hub'ın concrete struct'ına bağımlı değildir.
type EventPublisher interface {
	Publish(op string, data any)
}

// Hub, /ws endpoint'ine bağlı subscriber'ları yönetir.
//
// Gateway'den uygulanan kanal değişiklikleri buradan API client'larına iletilir.
// clients: subject (JWT sub) → client set; bir subject'in birden fazla bağlantısı olabilir.
type Hub struct {
	clients    map[string]map[*Client]bool
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	seq        atomic.Int64
	logger     *zap.Logger
}

// NewHub, yeni bir Hub oluşturur. Run ayrı bir goroutine'de başlatılmalıdır.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.Named("hub"),
	}
}

// Run, register/unregister sinyallerini işler. Shutdown çağrılınca döner.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		close(client.send)
		return
	default:
	}

	if _, ok := h.clients[client.subject]; !ok {
		h.clients[client.subject] = make(map[*Client]bool)
	}
	h.clients[client.subject][client] = true

	h.logger.Info("subscriber connected",
		zap.String("subject", client.subject),
		zap.Int("connections", len(h.clients[client.subject])),
	)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.subject]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.subject)
	}
	h.logger.Info("subscriber disconnected", zap.String("subject", client.subject))
}

// Publish, event'i tüm subscriber'lara gönderir.
// Buffer'ı dolu (yavaş) client atlanır ve bağlantısı kapatılır.
func (h *Hub) Publish(op string, data any) {
	event, err := NewEvent(op, data)
	if err != nil {
		h.logger.Error("failed to build broadcast event", zap.String("op", op), zap.Error(err))
		return
	}
	event.Seq = h.seq.Add(1)

	raw, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal broadcast event", zap.String("op", op), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- raw:
			default:
				go h.drop(client)
			}
		}
	}
}

// add, client'ı kaydeder. Hub kapanmışsa false döner.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// drop, client'ı Hub kapanmışsa bloklamadan unregister eder.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Len, bağlı subscriber bağlantı sayısı.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// Shutdown, tüm subscriber bağlantılarını kapatır ve Run'ı sonlandırır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return
	default:
	}
	close(h.done)

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.logger.Info("hub shut down, all subscriber connections closed")
}

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Gateway bağlantı sabitleri
const (
	// gatewayWriteWait: bir frame'i yazmak için maksimum bekleme süresi.
	gatewayWriteWait = 10 * time.Second

	// gatewayMaxMessageSize: guild_create tüm rol/üye/kanal listesini taşır, büyük olabilir.
	gatewayMaxMessageSize = 8 << 20

	defaultHeartbeat  = 30 * time.Second
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
)

// EventHandler, gateway'den gelen her event için çağrılır.
// Çağrılar sıralıdır ve gateway read goroutine'inde yapılır; handler bloklarsa okuma da bloklar.
type EventHandler func(ctx context.Context, event Event)

// GatewayConfig, Gateway parametreleri. Sıfır süreler varsayılanlara düşer.
type GatewayConfig struct {
	URL               string
	Token             string
	HeartbeatInterval time.Duration
	MinBackoff        time.Duration
	MaxBackoff        time.Duration
}

// Gateway, platform gateway'ine bağlanan WebSocket client'ı.
//
// Her bağlantı için iki goroutine çalışır:
//   - read loop (Run'ı çağıran goroutine): frame'leri okur, handler'ı çağırır
//   - heartbeat: periyodik olarak son seq ile heartbeat yazar
//
// gorilla/websocket aynı anda tek bir writer destekler; yazmalar writeMu ile sıralanır.
// Bağlantı koparsa exponential backoff ile yeniden bağlanılır, ctx iptal edilene kadar.
type Gateway struct {
	cfg     GatewayConfig
	handler EventHandler
	logger  *zap.Logger
	dialer  *websocket.Dialer

	seq       atomic.Int64
	connected atomic.Bool
}

// NewGateway, yeni bir Gateway oluşturur. Bağlantı Run ile başlar.
func NewGateway(cfg GatewayConfig, handler EventHandler, logger *zap.Logger) *Gateway {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeat
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = defaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = max(defaultMaxBackoff, cfg.MinBackoff)
	}

	return &Gateway{
		cfg:     cfg,
		handler: handler,
		logger:  logger.Named("gateway"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
	}
}

// LastSeq, işlenen son event'in sıra numarası.
func (g *Gateway) LastSeq() int64 {
	return g.seq.Load()
}

// Connected, şu an açık bir bağlantı olup olmadığını döner (health endpoint için).
func (g *Gateway) Connected() bool {
	return g.connected.Load()
}

// Run, ctx iptal edilene kadar gateway'e bağlı kalır. Her zaman ctx.Err() ile döner.
func (g *Gateway) Run(ctx context.Context) error {
	backoff := g.cfg.MinBackoff

	for {
		started := time.Now()
		err := g.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Bir süre ayakta kalmış bağlantıdan sonra backoff sıfırlanır.
		if time.Since(started) > g.cfg.MaxBackoff {
			backoff = g.cfg.MinBackoff
		}

		g.logger.Warn("gateway connection lost, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", backoff),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff = min(backoff*2, g.cfg.MaxBackoff)
	}
}

// runOnce, tek bir bağlantının ömrü: dial → read loop → kapanış.
func (g *Gateway) runOnce(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bot "+g.cfg.Token)

	conn, resp, err := g.dialer.DialContext(ctx, g.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to dial gateway (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to dial gateway: %w", err)
	}
	defer conn.Close()

	log := g.logger.With(zap.String("session_id", uuid.NewString()))
	log.Info("gateway connected", zap.String("url", g.cfg.URL))

	g.connected.Store(true)
	defer g.connected.Store(false)

	// 3 heartbeat kaçırılırsa bağlantı kopmuş sayılır.
	pongWait := 3 * g.cfg.HeartbeatInterval

	conn.SetReadLimit(gatewayMaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var writeMu sync.Mutex
	write := func(event Event) error {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.SetWriteDeadline(time.Now().Add(gatewayWriteWait)); err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.heartbeatLoop(ctx, done, conn, write, log)
	}()
	defer func() {
		close(done)
		wg.Wait()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read gateway frame: %w", err)
		}
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Warn("dropping malformed gateway frame", zap.Error(err))
			continue
		}

		switch event.Op {
		case OpHeartbeatAck:
			continue
		case OpHeartbeat:
			// Gateway anında heartbeat isteyebilir.
			if err := write(g.heartbeatEvent()); err != nil {
				return fmt.Errorf("failed to answer heartbeat: %w", err)
			}
			continue
		}

		if event.Seq > 0 {
			if last := g.seq.Load(); last > 0 && event.Seq > last+1 {
				log.Warn("gateway sequence gap",
					zap.Int64("last_seq", last),
					zap.Int64("seq", event.Seq),
				)
			}
			g.seq.Store(event.Seq)
		}

		g.handler(ctx, event)
	}
}

// heartbeatLoop, bağlantı açık kaldığı sürece heartbeat yazar.
// ctx iptal edilirse close frame gönderip bağlantıyı kapatır; read loop böylece çözülür.
func (g *Gateway) heartbeatLoop(ctx context.Context, done <-chan struct{}, conn *websocket.Conn, write func(Event) error, log *zap.Logger) {
	ticker := time.NewTicker(g.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown")
			if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(gatewayWriteWait)); err != nil &&
				!errors.Is(err, websocket.ErrCloseSent) {
				log.Debug("failed to send close frame", zap.Error(err))
			}
			conn.Close()
			return

		case <-ticker.C:
			if err := write(g.heartbeatEvent()); err != nil {
				log.Warn("failed to send heartbeat", zap.Error(err))
				conn.Close()
				return
			}
		}
	}
}

func (g *Gateway) heartbeatEvent() Event {
	return Event{
		Op:   OpHeartbeat,
		Data: json.RawMessage(strconv.FormatInt(g.seq.Load(), 10)),
	}
}

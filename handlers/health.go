package handlers

import (
	"net/http"

	"github.com/akinalp/chanperm/pkg"
)

// GatewayStatus, health endpoint'inin gateway durumunu okuduğu interface.
type GatewayStatus interface {
	Connected() bool
	LastSeq() int64
}

// HealthHandler, servis sağlık kontrolü.
type HealthHandler struct {
	gateway GatewayStatus
	guilds  func() int
}

// NewHealthHandler, constructor. guilds cache'teki guild sayısını döner.
func NewHealthHandler(gateway GatewayStatus, guilds func() int) *HealthHandler {
	return &HealthHandler{gateway: gateway, guilds: guilds}
}

type healthResponse struct {
	Status           string `json:"status"`
	GatewayConnected bool   `json:"gateway_connected"`
	LastSeq          int64  `json:"last_seq"`
	Guilds           int    `json:"guilds"`
}

// Health godoc
// GET /api/health
// Gateway bağlı değilse de 200 döner; cache snapshot'lardan hizmet vermeye devam eder.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:           "ok",
		GatewayConnected: h.gateway.Connected(),
		LastSeq:          h.gateway.LastSeq(),
		Guilds:           h.guilds(),
	}
	if !resp.GatewayConnected {
		resp.Status = "degraded"
	}

	pkg.JSON(w, http.StatusOK, resp)
}

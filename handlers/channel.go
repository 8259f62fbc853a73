package handlers

import (
	"net/http"
	"net/url"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
	"github.com/akinalp/chanperm/services"
)

// ReasonHeader, mutation isteklerinde audit log sebebini taşıyan header.
// Değer URL-encoded gelebilir, upstream'e tekrar encode edilerek iletilir.
const ReasonHeader = "X-Audit-Log-Reason"

// ChannelHandler, kanal endpoint'lerini yöneten struct.
type ChannelHandler struct {
	channelService services.ChannelService
}

// NewChannelHandler, constructor.
func NewChannelHandler(channelService services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// permissionsResponse, GET .../permissions/{memberId} yanıtı.
// Permission JSON'da decimal string olarak yazılır.
type permissionsResponse struct {
	ChannelID   string            `json:"channel_id"`
	MemberID    string            `json:"member_id"`
	Permissions models.Permission `json:"permissions"`
}

// Get godoc
// GET /api/channels/{id}
// Kanalın güncel snapshot'ını döner.
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.channelService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, snapshot)
}

// ListByGuild godoc
// GET /api/guilds/{guildId}/channels
func (h *ChannelHandler) ListByGuild(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channelService.ListByGuild(r.Context(), r.PathValue("guildId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channels)
}

// Permissions godoc
// GET /api/channels/{id}/permissions/{memberId}
// Üyenin kanaldaki effective permission'ını hesaplar.
func (h *ChannelHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")
	memberID := r.PathValue("memberId")

	perms, err := h.channelService.ResolvePermissions(r.Context(), channelID, memberID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, permissionsResponse{
		ChannelID:   channelID,
		MemberID:    memberID,
		Permissions: perms,
	})
}

// Update godoc
// PATCH /api/channels/{id}
// Düzenleme upstream'e iletilir; yerel state gateway event'i ile güncellenir.
func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	var opts models.EditChannelOptions
	if err := pkg.DecodeJSON(r, &opts); err != nil {
		pkg.Error(w, err)
		return
	}

	edited, err := h.channelService.Edit(r.Context(), r.PathValue("id"), opts, reason(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, edited)
}

// Delete godoc
// DELETE /api/channels/{id}
func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.channelService.Delete(r.Context(), r.PathValue("id"), reason(r)); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "channel deleted"})
}

// EditPermission godoc
// PUT /api/channels/{id}/permissions/{overwriteId}
// Body: { "allow": "2048", "deny": "0", "type": 0 }
func (h *ChannelHandler) EditPermission(w http.ResponseWriter, r *http.Request) {
	var req models.EditPermissionRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	err := h.channelService.EditPermission(r.Context(), r.PathValue("id"), r.PathValue("overwriteId"), &req, reason(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "permission overwrite saved"})
}

// DeletePermission godoc
// DELETE /api/channels/{id}/permissions/{overwriteId}
func (h *ChannelHandler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	err := h.channelService.DeletePermission(r.Context(), r.PathValue("id"), r.PathValue("overwriteId"), reason(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "permission overwrite deleted"})
}

// EditPosition godoc
// PATCH /api/channels/{id}/position
// Body: { "position": 2, "lock_permissions": true, "parent_id": "cat1" }
func (h *ChannelHandler) EditPosition(w http.ResponseWriter, r *http.Request) {
	var req models.EditPositionRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.channelService.EditPosition(r.Context(), r.PathValue("id"), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "channel moved"})
}

// reason, audit log sebebini header'dan okur. Encode edilmemiş değer aynen kullanılır.
func reason(r *http.Request) string {
	raw := r.Header.Get(ReasonHeader)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

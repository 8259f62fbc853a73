package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
)

// fakeChannelService, son çağrının argümanlarını kaydeder.
type fakeChannelService struct {
	perms  models.Permission
	err    error
	call   string
	reason string
	opts   models.EditChannelOptions
	perm   *models.EditPermissionRequest
	pos    *models.EditPositionRequest
}

func (f *fakeChannelService) Get(_ context.Context, channelID string) (*models.ChannelPayload, error) {
	f.call = "get:" + channelID
	if f.err != nil {
		return nil, f.err
	}
	name := "general"
	return &models.ChannelPayload{ID: channelID, GuildID: "g1", Name: &name, ParentID: models.NullID()}, nil
}

func (f *fakeChannelService) ListByGuild(_ context.Context, guildID string) ([]models.ChannelPayload, error) {
	f.call = "list:" + guildID
	return []models.ChannelPayload{{ID: "c1", GuildID: guildID}}, f.err
}

func (f *fakeChannelService) ResolvePermissions(_ context.Context, channelID, memberID string) (models.Permission, error) {
	f.call = "resolve:" + channelID + ":" + memberID
	return f.perms, f.err
}

func (f *fakeChannelService) Delete(_ context.Context, channelID, reason string) error {
	f.call, f.reason = "delete:"+channelID, reason
	return f.err
}

func (f *fakeChannelService) DeletePermission(_ context.Context, channelID, overwriteID, reason string) error {
	f.call, f.reason = "delete_permission:"+channelID+":"+overwriteID, reason
	return f.err
}

func (f *fakeChannelService) Edit(_ context.Context, channelID string, opts models.EditChannelOptions, reason string) (*models.ChannelPayload, error) {
	f.call, f.reason, f.opts = "edit:"+channelID, reason, opts
	if f.err != nil {
		return nil, f.err
	}
	return &models.ChannelPayload{ID: channelID, Name: opts.Name}, nil
}

func (f *fakeChannelService) EditPermission(_ context.Context, channelID, overwriteID string, req *models.EditPermissionRequest, reason string) error {
	f.call, f.reason, f.perm = "edit_permission:"+channelID+":"+overwriteID, reason, req
	return f.err
}

func (f *fakeChannelService) EditPosition(_ context.Context, channelID string, req *models.EditPositionRequest) error {
	f.call, f.pos = "edit_position:"+channelID, req
	return f.err
}

func newChannelMux(svc *fakeChannelService) *http.ServeMux {
	h := NewChannelHandler(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/channels/{id}", h.Get)
	mux.HandleFunc("GET /api/guilds/{guildId}/channels", h.ListByGuild)
	mux.HandleFunc("GET /api/channels/{id}/permissions/{memberId}", h.Permissions)
	mux.HandleFunc("PATCH /api/channels/{id}", h.Update)
	mux.HandleFunc("DELETE /api/channels/{id}", h.Delete)
	mux.HandleFunc("PUT /api/channels/{id}/permissions/{overwriteId}", h.EditPermission)
	mux.HandleFunc("DELETE /api/channels/{id}/permissions/{overwriteId}", h.DeletePermission)
	mux.HandleFunc("PATCH /api/channels/{id}/position", h.EditPosition)
	return mux
}

func serve(mux http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestChannelHandler_Permissions(t *testing.T) {
	svc := &fakeChannelService{perms: 1<<63 | 3072}
	rec := serve(newChannelMux(svc), http.MethodGet, "/api/channels/c1/permissions/m1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "resolve:c1:m1", svc.call)
	assert.JSONEq(t, `{"success":true,"data":{
		"channel_id":"c1","member_id":"m1","permissions":"9223372036854778880"
	}}`, rec.Body.String())
}

func TestChannelHandler_Get(t *testing.T) {
	svc := &fakeChannelService{}
	rec := serve(newChannelMux(svc), http.MethodGet, "/api/channels/c1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"c1","guild_id":"g1","name":"general","parent_id":null}}`, rec.Body.String())
}

func TestChannelHandler_ListByGuild(t *testing.T) {
	svc := &fakeChannelService{}
	rec := serve(newChannelMux(svc), http.MethodGet, "/api/guilds/g7/channels", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "list:g7", svc.call)
}

func TestChannelHandler_ErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{pkg.ErrNotFound, http.StatusNotFound},
		{pkg.ErrForbidden, http.StatusForbidden},
		{pkg.ErrBadRequest, http.StatusBadRequest},
		{pkg.ErrUpstream, http.StatusBadGateway},
	}
	for _, tt := range tests {
		svc := &fakeChannelService{err: tt.err}
		rec := serve(newChannelMux(svc), http.MethodGet, "/api/channels/c1/permissions/m1", "")
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.Contains(t, rec.Body.String(), `"success":false`)
	}
}

func TestChannelHandler_Update(t *testing.T) {
	svc := &fakeChannelService{}
	rec := serve(newChannelMux(svc), http.MethodPatch, "/api/channels/c1",
		`{"name":"renamed","parent_id":null}`,
		"X-Audit-Log-Reason", "tidy%20up")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edit:c1", svc.call)
	assert.Equal(t, "tidy up", svc.reason)
	require.NotNil(t, svc.opts.Name)
	assert.Equal(t, "renamed", *svc.opts.Name)
	assert.True(t, svc.opts.ParentID.Present)
	assert.Nil(t, svc.opts.ParentID.Value)
}

func TestChannelHandler_UpdateInvalidBody(t *testing.T) {
	svc := &fakeChannelService{}
	rec := serve(newChannelMux(svc), http.MethodPatch, "/api/channels/c1", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.call)
}

func TestChannelHandler_Delete(t *testing.T) {
	svc := &fakeChannelService{}
	rec := serve(newChannelMux(svc), http.MethodDelete, "/api/channels/c1", "", "X-Audit-Log-Reason", "raw reason")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "delete:c1", svc.call)
	assert.Equal(t, "raw reason", svc.reason)
}

func TestChannelHandler_EditPermission(t *testing.T) {
	svc := &fakeChannelService{}
	rec := serve(newChannelMux(svc), http.MethodPut, "/api/channels/c1/permissions/role-a",
		`{"allow":"2048","deny":1024,"type":0}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edit_permission:c1:role-a", svc.call)
	require.NotNil(t, svc.perm)
	assert.Equal(t, models.PermSendMessages, svc.perm.Allow)
	assert.Equal(t, models.PermViewChannel, svc.perm.Deny)
	assert.Equal(t, models.OverwriteRole, svc.perm.Type)
}

func TestChannelHandler_DeletePermission(t *testing.T) {
	svc := &fakeChannelService{}
	rec := serve(newChannelMux(svc), http.MethodDelete, "/api/channels/c1/permissions/m1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "delete_permission:c1:m1", svc.call)
	assert.Empty(t, svc.reason)
}

func TestChannelHandler_EditPosition(t *testing.T) {
	svc := &fakeChannelService{}
	rec := serve(newChannelMux(svc), http.MethodPatch, "/api/channels/c1/position",
		`{"position":3,"lock_permissions":true,"parent_id":"cat1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.pos)
	assert.Equal(t, 3, svc.pos.Position)
	require.NotNil(t, svc.pos.LockPermissions)
	assert.True(t, *svc.pos.LockPermissions)
	require.NotNil(t, svc.pos.ParentID.Value)
	assert.Equal(t, "cat1", *svc.pos.ParentID.Value)
}

type fakeGatewayStatus struct {
	connected bool
	seq       int64
}

func (f fakeGatewayStatus) Connected() bool { return f.connected }
func (f fakeGatewayStatus) LastSeq() int64  { return f.seq }

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(fakeGatewayStatus{connected: true, seq: 42}, func() int { return 3 })
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok","gateway_connected":true,"last_seq":42,"guilds":3}}`, rec.Body.String())

	h = NewHealthHandler(fakeGatewayStatus{}, func() int { return 0 })
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler()

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	claims := &models.TokenClaims{Scope: models.ScopeWrite}
	claims.Subject = "svc-1"
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), ClaimsContextKey, claims))

	rec = httptest.NewRecorder()
	h.Me(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"subject":"svc-1","scope":"write"}}`, rec.Body.String())
}

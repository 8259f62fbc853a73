package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

func newTestClient(t *testing.T, status int, response string) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return NewClient(server.URL+"/api/", "bot-token", 5*time.Second, zap.NewNop()), &requests
}

func TestClient_DeleteChannel(t *testing.T) {
	client, requests := newTestClient(t, http.StatusNoContent, "")

	require.NoError(t, client.DeleteChannel(context.Background(), "c1", "spring cleaning"))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/api/channels/c1", req.Path)
	assert.Equal(t, "Bot bot-token", req.Header.Get("Authorization"))
	assert.Equal(t, "spring%20cleaning", req.Header.Get("X-Audit-Log-Reason"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
	assert.Empty(t, req.Body)
}

func TestClient_NoReasonHeaderWhenEmpty(t *testing.T) {
	client, requests := newTestClient(t, http.StatusNoContent, "")

	require.NoError(t, client.DeleteChannelPermission(context.Background(), "c1", "role-a", ""))

	req := (*requests)[0]
	assert.Equal(t, "/api/channels/c1/permissions/role-a", req.Path)
	_, present := req.Header["X-Audit-Log-Reason"]
	assert.False(t, present)
}

func TestClient_EditChannelPermission(t *testing.T) {
	client, requests := newTestClient(t, http.StatusNoContent, "")

	err := client.EditChannelPermission(context.Background(), "c1", "m1",
		models.PermSendMessages, models.PermViewChannel, models.OverwriteMember, "")
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/channels/c1/permissions/m1", req.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"allow":"2048","deny":"1024","type":1}`, req.Body)
}

func TestClient_EditChannelReturnsPayload(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{"id":"c1","name":"renamed","parent_id":null}`)

	name := "renamed"
	out, err := client.EditChannel(context.Background(), "c1", models.EditChannelOptions{
		Name:     &name,
		ParentID: models.NullID(),
	}, "rename")
	require.NoError(t, err)

	assert.Equal(t, "c1", out.ID)
	require.NotNil(t, out.Name)
	assert.Equal(t, "renamed", *out.Name)
	assert.True(t, out.ParentID.Present)
	assert.Nil(t, out.ParentID.Value)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.JSONEq(t, `{"name":"renamed","parent_id":null}`, req.Body)
}

func TestClient_EditChannelPosition(t *testing.T) {
	client, requests := newTestClient(t, http.StatusNoContent, "")

	lock := true
	err := client.EditChannelPosition(context.Background(), "g1", "c1", 3, models.PositionOptions{
		LockPermissions: &lock,
		ParentID:        models.SomeID("cat1"),
	})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/api/guilds/g1/channels", req.Path)

	var body []map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, []map[string]any{{
		"id": "c1", "position": float64(3), "lock_permissions": true, "parent_id": "cat1",
	}}, body)
}

func TestClient_ErrorStatusMapsToSentinel(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		want    error
		message string
	}{
		{http.StatusNotFound, `{"message":"Unknown Channel"}`, pkg.ErrNotFound, "Unknown Channel"},
		{http.StatusForbidden, `{"error":"Missing Permissions"}`, pkg.ErrForbidden, "Missing Permissions"},
		{http.StatusUnauthorized, ``, pkg.ErrUnauthorized, ""},
		{http.StatusBadRequest, `plain text`, pkg.ErrBadRequest, "plain text"},
		{http.StatusTooManyRequests, `{}`, pkg.ErrRateLimited, "{}"},
		{http.StatusInternalServerError, ``, pkg.ErrUpstream, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client, _ := newTestClient(t, tt.status, tt.body)

			err := client.DeleteChannel(context.Background(), "c1", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var restErr *Error
			require.True(t, errors.As(err, &restErr))
			assert.Equal(t, tt.status, restErr.Status)
			assert.Equal(t, tt.message, restErr.Message)
		})
	}
}

func TestClient_TransportErrorIsUpstream(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(server.URL, "t", time.Second, zap.NewNop())
	err := client.DeleteChannel(context.Background(), "c1", "")
	assert.ErrorIs(t, err, pkg.ErrUpstream)
}

func TestClient_CanceledContext(t *testing.T) {
	client, requests := newTestClient(t, http.StatusNoContent, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.DeleteChannel(ctx, "c1", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *requests)
}

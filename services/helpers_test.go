package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
	"github.com/akinalp/chanperm/ws"
)

// fakeMutator, mutation çağrılarını kaydeder ve err'i döner.
type fakeMutator struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeMutator) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeMutator) DeleteChannel(_ context.Context, channelID, reason string) error {
	return f.record("delete:" + channelID + ":" + reason)
}

func (f *fakeMutator) DeleteChannelPermission(_ context.Context, channelID, overwriteID, reason string) error {
	return f.record("delete_permission:" + channelID + ":" + overwriteID + ":" + reason)
}

func (f *fakeMutator) EditChannel(_ context.Context, channelID string, opts models.EditChannelOptions, reason string) (*models.ChannelPayload, error) {
	if err := f.record("edit:" + channelID + ":" + reason); err != nil {
		return nil, err
	}
	return &models.ChannelPayload{ID: channelID, Name: opts.Name}, nil
}

func (f *fakeMutator) EditChannelPermission(_ context.Context, channelID, overwriteID string, allow, deny models.Permission, typ models.OverwriteType, reason string) error {
	return f.record("edit_permission:" + channelID + ":" + overwriteID + ":" + allow.String() + ":" + deny.String() + ":" + reason)
}

func (f *fakeMutator) EditChannelPosition(_ context.Context, guildID, channelID string, position int, _ models.PositionOptions) error {
	return f.record("edit_position:" + guildID + ":" + channelID)
}

// memRepo, in-memory ChannelRepository.
type memRepo struct {
	mu        sync.Mutex
	snapshots map[string]models.ChannelPayload
}

func newMemRepo() *memRepo {
	return &memRepo{snapshots: make(map[string]models.ChannelPayload)}
}

func (r *memRepo) Save(_ context.Context, s models.ChannelPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[s.ID] = s
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snapshots[id]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.snapshots, id)
	return nil
}

func (r *memRepo) DeleteByGuild(_ context.Context, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.snapshots {
		if s.GuildID == guildID {
			delete(r.snapshots, id)
		}
	}
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*models.ChannelPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snapshots[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &s, nil
}

func (r *memRepo) ListByGuild(ctx context.Context, guildID string) ([]models.ChannelPayload, error) {
	all, _ := r.List(ctx)
	var out []models.ChannelPayload
	for _, s := range all {
		if s.GuildID == guildID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) List(context.Context) ([]models.ChannelPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ChannelPayload, 0, len(r.snapshots))
	for _, s := range r.snapshots {
		out = append(out, s)
	}
	return out, nil
}

func (r *memRepo) has(id string) bool {
	_, err := r.GetByID(context.Background(), id)
	return err == nil
}

// recordingHub, publish edilen op'ları kaydeder.
type recordingHub struct {
	ops []string
}

func (h *recordingHub) Publish(op string, _ any) {
	h.ops = append(h.ops, op)
}

func event(t *testing.T, op string, data any) ws.Event {
	t.Helper()
	e, err := ws.NewEvent(op, data)
	require.NoError(t, err)
	return e
}

func rawEvent(op, data string) ws.Event {
	return ws.Event{Op: op, Data: json.RawMessage(data)}
}

func ptr[T any](v T) *T { return &v }

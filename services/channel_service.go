package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
	"github.com/akinalp/chanperm/repository"
)

// ChannelService, kanal okuma, permission resolution ve mutation facade'ı.
type ChannelService interface {
	// Get, kanalın güncel snapshot'ını döner. Kanal yoksa pkg.ErrNotFound.
	Get(ctx context.Context, channelID string) (*models.ChannelPayload, error)
	// ListByGuild, guild'in kanallarını position sırasıyla döner. Guild yoksa pkg.ErrNotFound.
	ListByGuild(ctx context.Context, guildID string) ([]models.ChannelPayload, error)
	// ResolvePermissions, üyenin kanaldaki effective permission'ını döner.
	ResolvePermissions(ctx context.Context, channelID, memberID string) (models.Permission, error)

	Delete(ctx context.Context, channelID, reason string) error
	DeletePermission(ctx context.Context, channelID, overwriteID, reason string) error
	Edit(ctx context.Context, channelID string, opts models.EditChannelOptions, reason string) (*models.ChannelPayload, error)
	EditPermission(ctx context.Context, channelID, overwriteID string, req *models.EditPermissionRequest, reason string) error
	EditPosition(ctx context.Context, channelID string, req *models.EditPositionRequest) error
}

// channelService, ChannelService'in implementasyonu.
type channelService struct {
	cache *repository.GuildCache
	perms *PermissionCache
}

// NewChannelService, constructor. perms nil olabilir (memoization kapalı).
func NewChannelService(cache *repository.GuildCache, perms *PermissionCache) ChannelService {
	return &channelService{
		cache: cache,
		perms: perms,
	}
}

func (s *channelService) Get(ctx context.Context, channelID string) (*models.ChannelPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snapshot *models.ChannelPayload
	s.cache.Read(func() {
		if ch, ok := s.cache.Channel(channelID); ok {
			p := ch.Payload()
			snapshot = &p
		}
	})
	if snapshot == nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, pkg.ErrNotFound)
	}
	return snapshot, nil
}

func (s *channelService) ListByGuild(ctx context.Context, guildID string) ([]models.ChannelPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		snapshots []models.ChannelPayload
		found     bool
	)
	s.cache.Read(func() {
		g, ok := s.cache.CachedGuild(guildID)
		if !ok {
			return
		}
		found = true
		snapshots = make([]models.ChannelPayload, 0, len(g.Channels))
		for _, ch := range g.Channels {
			snapshots = append(snapshots, ch.Payload())
		}
	})
	if !found {
		return nil, fmt.Errorf("guild %s: %w", guildID, pkg.ErrNotFound)
	}

	slices.SortFunc(snapshots, func(a, b models.ChannelPayload) int {
		return cmp.Or(cmp.Compare(*a.Position, *b.Position), cmp.Compare(a.ID, b.ID))
	})
	return snapshots, nil
}

// ResolvePermissions, resolution'ı cache read lock'u altında yapar.
// Sonuç da lock bırakılmadan memoize edilir; gateway writer'ı invalidation'ı
// write lock altında yaptığı için bayat bir değer cache'te kalmaz.
func (s *channelService) ResolvePermissions(ctx context.Context, channelID, memberID string) (models.Permission, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var (
		result models.Permission
		found  bool
	)
	s.cache.Read(func() {
		ch, ok := s.cache.Channel(channelID)
		if !ok {
			return
		}
		found = true

		key := PermissionKey{GuildID: ch.GuildID, ChannelID: channelID, MemberID: memberID}
		if s.perms != nil {
			if p, ok := s.perms.Get(key); ok {
				result = p
				return
			}
		}

		result = ch.PermissionsOf(memberID)
		if s.perms != nil {
			s.perms.Set(key, result)
		}
	})
	if !found {
		return 0, fmt.Errorf("channel %s: %w", channelID, pkg.ErrNotFound)
	}
	return result, nil
}

// channel, kanalı read lock altında bulur. Mutation'lar lock dışında çalışır:
// kanalın ID, GuildID ve client'ı oluşturulduktan sonra değişmez.
func (s *channelService) channel(channelID string) (*models.GuildChannel, error) {
	var ch *models.GuildChannel
	s.cache.Read(func() {
		ch, _ = s.cache.Channel(channelID)
	})
	if ch == nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, pkg.ErrNotFound)
	}
	return ch, nil
}

func (s *channelService) Delete(ctx context.Context, channelID, reason string) error {
	ch, err := s.channel(channelID)
	if err != nil {
		return err
	}
	if err := ch.Delete(ctx, reason); err != nil {
		return fmt.Errorf("failed to delete channel %s: %w", channelID, err)
	}
	return nil
}

func (s *channelService) DeletePermission(ctx context.Context, channelID, overwriteID, reason string) error {
	ch, err := s.channel(channelID)
	if err != nil {
		return err
	}
	if err := ch.DeletePermission(ctx, overwriteID, reason); err != nil {
		return fmt.Errorf("failed to delete overwrite %s on channel %s: %w", overwriteID, channelID, err)
	}
	return nil
}

func (s *channelService) Edit(ctx context.Context, channelID string, opts models.EditChannelOptions, reason string) (*models.ChannelPayload, error) {
	ch, err := s.channel(channelID)
	if err != nil {
		return nil, err
	}
	edited, err := ch.Edit(ctx, opts, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to edit channel %s: %w", channelID, err)
	}
	return edited, nil
}

func (s *channelService) EditPermission(ctx context.Context, channelID, overwriteID string, req *models.EditPermissionRequest, reason string) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	ch, err := s.channel(channelID)
	if err != nil {
		return err
	}
	if err := ch.EditPermission(ctx, overwriteID, req.Allow, req.Deny, req.Type, reason); err != nil {
		return fmt.Errorf("failed to edit overwrite %s on channel %s: %w", overwriteID, channelID, err)
	}
	return nil
}

func (s *channelService) EditPosition(ctx context.Context, channelID string, req *models.EditPositionRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	ch, err := s.channel(channelID)
	if err != nil {
		return err
	}
	opts := models.PositionOptions{LockPermissions: req.LockPermissions, ParentID: req.ParentID}
	if err := ch.EditPosition(ctx, req.Position, opts); err != nil {
		return fmt.Errorf("failed to move channel %s: %w", channelID, err)
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
	"github.com/akinalp/chanperm/repository"
	"github.com/akinalp/chanperm/ws"
)

// GatewayService, gateway event'lerini guild cache'ine uygular.
//
// Dispatch tek bir goroutine'den (gateway read loop) çağrılır; kanal modeli için
// tek writer burasıdır. Her event GuildCache.Write altında uygulanır, permission
// cache aynı lock altında invalidate edilir.
type GatewayService interface {
	// Dispatch, ws.EventHandler imzasını karşılar.
	Dispatch(ctx context.Context, event ws.Event)
	// Rehydrate, saklanan kanal snapshot'larını cache'e yükler (startup).
	Rehydrate(ctx context.Context) (int, error)
}

// channelClient, kanalların guild lookup'ı ve mutation'ları için kullandığı client.
type channelClient struct {
	models.GuildLookup
	models.ChannelMutator
}

// NewChannelClient, lookup ve mutator'ı tek bir models.Client'ta birleştirir.
func NewChannelClient(lookup models.GuildLookup, mutator models.ChannelMutator) models.Client {
	return channelClient{GuildLookup: lookup, ChannelMutator: mutator}
}

type gatewayService struct {
	cache       *repository.GuildCache
	channelRepo repository.ChannelRepository
	perms       *PermissionCache
	client      models.Client
	hub         ws.EventPublisher
	logger      *zap.Logger
}

// NewGatewayService, constructor. perms ve hub nil olabilir.
func NewGatewayService(
	cache *repository.GuildCache,
	channelRepo repository.ChannelRepository,
	perms *PermissionCache,
	client models.Client,
	hub ws.EventPublisher,
	logger *zap.Logger,
) GatewayService {
	return &gatewayService{
		cache:       cache,
		channelRepo: channelRepo,
		perms:       perms,
		client:      client,
		hub:         hub,
		logger:      logger.Named("gateway_service"),
	}
}

func (s *gatewayService) Dispatch(ctx context.Context, event ws.Event) {
	log := s.logger.With(zap.String("op", event.Op), zap.Int64("seq", event.Seq))

	var err error
	switch event.Op {
	case ws.OpReady:
		log.Info("gateway ready")
	case ws.OpGuildCreate:
		err = s.guildCreate(ctx, event)
	case ws.OpGuildDelete:
		err = s.guildDelete(ctx, event)
	case ws.OpGuildRoleCreate, ws.OpGuildRoleUpdate:
		err = s.roleUpsert(event)
	case ws.OpGuildRoleDelete:
		err = s.roleDelete(event)
	case ws.OpGuildMemberAdd, ws.OpGuildMemberUpdate:
		err = s.memberUpsert(event)
	case ws.OpGuildMemberRemove:
		err = s.memberRemove(event)
	case ws.OpChannelCreate, ws.OpChannelUpdate:
		err = s.channelUpsert(ctx, event)
	case ws.OpChannelDelete:
		err = s.channelDelete(ctx, event)
	default:
		log.Debug("ignoring unknown gateway op")
		return
	}

	// Bozuk payload event'i düşürür; akış devam eder.
	if err != nil {
		log.Warn("dropping gateway event", zap.Error(err))
	}
}

func (s *gatewayService) guildCreate(ctx context.Context, event ws.Event) error {
	var payload models.GuildPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	if payload.ID == "" {
		return errors.New("guild_create without id")
	}

	var (
		snapshots []models.ChannelPayload
		ops       []string
		stale     []string
	)
	s.cache.Write(func() {
		guild := models.NewGuild(payload.ID)
		guild.Name = payload.Name
		guild.OwnerID = payload.OwnerID
		for _, role := range payload.Roles {
			guild.Roles[role.ID] = role
		}
		for _, member := range payload.Members {
			m := member
			guild.Members[m.ID] = &m
		}

		// Aynı ID'li kanal zaten varsa yerinde güncellenir, yeniden oluşturulmaz.
		old, hadOld := s.cache.CachedGuild(payload.ID)
		for _, p := range payload.Channels {
			p.GuildID = payload.ID
			var ch *models.GuildChannel
			if hadOld {
				ch = old.Channels[p.ID]
			}
			if ch != nil {
				ch.Update(p)
				ops = append(ops, ws.OpChannelUpdate)
			} else {
				ch = models.NewGuildChannel(p, s.client)
				ops = append(ops, ws.OpChannelCreate)
			}
			guild.Channels[ch.ID] = ch
			snapshots = append(snapshots, ch.Payload())
		}
		if hadOld {
			for id := range old.Channels {
				if _, ok := guild.Channels[id]; !ok {
					stale = append(stale, id)
				}
			}
		}

		s.cache.PutGuild(guild)
		invalidateGuild(s.perms, payload.ID)
	})

	for i, snapshot := range snapshots {
		s.persist(ctx, snapshot)
		s.publish(ops[i], snapshot)
	}
	for _, id := range stale {
		s.forget(ctx, id)
		s.publish(ws.OpChannelDelete, ws.ChannelDeleteData{ID: id, GuildID: payload.ID})
	}

	s.logger.Info("guild cached",
		zap.String("guild_id", payload.ID),
		zap.Int("roles", len(payload.Roles)),
		zap.Int("members", len(payload.Members)),
		zap.Int("channels", len(payload.Channels)),
	)
	return nil
}

func (s *gatewayService) guildDelete(ctx context.Context, event ws.Event) error {
	var data ws.GuildDeleteData
	if err := event.Decode(&data); err != nil {
		return err
	}

	s.cache.Write(func() {
		s.cache.RemoveGuild(data.ID)
		invalidateGuild(s.perms, data.ID)
	})

	if err := s.channelRepo.DeleteByGuild(ctx, data.ID); err != nil {
		s.logger.Error("failed to delete guild snapshots", zap.String("guild_id", data.ID), zap.Error(err))
	}
	return nil
}

func (s *gatewayService) roleUpsert(event ws.Event) error {
	var data ws.RoleData
	if err := event.Decode(&data); err != nil {
		return err
	}
	if data.GuildID == "" || data.Role.ID == "" {
		return errors.New("role event without guild_id or role id")
	}

	s.cache.Write(func() {
		guild := s.cache.EnsureGuild(data.GuildID)
		guild.Roles[data.Role.ID] = data.Role
		invalidateGuild(s.perms, data.GuildID)
	})
	return nil
}

func (s *gatewayService) roleDelete(event ws.Event) error {
	var data ws.RoleDeleteData
	if err := event.Decode(&data); err != nil {
		return err
	}

	s.cache.Write(func() {
		guild, ok := s.cache.CachedGuild(data.GuildID)
		if !ok {
			return
		}
		delete(guild.Roles, data.RoleID)
		// Silinen rol üyelerin rol listesinde kalırsa override'ı uygulanmaya devam ederdi.
		for _, member := range guild.Members {
			member.Roles = slices.DeleteFunc(member.Roles, func(id string) bool { return id == data.RoleID })
		}
		invalidateGuild(s.perms, data.GuildID)
	})
	return nil
}

func (s *gatewayService) memberUpsert(event ws.Event) error {
	var data ws.MemberData
	if err := event.Decode(&data); err != nil {
		return err
	}
	if data.GuildID == "" || data.Member.ID == "" {
		return errors.New("member event without guild_id or member id")
	}

	s.cache.Write(func() {
		guild := s.cache.EnsureGuild(data.GuildID)
		member := data.Member
		guild.Members[member.ID] = &member
		invalidateGuild(s.perms, data.GuildID)
	})
	return nil
}

func (s *gatewayService) memberRemove(event ws.Event) error {
	var data ws.MemberRemoveData
	if err := event.Decode(&data); err != nil {
		return err
	}

	s.cache.Write(func() {
		if guild, ok := s.cache.CachedGuild(data.GuildID); ok {
			delete(guild.Members, data.MemberID)
		}
		invalidateGuild(s.perms, data.GuildID)
	})
	return nil
}

// channelUpsert, channel_create ve channel_update'i aynı şekilde işler:
// kanal varsa yerinde Update, yoksa NewGuildChannel.
func (s *gatewayService) channelUpsert(ctx context.Context, event ws.Event) error {
	var payload models.ChannelPayload
	if err := event.Decode(&payload); err != nil {
		return err
	}
	if payload.ID == "" {
		return errors.New("channel event without id")
	}

	var (
		snapshot models.ChannelPayload
		missing  bool
	)
	s.cache.Write(func() {
		if ch, ok := s.cache.Channel(payload.ID); ok {
			ch.Update(payload)
			snapshot = ch.Payload()
			invalidateGuild(s.perms, ch.GuildID)
			return
		}
		if payload.GuildID == "" {
			missing = true
			return
		}
		ch := models.NewGuildChannel(payload, s.client)
		s.cache.PutChannel(ch)
		snapshot = ch.Payload()
		invalidateGuild(s.perms, ch.GuildID)
	})
	if missing {
		return errors.New("new channel without guild_id")
	}

	s.persist(ctx, snapshot)
	s.publish(event.Op, snapshot)
	return nil
}

func (s *gatewayService) channelDelete(ctx context.Context, event ws.Event) error {
	var data ws.ChannelDeleteData
	if err := event.Decode(&data); err != nil {
		return err
	}

	s.cache.Write(func() {
		if ch, ok := s.cache.RemoveChannel(data.ID); ok {
			invalidateGuild(s.perms, ch.GuildID)
		}
	})

	s.forget(ctx, data.ID)
	s.publish(ws.OpChannelDelete, data)
	return nil
}

// Rehydrate, snapshot'ları cache'e yükler. Cache'te zaten olan kanallara dokunmaz.
func (s *gatewayService) Rehydrate(ctx context.Context) (int, error) {
	snapshots, err := s.channelRepo.List(ctx)
	if err != nil {
		return 0, err
	}

	loaded := 0
	s.cache.Write(func() {
		touched := make(map[string]struct{})
		for _, snapshot := range snapshots {
			if _, ok := s.cache.Channel(snapshot.ID); ok {
				continue
			}
			s.cache.PutChannel(models.NewGuildChannel(snapshot, s.client))
			touched[snapshot.GuildID] = struct{}{}
			loaded++
		}
		for guildID := range touched {
			invalidateGuild(s.perms, guildID)
		}
	})

	s.logger.Info("channel snapshots loaded", zap.Int("channels", loaded))
	return loaded, nil
}

// persist, snapshot'ı saklar. Hata event akışını durdurmaz.
func (s *gatewayService) persist(ctx context.Context, snapshot models.ChannelPayload) {
	if err := s.channelRepo.Save(ctx, snapshot); err != nil {
		s.logger.Error("failed to save channel snapshot", zap.String("channel_id", snapshot.ID), zap.Error(err))
	}
}

func (s *gatewayService) forget(ctx context.Context, channelID string) {
	err := s.channelRepo.Delete(ctx, channelID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		s.logger.Error("failed to delete channel snapshot", zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (s *gatewayService) publish(op string, data any) {
	if s.hub != nil {
		s.hub.Publish(op, data)
	}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/chanperm/database"
	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
)

// sqliteChannelRepo, ChannelRepository'nin SQLite implementasyonu.
//
// Tablolar database/migrations/001_init.sql'de tanımlı:
//
//	channels           → kanal satırı (nsfw NULL = payload'da yoktu)
//	channel_overwrites → PRIMARY KEY (channel_id, target_id), ord = payload sırası
type sqliteChannelRepo struct {
	db *sql.DB
}

// NewSQLiteChannelRepo, SQLite tabanlı ChannelRepository oluşturur.
func NewSQLiteChannelRepo(db *sql.DB) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

func (r *sqliteChannelRepo) Save(ctx context.Context, s models.ChannelPayload) error {
	typ := models.ChannelTypeUnset
	if s.Type != nil {
		typ = *s.Type
	}
	var name string
	if s.Name != nil {
		name = *s.Name
	}
	var position int
	if s.Position != nil {
		position = *s.Position
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO channels (id, guild_id, type, name, position, nsfw, parent_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (id) DO UPDATE SET
				guild_id = excluded.guild_id,
				type = excluded.type,
				name = excluded.name,
				position = excluded.position,
				nsfw = excluded.nsfw,
				parent_id = excluded.parent_id,
				updated_at = excluded.updated_at`,
			s.ID, s.GuildID, int(typ), name, position, s.NSFW, s.ParentID.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert channel: %w", err)
		}

		var overwrites []models.PermissionOverwrite
		if s.PermissionOverwrites != nil {
			overwrites = *s.PermissionOverwrites
		}
		return replaceOverwrites(ctx, tx, s.ID, overwrites)
	})
}

// replaceOverwrites, kanalın override'larını bütün olarak değiştirir.
// Aynı target birden fazla geçerse sonraki kazanır, sırası ilk geçtiği yerdir
// (OverwriteTable ile aynı semantik).
func replaceOverwrites(ctx context.Context, q database.TxQuerier, channelID string, overwrites []models.PermissionOverwrite) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM channel_overwrites WHERE channel_id = ?`, channelID); err != nil {
		return fmt.Errorf("failed to clear channel overwrites: %w", err)
	}

	for i, o := range overwrites {
		_, err := q.ExecContext(ctx, `
			INSERT INTO channel_overwrites (channel_id, target_id, type, allow, deny, ord)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (channel_id, target_id) DO UPDATE SET
				type = excluded.type,
				allow = excluded.allow,
				deny = excluded.deny`,
			channelID, o.ID, int(o.Type), o.Allow, o.Deny, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert channel overwrite: %w", err)
		}
	}
	return nil
}

func (r *sqliteChannelRepo) Delete(ctx context.Context, channelID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("channel %s: %w", channelID, pkg.ErrNotFound)
	}

	return nil
}

func (r *sqliteChannelRepo) DeleteByGuild(ctx context.Context, guildID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE guild_id = ?`, guildID); err != nil {
		return fmt.Errorf("failed to delete guild channels: %w", err)
	}
	return nil
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, channelID string) (*models.ChannelPayload, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, guild_id, type, name, position, nsfw, parent_id
		FROM channels WHERE id = ?`, channelID)

	p, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("channel %s: %w", channelID, pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel by id: %w", err)
	}

	overwrites, err := overwritesFor(ctx, r.db, `WHERE channel_id = ?`, channelID)
	if err != nil {
		return nil, err
	}
	list := overwrites[channelID]
	if list == nil {
		list = []models.PermissionOverwrite{}
	}
	p.PermissionOverwrites = &list

	return &p, nil
}

func (r *sqliteChannelRepo) ListByGuild(ctx context.Context, guildID string) ([]models.ChannelPayload, error) {
	return r.list(ctx, `WHERE guild_id = ?`, guildID)
}

func (r *sqliteChannelRepo) List(ctx context.Context) ([]models.ChannelPayload, error) {
	return r.list(ctx, "")
}

// list, kanal satırlarını önce okur, override'ları ikinci sorguyla gruplar.
// Tek bağlantılı havuzda iç içe açık rows olmamalı, bu yüzden iki sorgu sıralı çalışır.
func (r *sqliteChannelRepo) list(ctx context.Context, where string, args ...any) ([]models.ChannelPayload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, guild_id, type, name, position, nsfw, parent_id
		FROM channels `+where+` ORDER BY guild_id, position, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	channels, err := scanChannels(rows)
	if err != nil {
		return nil, err
	}

	overwhere := ""
	if where != "" {
		overwhere = `WHERE channel_id IN (SELECT id FROM channels ` + where + `)`
	}
	overwrites, err := overwritesFor(ctx, r.db, overwhere, args...)
	if err != nil {
		return nil, err
	}

	for i := range channels {
		list := overwrites[channels[i].ID]
		if list == nil {
			list = []models.PermissionOverwrite{}
		}
		channels[i].PermissionOverwrites = &list
	}

	return channels, nil
}

func scanChannels(rows *sql.Rows) ([]models.ChannelPayload, error) {
	defer rows.Close()

	channels := []models.ChannelPayload{}
	for rows.Next() {
		p, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}
	return channels, nil
}

// overwritesFor, override'ları kanal ID'sine göre gruplanmış ve ord sırasıyla döner.
// q, *sql.DB veya açık bir *sql.Tx olabilir.
func overwritesFor(ctx context.Context, q database.TxQuerier, where string, args ...any) (map[string][]models.PermissionOverwrite, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT channel_id, target_id, type, allow, deny FROM channel_overwrites `+where+` ORDER BY channel_id, ord`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel overwrites: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]models.PermissionOverwrite)
	for rows.Next() {
		var channelID string
		var typ int
		var o models.PermissionOverwrite
		if err := rows.Scan(&channelID, &o.ID, &typ, &o.Allow, &o.Deny); err != nil {
			return nil, fmt.Errorf("failed to scan channel overwrite row: %w", err)
		}
		o.Type = models.OverwriteType(typ)
		grouped[channelID] = append(grouped[channelID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel overwrite rows: %w", err)
	}

	return grouped, nil
}

// rowScanner, *sql.Row ve *sql.Rows'un ortak Scan metodu.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(s rowScanner) (models.ChannelPayload, error) {
	var (
		p        models.ChannelPayload
		typ      int
		name     string
		position int
		nsfw     sql.NullBool
		parentID sql.NullString
	)
	if err := s.Scan(&p.ID, &p.GuildID, &typ, &name, &position, &nsfw, &parentID); err != nil {
		return p, err
	}

	channelType := models.ChannelType(typ)
	p.Type = &channelType
	p.Name = &name
	p.Position = &position
	if nsfw.Valid {
		v := nsfw.Bool
		p.NSFW = &v
	}
	if parentID.Valid {
		p.ParentID = models.SomeID(parentID.String)
	} else {
		p.ParentID = models.NullID()
	}

	return p, nil
}

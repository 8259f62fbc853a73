package repository

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/chanperm/models"
)

// lookupOnly, cache'i mutation'sız bir models.Client olarak sunar.
func lookupOnly(c *GuildCache) models.Client {
	return struct {
		*GuildCache
		models.ChannelMutator
	}{c, nil}
}

func TestGuildCache_PutGuildIndexesChannels(t *testing.T) {
	c := NewGuildCache()

	g := models.NewGuild("g1")
	g.Channels["c1"] = models.NewGuildChannel(models.ChannelPayload{ID: "c1", GuildID: "g1"}, lookupOnly(c))

	c.Write(func() { c.PutGuild(g) })

	c.Read(func() {
		got, ok := c.Guild("g1")
		require.True(t, ok)
		assert.Equal(t, "g1", got.GuildID())

		ch, ok := c.Channel("c1")
		require.True(t, ok)
		assert.Equal(t, "c1", ch.ID)
		assert.Equal(t, 1, c.Len())
	})
}

func TestGuildCache_PutGuildReplacesIndex(t *testing.T) {
	c := NewGuildCache()

	old := models.NewGuild("g1")
	old.Channels["c1"] = models.NewGuildChannel(models.ChannelPayload{ID: "c1", GuildID: "g1"}, lookupOnly(c))
	c.PutGuild(old)

	fresh := models.NewGuild("g1")
	fresh.Channels["c2"] = models.NewGuildChannel(models.ChannelPayload{ID: "c2", GuildID: "g1"}, lookupOnly(c))
	c.PutGuild(fresh)

	_, ok := c.Channel("c1")
	assert.False(t, ok)
	_, ok = c.Channel("c2")
	assert.True(t, ok)
}

func TestGuildCache_MissingGuild(t *testing.T) {
	c := NewGuildCache()

	g, ok := c.Guild("nope")
	assert.False(t, ok)
	assert.Nil(t, g)

	ch := models.NewGuildChannel(models.ChannelPayload{ID: "c1", GuildID: "nope"}, lookupOnly(c))
	assert.Equal(t, models.PartialGuild{ID: "nope"}, ch.Guild())
}

func TestGuildCache_PutAndRemoveChannel(t *testing.T) {
	c := NewGuildCache()

	ch := models.NewGuildChannel(models.ChannelPayload{ID: "c1", GuildID: "g1"}, lookupOnly(c))
	c.PutChannel(ch)

	g, ok := c.CachedGuild("g1")
	require.True(t, ok)
	assert.Same(t, ch, g.Channels["c1"])

	removed, ok := c.RemoveChannel("c1")
	require.True(t, ok)
	assert.Same(t, ch, removed)
	assert.Empty(t, g.Channels)

	_, ok = c.RemoveChannel("c1")
	assert.False(t, ok)
}

func TestGuildCache_RemoveGuild(t *testing.T) {
	c := NewGuildCache()
	c.PutChannel(models.NewGuildChannel(models.ChannelPayload{ID: "c1", GuildID: "g1"}, lookupOnly(c)))

	assert.True(t, c.RemoveGuild("g1"))
	assert.False(t, c.RemoveGuild("g1"))

	_, ok := c.Channel("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestGuildCache_EnsureGuildIsIdempotent(t *testing.T) {
	c := NewGuildCache()

	first := c.EnsureGuild("g1")
	first.Name = "named"
	assert.Same(t, first, c.EnsureGuild("g1"))
}

func TestGuildCache_ConcurrentReadersWithWriter(t *testing.T) {
	c := NewGuildCache()
	c.Write(func() {
		g := models.NewGuild("g1")
		g.Roles["g1"] = models.Role{ID: "g1", Permissions: models.PermViewChannel}
		g.Members["m1"] = &models.Member{ID: "m1"}
		c.PutGuild(g)
		c.PutChannel(models.NewGuildChannel(models.ChannelPayload{ID: "c1", GuildID: "g1"}, lookupOnly(c)))
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Read(func() {
					ch, ok := c.Channel("c1")
					if ok {
						_ = ch.PermissionsOf("m1")
					}
				})
			}
		}()
	}

	for j := 0; j < 100; j++ {
		c.Write(func() {
			ch, _ := c.Channel("c1")
			name := "renamed"
			ch.Update(models.ChannelPayload{ID: "c1", Name: &name})
		})
	}
	wg.Wait()

	c.Read(func() {
		ch, _ := c.Channel("c1")
		assert.Equal(t, "renamed", ch.Name)
	})
}

// GuildCount closure dışından çağrılır (health endpoint); writer ile yarışmamalıdır.
func TestGuildCache_GuildCountWithWriter(t *testing.T) {
	c := NewGuildCache()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for j := 0; j < 200; j++ {
			c.Write(func() {
				c.PutGuild(models.NewGuild("g1"))
				c.RemoveGuild("g1")
				c.PutGuild(models.NewGuild("g2"))
			})
		}
	}()

	for j := 0; j < 200; j++ {
		n := c.GuildCount()
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, n, 2)
	}
	<-done

	assert.Equal(t, 1, c.GuildCount())
}

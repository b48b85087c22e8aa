package rdx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	var out []string
	hit, err := c.GetJSON(ctx, "k", &out)
	assert.False(t, hit)
	assert.NoError(t, err)
	assert.NoError(t, c.SetJSON(ctx, "k", []string{"a"}, time.Minute))
	assert.NoError(t, c.Del(ctx, "k"))
	assert.NoError(t, c.Publish(ctx, RentalEventsChannel, map[string]string{"a": "b"}))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(ctx))

	ch, closeFn := c.Subscribe(ctx, RentalEventsChannel)
	assert.NotNil(t, ch)
	assert.NoError(t, closeFn())

	ok, err := c.Lock(ctx, "payment:1", time.Second)
	assert.True(t, ok)
	assert.NoError(t, err)
	c.Unlock(ctx, "payment:1")
}

func TestRememberLoadsOnMiss(t *testing.T) {
	var c *Client
	calls := 0
	var out []map[string]any
	err := Remember(context.Background(), c, KeyActiveBanners, time.Minute, &out, func() (any, error) {
		calls++
		return []map[string]any{{"title": "Summer"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, out, 1)
	assert.Equal(t, "Summer", out[0]["title"])
}

func TestRememberPropagatesLoadError(t *testing.T) {
	var out []string
	err := Remember(context.Background(), nil, "k", time.Minute, &out, func() (any, error) {
		return nil, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}

func TestPublishEventNilClient(t *testing.T) {
	var c *Client
	assert.NotPanics(t, func() {
		c.PublishEvent(context.Background(), Event{Booking: "b1", Kind: KindRental, Action: "pause", Status: "paused"})
	})
}

func TestTokenRevocationWithoutRedis(t *testing.T) {
	var c *Client
	ctx := context.Background()
	assert.NoError(t, c.RevokeToken(ctx, "abc", time.Hour))
	assert.False(t, c.TokenRevoked(ctx, "abc"))

	assert.Equal(t, revokedKey("abc"), revokedKey("abc"))
	assert.NotEqual(t, revokedKey("abc"), revokedKey("abd"))
	assert.True(t, strings.HasPrefix(revokedKey("abc"), "auth:revoked:"))
}

package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RentalEventsChannel carries rental and service request status changes.
const RentalEventsChannel = "rental-events"

// Cache keys for public catalog reads.
const (
	KeyActiveBanners    = "cache:banners:active"
	KeyActiveLocations  = "cache:locations:active"
	KeyLocationStates   = "cache:locations:states"
	KeyFeaturedProducts = "cache:products:featured"
	KeyFeaturedServices = "cache:services:featured"
	KeyActiveAddOns     = "cache:addons:active"
)

// Client wraps a go-redis client. A nil *Client is valid and turns every
// operation into a miss or no-op, so the API keeps working without Redis.
type Client struct {
	Conn *redis.Client
}

func New(addr, password string, db int) *Client {
	return &Client{Conn: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("redis not configured")
	}
	return c.Conn.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.Conn.Close()
}

// GetJSON decodes the cached value at key into out. The bool is false on a miss.
func (c *Client) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.Conn.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores val at key for ttl.
func (c *Client) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.Conn.Set(ctx, key, raw, ttl).Err()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.Conn.Del(ctx, keys...).Err()
}

// Publish sends val as JSON on channel.
func (c *Client) Publish(ctx context.Context, channel string, val any) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.Conn.Publish(ctx, channel, raw).Err()
}

// Subscribe returns the message channel for a pub/sub channel. The returned
// func closes the subscription. A nil client yields a channel that never fires.
func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan *redis.Message, func() error) {
	if c == nil {
		return make(chan *redis.Message), func() error { return nil }
	}
	sub := c.Conn.Subscribe(ctx, channel)
	return sub.Channel(), sub.Close
}

// Remember serves key from cache, or calls load, caches its result and decodes
// it into out. Cache failures are logged and fall through to load.
func Remember(ctx context.Context, c *Client, key string, ttl time.Duration, out any, load func() (any, error)) error {
	hit, err := c.GetJSON(ctx, key, out)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	if hit {
		return nil
	}

	val, err := load()
	if err != nil {
		return err
	}
	if err := c.SetJSON(ctx, key, val, ttl); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Invalidate drops keys, logging rather than failing.
func Invalidate(ctx context.Context, c *Client, keys ...string) {
	if err := c.Del(ctx, keys...); err != nil {
		logrus.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

// Lock takes a short-lived exclusive lock on key. A nil client always
// succeeds, leaving callers single-process safe only.
func (c *Client) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if c == nil {
		return true, nil
	}
	return c.Conn.SetNX(ctx, "lock:"+key, "1", ttl).Result()
}

// Unlock releases a lock taken with Lock.
func (c *Client) Unlock(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.Conn.Del(ctx, "lock:"+key).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("unlock failed")
	}
}

package rdx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"
)

func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:revoked:" + hex.EncodeToString(sum[:])
}

// RevokeToken denies token until ttl passes, which should be its remaining
// lifetime.
func (c *Client) RevokeToken(ctx context.Context, token string, ttl time.Duration) error {
	if c == nil || ttl <= 0 {
		return nil
	}
	return c.Conn.Set(ctx, revokedKey(token), "1", ttl).Err()
}

// TokenRevoked reports whether token was logged out. Lookup failures count
// as not revoked.
func (c *Client) TokenRevoked(ctx context.Context, token string) bool {
	if c == nil {
		return false
	}
	n, err := c.Conn.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		logrus.WithError(err).Warn("token revocation lookup failed")
		return false
	}
	return n > 0
}

// Package verification issues and checks the numeric codes a driver types
// to confirm an offer. Codes live in Redis, hashed, until the acceptance
// deadline of their assignment.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"loadboard-dispatch/internal/apperr"
)

// Config stores code settings.
type Config struct {
	CodeLength int
	MaxResends int
	// Secret salts stored hashes; it is not used for anything else.
	Secret string
}

// Gateway issues, rotates and verifies per-assignment codes.
type Gateway struct {
	rdb    redis.UniversalClient
	cfg    Config
	random io.Reader
}

// NewGateway creates a Gateway backed by rdb.
func NewGateway(rdb redis.UniversalClient, cfg Config) *Gateway {
	if cfg.CodeLength < 4 || cfg.CodeLength > 8 {
		cfg.CodeLength = 6
	}
	if cfg.MaxResends < 0 {
		cfg.MaxResends = 0
	}
	return &Gateway{rdb: rdb, cfg: cfg, random: rand.Reader}
}

func codeKey(assignmentID string) string { return "assignment:code:" + assignmentID }

func (g *Gateway) hash(assignmentID, code string) string {
	sum := sha256.Sum256([]byte(assignmentID + ":" + code + ":" + g.cfg.Secret))
	return hex.EncodeToString(sum[:])
}

func (g *Gateway) generate() (string, error) {
	var b strings.Builder
	for i := 0; i < g.cfg.CodeLength; i++ {
		n, err := rand.Int(g.random, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// Issue creates the first code of an assignment. The stored hash expires at expiresAt.
func (g *Gateway) Issue(ctx context.Context, assignmentID string, expiresAt time.Time) (string, error) {
	code, err := g.generate()
	if err != nil {
		return "", err
	}

	key := codeKey(assignmentID)
	pipe := g.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"hash", g.hash(assignmentID, code),
		"resends", "0",
	)
	pipe.PExpireAt(ctx, key, expiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store code %s: %w", assignmentID, err)
	}
	return code, nil
}

// Verify checks code against the stored hash in constant time.
// A missing entry means the window closed or the code was discarded.
func (g *Gateway) Verify(ctx context.Context, assignmentID, code string) error {
	want, err := g.rdb.HGet(ctx, codeKey(assignmentID), "hash").Result()
	if err == redis.Nil {
		return apperr.ErrAssignmentExpired
	}
	if err != nil {
		return fmt.Errorf("load code %s: %w", assignmentID, err)
	}

	got := g.hash(assignmentID, strings.TrimSpace(code))
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return apperr.ErrCodeMismatch
	}
	return nil
}

// rotateScript replaces the stored hash unless the entry is gone (-1) or the
// resend budget is spent (-2). It returns the resend count on success.
var rotateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local n = tonumber(redis.call('HGET', KEYS[1], 'resends') or '0')
if n >= tonumber(ARGV[2]) then
	return -2
end
redis.call('HSET', KEYS[1], 'hash', ARGV[1], 'resends', tostring(n + 1))
return n + 1
`)

// Resend rotates the code of an assignment. The previous code stops working
// and the expiry is left untouched.
func (g *Gateway) Resend(ctx context.Context, assignmentID string) (string, int, error) {
	code, err := g.generate()
	if err != nil {
		return "", 0, err
	}

	res, err := rotateScript.Run(ctx, g.rdb,
		[]string{codeKey(assignmentID)},
		g.hash(assignmentID, code), strconv.Itoa(g.cfg.MaxResends),
	).Int()
	if err != nil {
		return "", 0, fmt.Errorf("rotate code %s: %w", assignmentID, err)
	}
	switch res {
	case -1:
		return "", 0, apperr.ErrAssignmentExpired
	case -2:
		return "", 0, apperr.ErrResendLimitExceeded
	}
	return code, res, nil
}

// Discard drops the stored code once the assignment is resolved.
func (g *Gateway) Discard(ctx context.Context, assignmentID string) error {
	if err := g.rdb.Del(ctx, codeKey(assignmentID)).Err(); err != nil {
		return fmt.Errorf("discard code %s: %w", assignmentID, err)
	}
	return nil
}

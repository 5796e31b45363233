package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saveplate/marketplace/internal/utils"
)

// ErrQRNotFound is returned when a pickup token does not resolve: it
// never existed, expired, or was already redeemed.
var ErrQRNotFound = errors.New("qr token not found")

// ErrQRUnavailable is returned when no Redis connection is configured,
// in which case QR pickup endpoints respond 503.
var ErrQRUnavailable = errors.New("qr store unavailable")

// QRStore keeps single-use pickup tokens in Redis.  A token maps to its
// transaction ID and disappears either at TTL expiry or on first
// redemption, whichever comes first.  A reverse key per transaction lets
// a buyer re-open the QR screen without minting a second live token.
type QRStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQRStore returns a QRStore with the given token lifetime.  rdb may
// be nil when Redis is down; every method then fails with
// ErrQRUnavailable instead of panicking.
func NewQRStore(rdb *redis.Client, ttl time.Duration) *QRStore {
	return &QRStore{rdb: rdb, ttl: ttl}
}

func qrKey(token string) string  { return "qr:token:" + token }
func qrTxKey(txID uint64) string { return "qr:tx:" + strconv.FormatUint(txID, 10) }

// Issue returns the live token for a transaction, minting one when none
// exists.  Repeated calls within the TTL hand back the same token.
func (s *QRStore) Issue(ctx context.Context, txID uint64) (string, error) {
	if s.rdb == nil {
		return "", ErrQRUnavailable
	}
	if token, err := s.rdb.Get(ctx, qrTxKey(txID)).Result(); err == nil && token != "" {
		return token, nil
	} else if err != nil && err != redis.Nil {
		return "", err
	}
	token := utils.NewQRToken()
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, qrKey(token), txID, s.ttl)
	pipe.Set(ctx, qrTxKey(txID), token, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem consumes a token and returns its transaction ID.  The token is
// deleted atomically with the read, so a second redemption fails with
// ErrQRNotFound.
func (s *QRStore) Redeem(ctx context.Context, token string) (uint64, error) {
	if s.rdb == nil {
		return 0, ErrQRUnavailable
	}
	val, err := s.rdb.GetDel(ctx, qrKey(token)).Result()
	if err == redis.Nil {
		return 0, ErrQRNotFound
	}
	if err != nil {
		return 0, err
	}
	txID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, ErrQRNotFound
	}
	_ = s.rdb.Del(ctx, qrTxKey(txID)).Err() // best-effort reverse cleanup
	return txID, nil
}

package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/SevaDrive/service-ambulance/internal/polyline"
)

// OpenCache opens a badger store for CachedProvider. An empty dir keeps the
// store in memory.
func OpenCache(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return db, nil
}

// CachedProvider serves repeated lookups from badger. Cache failures are
// logged and fall through to the wrapped provider.
type CachedProvider struct {
	db            *badger.DB
	next          Provider
	directionsTTL time.Duration
	geocodeTTL    time.Duration
	logger        *zap.Logger
}

// NewCachedProvider wraps next.
func NewCachedProvider(db *badger.DB, next Provider, directionsTTL, geocodeTTL time.Duration, logger *zap.Logger) *CachedProvider {
	return &CachedProvider{
		db:            db,
		next:          next,
		directionsTTL: directionsTTL,
		geocodeTTL:    geocodeTTL,
		logger:        logger,
	}
}

// Directions implements Provider.
func (p *CachedProvider) Directions(ctx context.Context, origin, destination polyline.Point) (*DirectionsResponse, error) {
	key := []byte("directions:" + formatLatLng(origin) + ":" + formatLatLng(destination))

	var cached DirectionsResponse
	if p.lookup(key, &cached) {
		return &cached, nil
	}

	resp, err := p.next.Directions(ctx, origin, destination)
	if err != nil {
		return nil, err
	}
	// Empty answers are often transient; only routes are remembered.
	if len(resp.Routes) > 0 {
		p.store(key, resp, p.directionsTTL)
	}
	return resp, nil
}

// ReverseGeocode implements Provider.
func (p *CachedProvider) ReverseGeocode(ctx context.Context, pt polyline.Point) (string, error) {
	key := []byte("geocode:" + formatLatLng(pt))

	var cached string
	if p.lookup(key, &cached) {
		return cached, nil
	}

	address, err := p.next.ReverseGeocode(ctx, pt)
	if err != nil {
		return "", err
	}
	p.store(key, address, p.geocodeTTL)
	return address, nil
}

func (p *CachedProvider) lookup(key []byte, out interface{}) bool {
	var raw []byte
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			p.logger.Warn("cache read failed", zap.ByteString("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		p.logger.Warn("cache entry corrupt", zap.ByteString("key", key), zap.Error(err))
		return false
	}
	return true
}

func (p *CachedProvider) store(key []byte, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("cache encode failed", zap.ByteString("key", key), zap.Error(err))
		return
	}

	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, raw).WithTTL(ttl))
	})
	if err != nil {
		p.logger.Warn("cache write failed", zap.ByteString("key", key), zap.Error(err))
	}
}

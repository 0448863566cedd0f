package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

// CursorStore remembers the next feed offset between runs.
type CursorStore interface {
	Load(ctx context.Context, feed string) (offset int, ok bool, err error)
	Save(ctx context.Context, feed string, offset int) error
	Close() error
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type cursorStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewCursorStore(ctx context.Context, log *logger.Logger, cfg Config) (CursorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, types.ConfigurationError("redis.cursor", "missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "catalog:cursor"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &cursorStore{
		log:    log.With("service", "RedisCursorStore"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func cursorKey(prefix, feed string) string {
	feed = strings.ToLower(strings.TrimSpace(feed))
	if feed == "" {
		feed = "default"
	}
	return prefix + ":" + feed
}

func (s *cursorStore) Load(ctx context.Context, feed string) (int, bool, error) {
	raw, err := s.rdb.Get(ctx, cursorKey(s.prefix, feed)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get cursor: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		s.log.Warn("Ignoring malformed feed cursor", "feed", feed, "value", raw)
		return 0, false, nil
	}
	return n, true, nil
}

func (s *cursorStore) Save(ctx context.Context, feed string, offset int) error {
	if offset < 0 {
		offset = 0
	}
	if err := s.rdb.Set(ctx, cursorKey(s.prefix, feed), strconv.Itoa(offset), 0).Err(); err != nil {
		return fmt.Errorf("redis set cursor: %w", err)
	}
	return nil
}

func (s *cursorStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// MemoryCursorStore keeps cursors for the life of the process. It backs runs
// without Redis and tests.
type MemoryCursorStore struct {
	mu      sync.Mutex
	offsets map[string]int
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{offsets: map[string]int{}}
}

func (m *MemoryCursorStore) Load(_ context.Context, feed string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.offsets[cursorKey("", feed)]
	return n, ok, nil
}

func (m *MemoryCursorStore) Save(_ context.Context, feed string, offset int) error {
	if offset < 0 {
		offset = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets[cursorKey("", feed)] = offset
	return nil
}

func (m *MemoryCursorStore) Close() error { return nil }

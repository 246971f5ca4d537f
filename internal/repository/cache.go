package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

const (
	entryKeyPrefix = "entry:"
	genKeySuffix   = ":gen"
)

// fillScript stores a value only while the entry's generation is still the
// one observed before the backing read. Writes bump the generation, so a fill
// that raced a write is dropped instead of resurrecting stale data.
var fillScript = redis.NewScript(`
local g = redis.call('GET', KEYS[2])
if not g then g = '' end
if g ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// CachedEntries is a read-through Redis cache over another EntryRepository.
// Lookups by ID are served from the cache; the full filter is still applied
// to the cached value so owner and archived predicates hold. Every write
// invalidates the key and bumps its generation; fills after a miss are
// conditional on that generation. Redis failures degrade to the underlying
// store.
type CachedEntries struct {
	next   EntryRepository
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewCachedEntries(next EntryRepository, rdb redis.Cmdable, ttl time.Duration, logger *zap.SugaredLogger) *CachedEntries {
	return &CachedEntries{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func entryKey(id string) string {
	return entryKeyPrefix + id
}

func genKey(id string) string {
	return entryKeyPrefix + id + genKeySuffix
}

func (c *CachedEntries) Create(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	created, err := c.next.Create(ctx, e)
	if err != nil {
		return nil, err
	}
	c.put(ctx, created)
	return created, nil
}

func (c *CachedEntries) FindOne(ctx context.Context, f Filter) (*entrymodels.Entry, error) {
	if f.ID == "" {
		return c.next.FindOne(ctx, f)
	}

	if cached, ok := c.get(ctx, f.ID); ok {
		if !f.Matches(cached) {
			return nil, ErrNotFound
		}
		return cached, nil
	}

	gen, genOK := c.generation(ctx, f.ID)
	e, err := c.next.FindOne(ctx, f)
	if err != nil {
		return nil, err
	}
	if genOK {
		c.fill(ctx, e, gen)
	}
	return e, nil
}

func (c *CachedEntries) Find(ctx context.Context, f Filter) ([]*entrymodels.Entry, error) {
	return c.next.Find(ctx, f)
}

func (c *CachedEntries) Save(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	c.invalidate(ctx, e.ID)
	saved, err := c.next.Save(ctx, e)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, e.ID)
	return saved, nil
}

func (c *CachedEntries) DeleteOne(ctx context.Context, f Filter) error {
	if err := c.next.DeleteOne(ctx, f); err != nil {
		return err
	}
	c.invalidate(ctx, f.ID)
	return nil
}

func (c *CachedEntries) get(ctx context.Context, id string) (*entrymodels.Entry, bool) {
	raw, err := c.rdb.Get(ctx, entryKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnw("entry cache read failed", "entry_id", id, "error", err)
		}
		return nil, false
	}

	var e entrymodels.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warnw("entry cache holds undecodable value", "entry_id", id, "error", err)
		c.invalidate(ctx, id)
		return nil, false
	}
	if e.Media == nil {
		e.Media = []entrymodels.Media{}
	}
	return &e, true
}

func (c *CachedEntries) put(ctx context.Context, e *entrymodels.Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		c.logger.Warnw("entry cache encode failed", "entry_id", e.ID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, entryKey(e.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warnw("entry cache write failed", "entry_id", e.ID, "error", err)
	}
}

// generation reads the write counter of an entry; "" when it was never written.
func (c *CachedEntries) generation(ctx context.Context, id string) (string, bool) {
	gen, err := c.rdb.Get(ctx, genKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", true
	}
	if err != nil {
		c.logger.Warnw("entry cache generation read failed", "entry_id", id, "error", err)
		return "", false
	}
	return gen, true
}

func (c *CachedEntries) fill(ctx context.Context, e *entrymodels.Entry, gen string) {
	raw, err := json.Marshal(e)
	if err != nil {
		c.logger.Warnw("entry cache encode failed", "entry_id", e.ID, "error", err)
		return
	}
	keys := []string{entryKey(e.ID), genKey(e.ID)}
	stored, err := fillScript.Run(ctx, c.rdb, keys, gen, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warnw("entry cache write failed", "entry_id", e.ID, "error", err)
		return
	}
	if stored == 0 {
		c.logger.Debugw("entry cache fill skipped, entry changed during read", "entry_id", e.ID)
	}
}

func (c *CachedEntries) invalidate(ctx context.Context, id string) {
	if id == "" {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, entryKey(id))
		pipe.Incr(ctx, genKey(id))
		if c.ttl > 0 {
			pipe.PExpire(ctx, genKey(id), c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warnw("entry cache invalidation failed", "entry_id", id, "error", fmt.Errorf("del %s: %w", entryKey(id), err))
	}
}

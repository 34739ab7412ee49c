// Package kv implements the wardrobe store on Redis: one JSON document per
// record plus sorted-set indexes keyed by creation time.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
)

const (
	tableClothing    = "clothing_item"
	tableReport      = "sustainability_report"
	tableAlternative = "alternative_product"
	maxWatchRetries  = 5
	defaultKeyPrefix = "fitprint"
	redisPingTimeout = 5 * time.Second
	redisDialTimeout = 5 * time.Second
)

type RedisStore struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
}

var _ types.Store = (*RedisStore)(nil)

func NewRedisStore(log *logger.Logger, rdb goredis.UniversalClient, prefix string) *RedisStore {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{log: log.With("store", "RedisWardrobeStore"), rdb: rdb, prefix: prefix}
}

// Dial connects to addr and verifies the server answers PING.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: redisDialTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) recordKey(table, id string) string {
	return s.prefix + ":" + table + ":" + id
}

func (s *RedisStore) indexKey(table string) string {
	return s.prefix + ":" + table + ":index"
}

func (s *RedisStore) byKey(table, field, value string) string {
	return s.prefix + ":" + table + ":by_" + field + ":" + value
}

func score(t time.Time) float64 { return float64(t.UnixMicro()) }

func stamp(t *time.Time, now time.Time) {
	if t.IsZero() {
		*t = now
	}
}

func (s *RedisStore) getJSON(ctx context.Context, key string, out interface{}) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return types.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// mgetJSON loads ids in order, skipping index entries whose document is gone.
func mgetJSON[T any](ctx context.Context, s *RedisStore, table string, ids []string) ([]*T, error) {
	out := make([]*T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(table, id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			s.log.Warn("Skipping undecodable record", "table", table, "id", ids[i], "error", err)
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (s *RedisStore) newest(ctx context.Context, key string, limit int) ([]string, error) {
	return s.rdb.ZRevRange(ctx, key, 0, int64(limit)-1).Result()
}

func (s *RedisStore) oldest(ctx context.Context, key string) ([]string, error) {
	return s.rdb.ZRange(ctx, key, 0, -1).Result()
}

func (s *RedisStore) CreateClothingItem(ctx context.Context, item *types.ClothingItem) error {
	if item == nil {
		return fmt.Errorf("create clothing item: nil item")
	}
	now := time.Now().UTC()
	stamp(&item.CreatedAt, now)
	stamp(&item.UpdatedAt, now)
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("create clothing item: %w", err)
	}
	id := item.ID.String()
	member := goredis.Z{Score: score(item.CreatedAt), Member: id}
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.recordKey(tableClothing, id), raw, 0)
		p.ZAdd(ctx, s.indexKey(tableClothing), member)
		p.ZAdd(ctx, s.byKey(tableClothing, "user", item.UserID), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create clothing item: %w", err)
	}
	return nil
}

func (s *RedisStore) GetClothingItem(ctx context.Context, id uuid.UUID) (*types.ClothingItem, error) {
	var out types.ClothingItem
	if err := s.getJSON(ctx, s.recordKey(tableClothing, id.String()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisStore) UpdateClothingItem(ctx context.Context, id uuid.UUID, patch types.ClothingPatch) (*types.ClothingItem, error) {
	key := s.recordKey(tableClothing, id.String())
	var out types.ClothingItem
	err := s.watchUpdate(ctx, key, &out, func() bool {
		if patch.Empty() {
			return false
		}
		if patch.Brand != nil {
			out.Brand = *patch.Brand
		}
		if patch.ImageURL != nil {
			out.ImageURL = *patch.ImageURL
		}
		out.UpdatedAt = time.Now().UTC()
		return true
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisStore) DeleteClothingItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.GetClothingItem(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.recordKey(tableClothing, id.String()))
		p.ZRem(ctx, s.indexKey(tableClothing), id.String())
		p.ZRem(ctx, s.byKey(tableClothing, "user", item.UserID), id.String())
		return nil
	})
	return err
}

func (s *RedisStore) ScanClothingItems(ctx context.Context, limit int) ([]*types.ClothingItem, error) {
	ids, err := s.newest(ctx, s.indexKey(tableClothing), types.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return mgetJSON[types.ClothingItem](ctx, s, tableClothing, ids)
}

func (s *RedisStore) ListClothingItemsByUser(ctx context.Context, userID string, limit int) ([]*types.ClothingItem, error) {
	ids, err := s.newest(ctx, s.byKey(tableClothing, "user", userID), types.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return mgetJSON[types.ClothingItem](ctx, s, tableClothing, ids)
}

func (s *RedisStore) CreateReport(ctx context.Context, report *types.SustainabilityReport) error {
	if report == nil {
		return fmt.Errorf("create report: nil report")
	}
	now := time.Now().UTC()
	stamp(&report.CreatedAt, now)
	stamp(&report.UpdatedAt, now)
	if report.AlternativeIDs == nil {
		report.AlternativeIDs = datatypes.JSONSlice[string]{}
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	member := goredis.Z{Score: score(report.CreatedAt), Member: report.ID}
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.recordKey(tableReport, report.ID), raw, 0)
		p.ZAdd(ctx, s.indexKey(tableReport), member)
		p.ZAdd(ctx, s.byKey(tableReport, "clothing", report.ClothingID.String()), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *RedisStore) GetReport(ctx context.Context, id string) (*types.SustainabilityReport, error) {
	var out types.SustainabilityReport
	if err := s.getJSON(ctx, s.recordKey(tableReport, id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisStore) ScanReports(ctx context.Context, limit int) ([]*types.SustainabilityReport, error) {
	ids, err := s.newest(ctx, s.indexKey(tableReport), types.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return mgetJSON[types.SustainabilityReport](ctx, s, tableReport, ids)
}

func (s *RedisStore) ListReportsByClothing(ctx context.Context, clothingID uuid.UUID) ([]*types.SustainabilityReport, error) {
	ids, err := s.newest(ctx, s.byKey(tableReport, "clothing", clothingID.String()), types.DefaultScanLimit)
	if err != nil {
		return nil, err
	}
	return mgetJSON[types.SustainabilityReport](ctx, s, tableReport, ids)
}

func (s *RedisStore) LinkReportAlternatives(ctx context.Context, reportID string, alternativeIDs []string) error {
	var rep types.SustainabilityReport
	return s.watchUpdate(ctx, s.recordKey(tableReport, reportID), &rep, func() bool {
		rep.AlternativeIDs = datatypes.JSONSlice[string](append([]string{}, alternativeIDs...))
		rep.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (s *RedisStore) CreateAlternative(ctx context.Context, alt *types.AlternativeProduct) error {
	if alt == nil {
		return fmt.Errorf("create alternative: nil alternative")
	}
	stamp(&alt.CreatedAt, time.Now().UTC())
	raw, err := json.Marshal(alt)
	if err != nil {
		return fmt.Errorf("create alternative: %w", err)
	}
	id := alt.ID.String()
	member := goredis.Z{Score: score(alt.CreatedAt), Member: id}
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.recordKey(tableAlternative, id), raw, 0)
		p.ZAdd(ctx, s.indexKey(tableAlternative), member)
		p.ZAdd(ctx, s.byKey(tableAlternative, "clothing", alt.ClothingID.String()), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create alternative: %w", err)
	}
	return nil
}

func (s *RedisStore) GetAlternative(ctx context.Context, id uuid.UUID) (*types.AlternativeProduct, error) {
	var out types.AlternativeProduct
	if err := s.getJSON(ctx, s.recordKey(tableAlternative, id.String()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisStore) ListAlternativesByClothing(ctx context.Context, clothingID uuid.UUID) ([]*types.AlternativeProduct, error) {
	ids, err := s.oldest(ctx, s.byKey(tableAlternative, "clothing", clothingID.String()))
	if err != nil {
		return nil, err
	}
	return mgetJSON[types.AlternativeProduct](ctx, s, tableAlternative, ids)
}

// watchUpdate loads key into out, applies mutate and writes it back under
// WATCH. mutate returning false skips the write.
func (s *RedisStore) watchUpdate(ctx context.Context, key string, out interface{}, mutate func() bool) error {
	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return types.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return err
		}
		if !mutate() {
			return nil
		}
		next, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}
	for i := 0; i < maxWatchRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: too many concurrent writers", key)
}

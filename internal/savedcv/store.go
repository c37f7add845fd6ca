// Package savedcv 保存每个浏览器档案唯一的一份 CV 记录。
// 会话范围存放在 Redis（带 TTL），持久范围存放在 PostgreSQL。
package savedcv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cvbuilder/internal/database"
	"cvbuilder/internal/resume"
)

// ErrNoSavedRecord 表示没有可用的记录；损坏的数据也归为此类。
var ErrNoSavedRecord = errors.New("no saved cv record")

const DefaultSessionTTL = 12 * time.Hour

type sessionCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Store struct {
	cache      sessionCache
	db         *gorm.DB
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewStore(cache sessionCache, db *gorm.DB, sessionTTL time.Duration, logger *slog.Logger) *Store {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cache: cache, db: db, sessionTTL: sessionTTL, logger: logger}
}

func sessionKey(profile string) string {
	return "cv:saved:" + profile
}

// Save 覆盖该档案的记录。会话范围总是写入；durable 为 false 时持久范围被清除，
// 保证同一档案只存在一份记录。
func (s *Store) Save(ctx context.Context, profile string, rec resume.SavedRecord, durable bool) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal saved record: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKey(profile), data, s.sessionTTL).Err(); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}

	if !durable {
		return s.ClearDurable(ctx, profile)
	}

	input, err := json.Marshal(rec.Input)
	if err != nil {
		return fmt.Errorf("marshal saved input: %w", err)
	}
	row := database.SavedCV{
		ProfileID: profile,
		Input:     input,
		Result:    rec.Result,
		SavedAt:   rec.CreatedAt,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"input", "result", "saved_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert durable record: %w", err)
	}
	return nil
}

// Load 先读会话范围，再读持久范围。
func (s *Store) Load(ctx context.Context, profile string) (resume.SavedRecord, error) {
	log := s.logger.With(slog.String("profile", profile))

	raw, err := s.cache.Get(ctx, sessionKey(profile)).Bytes()
	switch {
	case err == nil:
		var rec resume.SavedRecord
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr == nil {
			return rec, nil
		}
		log.Warn("session record is corrupt, ignoring")
	case !errors.Is(err, redis.Nil):
		return resume.SavedRecord{}, fmt.Errorf("read session record: %w", err)
	}

	var row database.SavedCV
	err = s.db.WithContext(ctx).Where("profile_id = ?", profile).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resume.SavedRecord{}, ErrNoSavedRecord
		}
		return resume.SavedRecord{}, fmt.Errorf("read durable record: %w", err)
	}

	rec := resume.SavedRecord{Result: row.Result, CreatedAt: row.SavedAt}
	if err := json.Unmarshal(row.Input, &rec.Input); err != nil {
		log.Warn("durable record is corrupt, ignoring", slog.Any("error", err))
		return resume.SavedRecord{}, ErrNoSavedRecord
	}
	return rec, nil
}

// Clear 删除两个范围内的记录。
func (s *Store) Clear(ctx context.Context, profile string) error {
	if err := s.cache.Del(ctx, sessionKey(profile)).Err(); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return s.ClearDurable(ctx, profile)
}

// ClearDurable 只删除持久范围的记录。
func (s *Store) ClearDurable(ctx context.Context, profile string) error {
	err := s.db.WithContext(ctx).Unscoped().Where("profile_id = ?", profile).Delete(&database.SavedCV{}).Error
	if err != nil {
		return fmt.Errorf("delete durable record: %w", err)
	}
	return nil
}

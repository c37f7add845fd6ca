// Package classroom 管理 Teacher/Student 课堂会话：按代码公开读取，按教师密钥更新。
package classroom

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cvbuilder/internal/config"
	"cvbuilder/internal/database"
)

// codeAlphabet 去掉了易混淆的 0/O/1/I，长度 32 保证取模无偏。
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	ErrNotFound      = errors.New("class session not found")
	ErrExpired       = errors.New("class session expired")
	ErrCodeExhausted = errors.New("could not allocate a unique class code")
)

// Created 是创建成功后一次性返回给教师的信息。
type Created struct {
	ClassCode     string    `json:"classCode"`
	TeacherSecret string    `json:"teacherSecret"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// View 是按代码公开读取的内容。
type View struct {
	ClassCode string          `json:"classCode"`
	Config    json.RawMessage `json:"config"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type Service struct {
	db          *gorm.DB
	logger      *slog.Logger
	codeLength  int
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	random      io.Reader
}

func NewService(db *gorm.DB, cfg config.ClassroomConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		db:          db,
		logger:      logger,
		codeLength:  cfg.CodeLength,
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxCreateAttempts,
		now:         time.Now,
		random:      rand.Reader,
	}
	if s.codeLength <= 0 {
		s.codeLength = 6
	}
	if s.ttl <= 0 {
		s.ttl = 7 * 24 * time.Hour
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 5
	}
	return s
}

// NormalizeCode 去空白并转大写。
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) newCode() (string, error) {
	buf := make([]byte, s.codeLength)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

func (s *Service) newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func normalizeConfig(raw json.RawMessage) (json.RawMessage, error) {
	if s := strings.TrimSpace(string(raw)); s == "" || s == "null" {
		raw = json.RawMessage(`{}`)
	}
	if _, err := ParseConfig(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Create 生成随机课堂代码，唯一索引冲突时重试。
func (s *Service) Create(ctx context.Context, raw json.RawMessage) (Created, error) {
	cfg, err := normalizeConfig(raw)
	if err != nil {
		return Created{}, err
	}
	secret, err := s.newSecret()
	if err != nil {
		return Created{}, err
	}
	expiresAt := s.now().Add(s.ttl).UTC()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return Created{}, err
		}
		row := database.ClassSession{
			ClassCode:         code,
			TeacherSecretHash: hashSecret(secret),
			Config:            []byte(cfg),
			ExpiresAt:         expiresAt,
		}
		err = s.db.WithContext(ctx).Create(&row).Error
		if err == nil {
			s.logger.Info("class session created", slog.String("class_code", code), slog.Int("attempt", attempt))
			return Created{ClassCode: code, TeacherSecret: secret, ExpiresAt: expiresAt}, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return Created{}, fmt.Errorf("insert class session: %w", err)
		}
		s.logger.Warn("class code collision, retrying", slog.Int("attempt", attempt))
	}
	return Created{}, ErrCodeExhausted
}

func (s *Service) find(ctx context.Context, code string) (database.ClassSession, error) {
	var row database.ClassSession
	err := s.db.WithContext(ctx).Where("class_code = ?", NormalizeCode(code)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row, ErrNotFound
		}
		return row, fmt.Errorf("query class session: %w", err)
	}
	if !s.now().Before(row.ExpiresAt) {
		return row, ErrExpired
	}
	return row, nil
}

// Config 按代码公开读取配置。过期在读取时判断。
func (s *Service) Config(ctx context.Context, code string) (View, error) {
	row, err := s.find(ctx, code)
	if err != nil {
		return View{}, err
	}
	return View{
		ClassCode: row.ClassCode,
		Config:    json.RawMessage(row.Config),
		ExpiresAt: row.ExpiresAt,
	}, nil
}

// Update 用教师密钥替换配置。代码不存在、已过期或密钥不匹配都返回 false 而不是错误。
func (s *Service) Update(ctx context.Context, code, secret string, raw json.RawMessage) (bool, error) {
	cfg, err := normalizeConfig(raw)
	if err != nil {
		return false, err
	}

	row, err := s.find(ctx, code)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(row.TeacherSecretHash), []byte(hashSecret(secret))) != 1 {
		s.logger.Warn("class update rejected: secret mismatch", slog.String("class_code", row.ClassCode))
		return false, nil
	}

	if err := s.db.WithContext(ctx).Model(&row).Update("config", datatypes.JSON(cfg)).Error; err != nil {
		return false, fmt.Errorf("update class config: %w", err)
	}
	return true, nil
}

// PurgeExpired 手动清理过期会话，返回删除条数。
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().Where("expires_at <= ?", s.now()).Delete(&database.ClassSession{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge expired class sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClassSession 表示一次课堂会话。只保存教师密钥的 SHA-256。
type ClassSession struct {
	gorm.Model
	ClassCode         string         `gorm:"uniqueIndex;size:16"`
	TeacherSecretHash string         `gorm:"size:64"`
	Config            datatypes.JSON `gorm:"type:jsonb"`
	ExpiresAt         time.Time      `gorm:"index"`
}

// SavedCV 是浏览器档案的持久化记录，每个档案最多一条。
type SavedCV struct {
	gorm.Model
	ProfileID string         `gorm:"uniqueIndex;size:64"`
	Input     datatypes.JSON `gorm:"type:jsonb"`
	Result    string         `gorm:"type:text"`
	SavedAt   time.Time
}

// Purchase 记录一次已验证的 Stripe checkout，按 session id 幂等。
type Purchase struct {
	gorm.Model
	CheckoutSessionID string `gorm:"uniqueIndex;size:255"`
	CustomerEmail     string `gorm:"size:320"`
	AmountTotal       int64
	Currency          string `gorm:"size:8"`
	AccessExpiresAt   time.Time
	ReceiptSentAt     *time.Time
}

// AutoMigrate 创建或更新所有表结构。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ClassSession{}, &SavedCV{}, &Purchase{})
}

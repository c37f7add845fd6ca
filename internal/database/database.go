package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cvbuilder/internal/config"
)

// InitDatabase 连接 PostgreSQL 并迁移 class_sessions、saved_cvs、purchases 三张表。
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return Open(postgres.Open(cfg.DSN()))
}

// Open 用任意方言打开数据库；测试传入 sqlite 内存库。
// 唯一约束冲突被翻译为 gorm.ErrDuplicatedKey，课堂代码分配依赖这一点。
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

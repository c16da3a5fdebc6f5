package database

import (
	"fmt"
	"log"

	"github.com/supporthub/backend-go/internal/config"
	"github.com/supporthub/backend-go/internal/interfaces"
	"github.com/supporthub/backend-go/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB() (*gorm.DB, error) {
	cfg := config.AppConfig
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 获取底层的sql.DB设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := autoMigrate(db); err != nil {
		log.Printf("⚠️  Database migration warning: %v", err)
	}

	DB = db
	log.Println("✅ Database connected successfully")
	return db, nil
}

// autoMigrate 自动迁移核心表（按依赖顺序）
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Article{},
		&models.Conversation{},
		&models.Message{},
		&models.TrainingRecord{},
		&models.AgentAction{},
		&models.DailyMetrics{},
	)
}

// Database 数据库封装，实现interfaces.DatabaseInterface
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) interfaces.DatabaseInterface {
	return &Database{db: db}
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) HealthCheck() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

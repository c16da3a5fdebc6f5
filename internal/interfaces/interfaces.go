package interfaces

import (
	"gorm.io/gorm"
)

// DatabaseInterface 数据库接口
type DatabaseInterface interface {
	GetDB() *gorm.DB
	Close() error
	HealthCheck() error
}

// EventPublisherInterface 事件发布接口
type EventPublisherInterface interface {
	Publish(topic string, message interface{}) error
	Close() error
}

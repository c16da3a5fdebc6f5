package models

import (
	"time"
)

// Article 知识库文章表
// embedding为归一化向量的JSON副本，与向量库双写，便于故障恢复
type Article struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	Title     string    `gorm:"column:title;size:255;not null;index" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Category  string    `gorm:"column:category;size:100;index" json:"category"`
	Tags      string    `gorm:"column:tags;size:500" json:"tags"` // 逗号分隔
	Embedding string    `gorm:"type:text;column:embedding" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

func (Article) TableName() string {
	return "articles"
}

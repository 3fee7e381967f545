package models

import "time"

// Role 标识一条消息的发言方。
type Role string

const (
	RoleUser Role = "user" // 用户消息
	RoleAI   Role = "ai"   // 助手消息
)

// Message 代表对话日志中的一条消息。
// 消息只追加，不更新也不删除；ID 同时作为该消息向量在向量索引中的键。
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"index;size:64;not null"`
	Text      string    `gorm:"type:text;not null"`
	Role      Role      `gorm:"index;type:varchar(16);not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (Message) TableName() string {
	return "messages"
}

// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息角色常量。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession 对应于数据库中的 'chat_sessions' 表，代表一个聊天会话。
type ChatSession struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"type:varchar(100);not null" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// Message 对应于数据库中的 'messages' 表，代表会话内的一条消息。
// 消息一经持久化即不可变，会话内按 CreatedAt 升序排列。
type Message struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SessionID string    `gorm:"type:varchar(36);index;not null" json:"sessionId"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"` // "user" 或 "assistant"
	Content   string    `gorm:"type:longtext;not null" json:"content"`
	// AttachedCode 与 AttachedFileName 保存本轮第一个代码产物（若有）。
	AttachedCode     *string   `gorm:"type:longtext" json:"attachedCode,omitempty"`
	AttachedFileName *string   `gorm:"type:varchar(255)" json:"attachedFileName,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}

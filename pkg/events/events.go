// Package events 定义了发送到 Kafka 的事件结构。
package events

import "time"

// TurnCompletedEvent 在一轮生成结束后发出，供外部分析消费。
type TurnCompletedEvent struct {
	TurnID        string    `json:"turn_id"`
	SessionID     string    `json:"session_id"`
	UserID        uint      `json:"user_id"`
	Mode          string    `json:"mode"`
	Shape         string    `json:"shape"`
	ArtifactCount int       `json:"artifact_count"`
	DeclaredCount int       `json:"declared_count"`
	BackendMillis int64     `json:"backend_millis"`
	CreatedAt     time.Time `json:"created_at"`
}

// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"

	"testops-assistant-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository 定义了聊天会话与消息的持久化操作。
type SessionRepository interface {
	CreateSession(ctx context.Context, userID uint, title string) (*model.ChatSession, error)
	ListSessionsByUser(ctx context.Context, userID uint) ([]model.ChatSession, error)
	FindSessionByID(ctx context.Context, id string) (*model.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, sessionID string) ([]model.Message, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// CreateSession 创建一个新的聊天会话。
func (r *sessionRepository) CreateSession(ctx context.Context, userID uint, title string) (*model.ChatSession, error) {
	session := &model.ChatSession{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessionsByUser 返回用户的全部会话，按创建时间倒序（最新在前）。
func (r *sessionRepository) ListSessionsByUser(ctx context.Context, userID uint) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// FindSessionByID 根据 ID 查找会话。
func (r *sessionRepository) FindSessionByID(ctx context.Context, id string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession 删除会话及其全部消息。
func (r *sessionRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChatSession{}, "id = ?", id).Error
	})
}

// AppendMessage 向会话追加一条消息。消息一经写入不再修改。
func (r *sessionRepository) AppendMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListMessages 返回会话内全部消息，按创建时间升序。
func (r *sessionRepository) ListMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

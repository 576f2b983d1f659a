// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"

	"testops-assistant-go/internal/model"
	"testops-assistant-go/internal/repository"

	"gorm.io/gorm"
)

// ErrSessionNotFound 表示会话不存在。
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionForbidden 表示会话不属于当前用户。
var ErrSessionForbidden = errors.New("session does not belong to user")

// SessionService 定义了会话管理的业务接口。
type SessionService interface {
	CreateSession(ctx context.Context, userID uint, title string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID uint) ([]model.ChatSession, error)
	ListMessages(ctx context.Context, userID uint, sessionID string) ([]model.Message, error)
	DeleteSession(ctx context.Context, userID uint, sessionID string) error
}

type sessionService struct {
	repo repository.SessionRepository
}

// NewSessionService 创建一个新的 SessionService。
func NewSessionService(repo repository.SessionRepository) SessionService {
	return &sessionService{repo: repo}
}

// CreateSession 为用户创建一个新会话。
func (s *sessionService) CreateSession(ctx context.Context, userID uint, title string) (*model.ChatSession, error) {
	if title == "" {
		title = "新的对话"
	}
	return s.repo.CreateSession(ctx, userID, title)
}

// ListSessions 返回用户的会话列表，最新在前。
func (s *sessionService) ListSessions(ctx context.Context, userID uint) ([]model.ChatSession, error) {
	return s.repo.ListSessionsByUser(ctx, userID)
}

// ListMessages 返回会话内的全部消息，按创建时间升序。
// 会话必须属于当前用户。
func (s *sessionService) ListMessages(ctx context.Context, userID uint, sessionID string) ([]model.Message, error) {
	if err := s.authorize(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID)
}

// DeleteSession 删除用户自己的会话及其消息。
func (s *sessionService) DeleteSession(ctx context.Context, userID uint, sessionID string) error {
	if err := s.authorize(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, sessionID)
}

func (s *sessionService) authorize(ctx context.Context, userID uint, sessionID string) error {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.UserID != userID {
		return ErrSessionForbidden
	}
	return nil
}

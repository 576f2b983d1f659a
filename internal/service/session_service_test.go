package service_test

import (
	"context"
	"errors"
	"testing"

	"testops-assistant-go/internal/service"
)

func TestSessionOwnership(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc := service.NewSessionService(repo)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 1, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.Title != "新的对话" {
		t.Fatalf("expected default title, got %q", session.Title)
	}

	// 其他用户不能读取或删除别人的会话
	if _, err := svc.ListMessages(ctx, 2, session.ID); !errors.Is(err, service.ErrSessionForbidden) {
		t.Fatalf("expected ErrSessionForbidden, got %v", err)
	}
	if err := svc.DeleteSession(ctx, 2, session.ID); !errors.Is(err, service.ErrSessionForbidden) {
		t.Fatalf("expected ErrSessionForbidden, got %v", err)
	}

	// 属主可以删除
	if err := svc.DeleteSession(ctx, 1, session.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatalf("session should be gone, got %d", len(repo.sessions))
	}
}

func TestListSessionsScopedToUser(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc := service.NewSessionService(repo)
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx, 1, "甲的会话"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := svc.CreateSession(ctx, 2, "乙的会话"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	sessions, err := svc.ListSessions(ctx, 1)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Title != "甲的会话" {
		t.Fatalf("expected only user 1's session, got %+v", sessions)
	}
}

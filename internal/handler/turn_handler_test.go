package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"testops-assistant-go/internal/generation"
	"testops-assistant-go/internal/handler"
	"testops-assistant-go/internal/model"
	"testops-assistant-go/internal/repository"
	"testops-assistant-go/internal/service"
	"testops-assistant-go/pkg/log"
	"testops-assistant-go/pkg/token"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log.Init("error", "json", "")
	os.Exit(m.Run())
}

// withTestUser 模拟认证中间件，把固定用户注入上下文。
func withTestUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", &model.User{ID: 1, Username: "alice"})
		c.Set("claims", &token.CustomClaims{UserID: 1, Username: "alice"})
		c.Next()
	}
}

// stubTurnService 返回预置结果，并记录收到的输入。
type stubTurnService struct {
	result      *service.TurnResult
	err         error
	artifact    *model.CodeArtifact
	artifactErr error
	lastInput   service.TurnInput
}

func (s *stubTurnService) SubmitTurn(_ context.Context, input service.TurnInput) (*service.TurnResult, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubTurnService) OpenArtifact(_ context.Context, _ string) (*model.CodeArtifact, error) {
	if s.artifactErr != nil {
		return nil, s.artifactErr
	}
	return s.artifact, nil
}

func newTurnRouter(svc service.TurnService) *gin.Engine {
	r := gin.New()
	r.Use(withTestUser())
	h := handler.NewTurnHandler(svc)
	r.POST("/api/v1/turns", h.SubmitTurn)
	r.GET("/api/v1/artifacts/:id", h.GetArtifact)
	return r
}

func TestSubmitTurnEndpoint(t *testing.T) {
	stub := &stubTurnService{
		result: &service.TurnResult{
			SessionID: "s-1",
			AssistantMessage: model.Message{
				Role:    model.RoleAssistant,
				Content: "已生成 2 个测试文件。",
			},
		},
	}
	r := newTurnRouter(stub)

	body := []byte(`{"sessionId":"s-1","mode":"ui-requirements","content":"为登录页面生成测试"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/turns", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "已生成 2 个测试文件。") {
		t.Fatalf("response should carry the assistant message: %s", w.Body.String())
	}
	if stub.lastInput.Mode != generation.ModeUIRequirements {
		t.Fatalf("mode tag not parsed, got %q", stub.lastInput.Mode)
	}
	if stub.lastInput.User == nil || stub.lastInput.User.ID != 1 {
		t.Fatalf("authenticated user not passed through: %+v", stub.lastInput.User)
	}
}

func TestSubmitTurnEndpointUnknownMode(t *testing.T) {
	stub := &stubTurnService{err: generation.ErrUnknownMode}
	r := newTurnRouter(stub)

	body := []byte(`{"mode":"banana","content":"生成测试"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/turns", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "banana") {
		t.Fatalf("error message should name the bad mode tag: %s", w.Body.String())
	}
}

func TestSubmitTurnEndpointMissingContent(t *testing.T) {
	r := newTurnRouter(&stubTurnService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/turns", strings.NewReader(`{"mode":"none"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing content, got %d", w.Code)
	}
}

func TestGetArtifactEndpoint(t *testing.T) {
	stub := &stubTurnService{
		artifact: &model.CodeArtifact{ID: "a-1", Title: "TestLogin.py", Language: "python", FullCode: "pass"},
	}
	r := newTurnRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/a-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data model.CodeArtifact `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.Data.Title != "TestLogin.py" || resp.Data.FullCode != "pass" {
		t.Fatalf("unexpected artifact payload: %+v", resp.Data)
	}
}

func TestGetArtifactEndpointNotFound(t *testing.T) {
	stub := &stubTurnService{artifactErr: repository.ErrArtifactNotFound}
	r := newTurnRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/expired", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing artifact, got %d", w.Code)
	}
}

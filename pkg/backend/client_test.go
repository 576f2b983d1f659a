package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"testops-assistant-go/internal/config"
	"testops-assistant-go/internal/generation"
	"testops-assistant-go/pkg/backend"
)

func TestGenerateCapturesErrorStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL})
	req, err := generation.Resolve(generation.ModeUIRequirements, "为登录页面生成测试")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	_, err = client.Generate(context.Background(), req)
	var be *generation.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected *generation.BackendError, got %v", err)
	}
	if be.Status != http.StatusInternalServerError || be.Body != "boom" {
		t.Fatalf("status and body must be captured, got status=%d body=%q", be.Status, be.Body)
	}
}

func TestGenerateSendsResolvedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/generation/automation/e2e" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("base_url"); got != "https://shop.example.com" {
			t.Errorf("unexpected base_url: %q", got)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected authorization header: %q", auth)
		}
		_, _ = w.Write([]byte(`{"pytest_code":"def test_a(): pass"}`))
	}))
	defer srv.Close()

	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, APIKey: "secret"})
	req, err := generation.Resolve(generation.ModeE2EAutomation, "在 https://shop.example.com 上测试下单")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	raw, err := client.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if string(raw) != `{"pytest_code":"def test_a(): pass"}` {
		t.Fatalf("response body must be returned verbatim: %s", raw)
	}
}

func TestGenerateTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // 立即关闭，制造连接失败

	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL})
	req, err := generation.Resolve(generation.ModeNone, "你好")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	_, err = client.Generate(context.Background(), req)
	var be *generation.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("transport failure should map to BackendError, got %v", err)
	}
	if be.Status != 0 || be.Body == "" {
		t.Fatalf("transport failure should carry status 0 and the error text, got %+v", be)
	}
}

package generation_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"testops-assistant-go/internal/generation"
)

func TestResolveChatMode(t *testing.T) {
	req, err := generation.Resolve(generation.ModeNone, "你好")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if req.Path != "/chat/completions" {
		t.Fatalf("expected chat path, got %s", req.Path)
	}

	body, err := json.Marshal(req.Body)
	if err != nil {
		t.Fatalf("marshal body failed: %v", err)
	}
	if !strings.Contains(string(body), `"role":"user"`) || !strings.Contains(string(body), "你好") {
		t.Fatalf("chat body missing user message: %s", body)
	}
}

func TestResolveKnownModesTotal(t *testing.T) {
	modes := map[generation.Mode]string{
		generation.ModeNone:           "/chat/completions",
		generation.ModeUIRequirements: "/generation/ui/full",
		generation.ModeAPISwagger:     "/generation/allure_code/api",
		generation.ModeE2EAutomation:  "/generation/automation/e2e",
		generation.ModeAPIAutomation:  "/generation/automation/api",
	}
	for mode, wantPath := range modes {
		req, err := generation.Resolve(mode, "测试登录功能")
		if err != nil {
			t.Fatalf("mode %q: Resolve failed: %v", mode, err)
		}
		if req.Path != wantPath {
			t.Fatalf("mode %q: expected path %s, got %s", mode, wantPath, req.Path)
		}
	}
}

func TestResolveUnknownMode(t *testing.T) {
	_, err := generation.Resolve(generation.Mode("banana"), "whatever")
	if !errors.Is(err, generation.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestResolveSwaggerURLVersusJSON(t *testing.T) {
	req, err := generation.Resolve(generation.ModeAPISwagger, "  https://petstore.example.com/swagger.json  ")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	body, _ := json.Marshal(req.Body)
	if !strings.Contains(string(body), `"swagger_url":"https://petstore.example.com/swagger.json"`) {
		t.Fatalf("expected swagger_url in body: %s", body)
	}
	if strings.Contains(string(body), "swagger_json") {
		t.Fatalf("swagger_json should be omitted when a URL is given: %s", body)
	}

	raw := `{"openapi":"3.0.0"}`
	req, err = generation.Resolve(generation.ModeAPISwagger, raw)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	body, _ = json.Marshal(req.Body)
	if !strings.Contains(string(body), "swagger_json") {
		t.Fatalf("expected swagger_json in body: %s", body)
	}
}

func TestResolveAutomationBaseURL(t *testing.T) {
	req, err := generation.Resolve(generation.ModeE2EAutomation, "在 https://shop.example.com/login 上测试登录")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := req.Query.Get("base_url"); got != "https://shop.example.com/login" {
		t.Fatalf("expected extracted base_url, got %q", got)
	}

	// 输入中没有 URL 时回退到占位地址
	req, err = generation.Resolve(generation.ModeAPIAutomation, "测试下单接口")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := req.Query.Get("base_url"); got != "https://example.com" {
		t.Fatalf("expected placeholder base_url, got %q", got)
	}
}

func TestResolveAutomationWrapsSingleCase(t *testing.T) {
	req, err := generation.Resolve(generation.ModeAPIAutomation, "验证创建订单接口返回 201")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	body, _ := json.Marshal(req.Body)
	for _, want := range []string{`"id":"TC-1"`, `"priority":"critical"`, `"tags":["api"]`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("automation body missing %s: %s", want, body)
		}
	}
}

func TestParseMode(t *testing.T) {
	if generation.ParseMode("") != generation.ModeNone {
		t.Fatalf("empty tag should map to ModeNone")
	}
	if generation.ParseMode("none") != generation.ModeNone {
		t.Fatalf(`"none" should map to ModeNone`)
	}
	if generation.ParseMode("ui-requirements") != generation.ModeUIRequirements {
		t.Fatalf("known tag should map directly")
	}
}

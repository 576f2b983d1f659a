package generation_test

import (
	"reflect"
	"strings"
	"testing"

	"testops-assistant-go/internal/generation"
)

const multiClassBundle = `import allure
import pytest

class TestLogin(BaseTest):
    def test_ok(self):
        pass

class TestPayment:
    def test_pay(self):
        pass`

func TestSplitAllureBundleMultipleClasses(t *testing.T) {
	shape := generation.Shape{
		Kind: generation.ShapeAllureBundle,
		Code: multiClassBundle,
	}
	artifacts := generation.Split(shape)
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].Title != "TestLogin.py" || artifacts[1].Title != "TestPayment.py" {
		t.Fatalf("unexpected titles: %q, %q", artifacts[0].Title, artifacts[1].Title)
	}
	// 两个片段自身都不含 import，共享头被注入到每个产物
	for _, a := range artifacts {
		if !strings.HasPrefix(a.FullCode, "import allure\nimport pytest\n\n") {
			t.Fatalf("artifact %s missing shared import header:\n%s", a.Title, a.FullCode)
		}
		if a.Language != "python" {
			t.Fatalf("artifact %s: expected language python, got %s", a.Title, a.Language)
		}
	}
	if !strings.Contains(artifacts[1].FullCode, "class TestPayment") {
		t.Fatalf("second artifact lost its class body:\n%s", artifacts[1].FullCode)
	}
}

func TestSplitAllureBundleSingleClass(t *testing.T) {
	shape := generation.Shape{
		Kind:      generation.ShapeAllureBundle,
		Code:      "class TestCheckout:\n    def test_buy(self):\n        pass",
		SuiteName: "Checkout Smoke Suite",
	}
	artifacts := generation.Split(shape)
	if len(artifacts) != 1 {
		t.Fatalf("expected single artifact, got %d", len(artifacts))
	}
	if artifacts[0].Title != "Checkout_Smoke_Suite.py" {
		t.Fatalf("expected sanitized suite name, got %q", artifacts[0].Title)
	}
	if artifacts[0].FullCode != shape.Code {
		t.Fatalf("single-class bundle must keep its code intact")
	}
}

func TestSplitSuiteNameStripsPathSeparators(t *testing.T) {
	// 产物标题会进入对象存储的路径，套件名里的分隔符不能造成嵌套
	shape := generation.Shape{
		Kind:      generation.ShapeAllureBundle,
		Code:      "class TestX:\n    def test_a(self):\n        pass",
		SuiteName: `api/v1 smoke\suite`,
	}
	artifacts := generation.Split(shape)
	if len(artifacts) != 1 {
		t.Fatalf("expected single artifact, got %d", len(artifacts))
	}
	if artifacts[0].Title != "api_v1_smoke_suite.py" {
		t.Fatalf("expected sanitized title, got %q", artifacts[0].Title)
	}
}

func TestSplitAllureBundleEscapedNewlines(t *testing.T) {
	// 后端常把代码作为含字面 \n 的单行字符串返回
	shape := generation.Shape{
		Kind: generation.ShapeAllureBundle,
		Code: `class TestEscaped:\n    def test_a(self):\n        pass`,
	}
	artifacts := generation.Split(shape)
	if len(artifacts) != 1 {
		t.Fatalf("expected single artifact, got %d", len(artifacts))
	}
	if !strings.Contains(artifacts[0].FullCode, "\n    def test_a(self):") {
		t.Fatalf("escaped newlines were not normalized:\n%s", artifacts[0].FullCode)
	}
	if artifacts[0].Title != "allure_tests.py" {
		t.Fatalf("expected default title, got %q", artifacts[0].Title)
	}
}

func TestSplitDiscardsLoosePreamble(t *testing.T) {
	// 首个类声明之前的零散片段（无类、无测试函数）不构成产物
	artifacts := generation.Split(generation.Shape{
		Kind: generation.ShapeAllureBundle,
		Code: multiClassBundle,
	})
	for _, a := range artifacts {
		if !strings.Contains(a.FullCode, "class Test") {
			t.Fatalf("loose preamble leaked into artifacts: %q", a.Title)
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	// 无共享头时，按顺序拼接产物代码应还原原始代码包
	code := "class TestA:\n    def test_a(self):\n        pass\nclass TestB:\n    def test_b(self):\n        pass"
	artifacts := generation.Split(generation.Shape{
		Kind: generation.ShapeAllureBundle,
		Code: code,
	})
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	parts := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		parts = append(parts, a.FullCode)
	}
	if joined := strings.Join(parts, "\n"); joined != code {
		t.Fatalf("round trip mismatch:\nwant:\n%s\ngot:\n%s", code, joined)
	}
}

func TestSplitDeterministic(t *testing.T) {
	shape := generation.Shape{
		Kind: generation.ShapeAllureBundle,
		Code: multiClassBundle,
	}
	first := generation.Split(shape)
	second := generation.Split(shape)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Split is not deterministic")
	}
}

func TestSplitOtherShapes(t *testing.T) {
	// pytest 代码包固定映射为单文件
	artifacts := generation.Split(generation.Shape{Kind: generation.ShapePytestBundle, Code: "def test_a(): pass"})
	if len(artifacts) != 1 || artifacts[0].Title != "test_suite.py" {
		t.Fatalf("unexpected pytest artifacts: %+v", artifacts)
	}

	// swagger 套件：整个负载即产物
	artifacts = generation.Split(generation.Shape{Kind: generation.ShapeSwaggerSuite, Payload: map[string]interface{}{"name": "s"}})
	if len(artifacts) != 1 || artifacts[0].Title != "swagger_test_suite.json" || artifacts[0].Language != "json" {
		t.Fatalf("unexpected swagger artifacts: %+v", artifacts)
	}

	// 用例列表序列化为 JSON 产物
	artifacts = generation.Split(generation.Shape{Kind: generation.ShapeCaseList, Payload: []interface{}{"case"}})
	if len(artifacts) != 1 || artifacts[0].Title != "generated_tests.json" {
		t.Fatalf("unexpected case list artifacts: %+v", artifacts)
	}

	// 纯文本回复不产出产物，兜底分支带 Code 时产出一个
	if got := generation.Split(generation.Shape{Kind: generation.ShapePlainReply, Text: "你好"}); got != nil {
		t.Fatalf("plain text reply should yield no artifacts, got %+v", got)
	}
	artifacts = generation.Split(generation.Shape{Kind: generation.ShapePlainReply, Text: "生成完成", Code: `{"x":1}`})
	if len(artifacts) != 1 || artifacts[0].Title != "generated_tests.json" {
		t.Fatalf("fallback reply with payload should yield one artifact, got %+v", artifacts)
	}
}

func TestSplitPreviewTruncation(t *testing.T) {
	var b strings.Builder
	b.WriteString("class TestLong:\n")
	for i := 0; i < 15; i++ {
		b.WriteString("    x = 1\n")
	}
	artifacts := generation.Split(generation.Shape{Kind: generation.ShapeAllureBundle, Code: b.String()})
	if len(artifacts) != 1 {
		t.Fatalf("expected single artifact, got %d", len(artifacts))
	}
	preview := artifacts[0].PreviewLines
	if len(preview) != 9 {
		t.Fatalf("expected 8 preview lines plus marker, got %d", len(preview))
	}
	if preview[len(preview)-1] != "..." {
		t.Fatalf("expected truncation marker, got %q", preview[len(preview)-1])
	}
	if !strings.Contains(artifacts[0].FullCode, "x = 1") {
		t.Fatalf("preview must not affect full code")
	}
}

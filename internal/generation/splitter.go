package generation

import (
	"fmt"
	"regexp"
	"strings"

	"testops-assistant-go/internal/model"
)

// previewLineLimit 是产物预览保留的最大行数，仅影响展示，不影响 FullCode。
const previewLineLimit = 8

// previewTruncationMark 追加在被截断的预览末尾。
const previewTruncationMark = "..."

// 匹配测试类声明行的行首锚点，例如 "class TestPayment(BaseTest):"。
var testClassPattern = regexp.MustCompile(`^class\s+(Test\w*)\s*[(:]`)

// Split 将分类结果展开为零或多个代码产物。
// 只有 AllureBundle 需要真正的拆分；其余形状一对一映射或不产出。
// 确定性：相同的 Shape 总是产生相同的产物序列（ID 由调用方另行分配）。
func Split(shape Shape) []model.CodeArtifact {
	switch shape.Kind {
	case ShapeAllureBundle:
		return splitAllureBundle(shape)
	case ShapeFileList:
		artifacts := make([]model.CodeArtifact, 0, len(shape.Files))
		for _, f := range shape.Files {
			artifacts = append(artifacts, newArtifact(f.Filename, f.Code))
		}
		return artifacts
	case ShapePytestBundle:
		return []model.CodeArtifact{newArtifact("test_suite.py", shape.Code)}
	case ShapeSwaggerSuite:
		return []model.CodeArtifact{newArtifact("swagger_test_suite.json", prettyJSON(shape.Payload))}
	case ShapeCaseList:
		return []model.CodeArtifact{newArtifact("generated_tests.json", prettyJSON(shape.Payload))}
	case ShapePlainReply:
		// 仅兜底分支携带需要展示的序列化负载
		if shape.Code != "" {
			return []model.CodeArtifact{newArtifact("generated_tests.json", shape.Code)}
		}
	}
	return nil
}

// splitAllureBundle 把拼接在一个字符串里的多个测试文件还原为独立产物。
//
// 过程：规范化转义换行 → 收集共享 import 头 → 在测试类声明行处切分 →
// 丢弃既无类声明也无测试函数的零散片段 → 为缺少 import 的片段注入共享头。
func splitAllureBundle(shape Shape) []model.CodeArtifact {
	code := strings.ReplaceAll(shape.Code, `\n`, "\n")
	lines := strings.Split(code, "\n")

	var header []string
	for _, line := range lines {
		if isImportLine(line) {
			header = append(header, line)
		}
	}

	segments := splitAtClassBoundaries(lines)
	if len(segments) <= 1 {
		// 未发现内部类边界：整个代码包作为单一产物
		name := "allure_tests.py"
		if shape.SuiteName != "" {
			name = sanitizeFileName(shape.SuiteName) + ".py"
		}
		return []model.CodeArtifact{newArtifact(name, code)}
	}

	var artifacts []model.CodeArtifact
	for _, seg := range segments {
		className, hasClass := findTestClass(seg)
		if !hasClass && !containsTestFunc(seg) {
			// 零散尾部内容，不构成产物
			continue
		}

		text := strings.Join(seg, "\n")
		if len(header) > 0 && !containsImport(seg) {
			text = strings.Join(header, "\n") + "\n\n" + text
		}

		name := fmt.Sprintf("test_scenario_%d.py", len(artifacts)+1)
		if hasClass {
			name = className + ".py"
		}
		artifacts = append(artifacts, newArtifact(name, text))
	}
	return artifacts
}

// splitAtClassBoundaries 在紧邻测试类声明行之前切分，返回候选片段序列。
func splitAtClassBoundaries(lines []string) [][]string {
	var segments [][]string
	start := 0
	for i, line := range lines {
		if i > start && testClassPattern.MatchString(line) {
			segments = append(segments, lines[start:i])
			start = i
		}
	}
	if start < len(lines) {
		segments = append(segments, lines[start:])
	}
	return segments
}

func findTestClass(seg []string) (string, bool) {
	for _, line := range seg {
		if m := testClassPattern.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func containsTestFunc(seg []string) bool {
	for _, line := range seg {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "def test_") || strings.HasPrefix(trimmed, "async def test_") {
			return true
		}
	}
	return false
}

func containsImport(seg []string) bool {
	for _, line := range seg {
		if isImportLine(line) {
			return true
		}
	}
	return false
}

func isImportLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ")
}

// sanitizeFileName 把声明的套件名转换为文件名：
// 路径分隔符替换为下划线（文件名会进入对象存储的路径），空白折叠为下划线。
func sanitizeFileName(name string) string {
	cleaned := strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	return strings.Join(strings.Fields(cleaned), "_")
}

func newArtifact(title, code string) model.CodeArtifact {
	return model.CodeArtifact{
		Title:        title,
		Language:     languageOf(title),
		PreviewLines: previewOf(code),
		FullCode:     code,
	}
}

func languageOf(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".py"):
		return "python"
	case strings.HasSuffix(filename, ".json"):
		return "json"
	default:
		return "text"
	}
}

// previewOf 返回代码的前若干行；被截断时追加截断标记。
func previewOf(code string) []string {
	lines := strings.Split(code, "\n")
	if len(lines) <= previewLineLimit {
		return lines
	}
	preview := make([]string, previewLineLimit, previewLineLimit+1)
	copy(preview, lines[:previewLineLimit])
	return append(preview, previewTruncationMark)
}

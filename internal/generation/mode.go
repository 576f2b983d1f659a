package generation

import (
	"net/url"
	"regexp"
	"strings"
)

// Mode 表示一轮对话所选的生成意图，决定请求发往哪个后端端点。
type Mode string

const (
	ModeNone           Mode = ""
	ModeUIRequirements Mode = "ui-requirements"
	ModeAPISwagger     Mode = "api-swagger"
	ModeE2EAutomation  Mode = "e2e-automation"
	ModeAPIAutomation  Mode = "api-automation"
)

// placeholderBaseURL 是在用户输入中未找到 URL 时使用的占位地址。
const placeholderBaseURL = "https://example.com"

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Request 描述一次后端调用：路径、查询参数与 JSON 请求体。
type Request struct {
	Path  string
	Query url.Values
	Body  interface{}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionBody struct {
	Messages []chatMessage `json:"messages"`
}

type uiGenerationBody struct {
	RequirementsText string  `json:"requirements_text"`
	URL              *string `json:"url"`
	HTML             *string `json:"html"`
}

type swaggerBody struct {
	SwaggerURL  string `json:"swagger_url,omitempty"`
	SwaggerJSON string `json:"swagger_json,omitempty"`
}

type automationCase struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Steps    []string `json:"steps"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
}

type automationBody struct {
	TestCases []automationCase `json:"test_cases"`
}

// Resolve 将生成模式映射为后端请求。纯映射，不做任何网络 I/O。
// 无法识别的模式返回 ErrUnknownMode。
func Resolve(mode Mode, userContent string) (*Request, error) {
	switch mode {
	case ModeNone:
		return &Request{
			Path: "/chat/completions",
			Body: chatCompletionBody{
				Messages: []chatMessage{{Role: "user", Content: userContent}},
			},
		}, nil

	case ModeUIRequirements:
		return &Request{
			Path: "/generation/ui/full",
			Body: uiGenerationBody{RequirementsText: userContent},
		}, nil

	case ModeAPISwagger:
		body := swaggerBody{}
		trimmed := strings.TrimSpace(userContent)
		if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
			body.SwaggerURL = trimmed
		} else {
			body.SwaggerJSON = userContent
		}
		return &Request{
			Path: "/generation/allure_code/api",
			Body: body,
		}, nil

	case ModeE2EAutomation:
		return &Request{
			Path:  "/generation/automation/e2e",
			Query: url.Values{"base_url": []string{extractBaseURL(userContent)}},
			Body:  wrapAsCase(userContent, "e2e"),
		}, nil

	case ModeAPIAutomation:
		return &Request{
			Path:  "/generation/automation/api",
			Query: url.Values{"base_url": []string{extractBaseURL(userContent)}},
			Body:  wrapAsCase(userContent, "api"),
		}, nil
	}
	return nil, ErrUnknownMode
}

// extractBaseURL 返回输入中第一个 URL 形状的子串，找不到时回退到占位地址。
func extractBaseURL(content string) string {
	if m := urlPattern.FindString(content); m != "" {
		return m
	}
	return placeholderBaseURL
}

// wrapAsCase 将用户输入包装为单个带固定优先级与标签的测试用例。
func wrapAsCase(content, tag string) automationBody {
	title := content
	if runes := []rune(title); len(runes) > 60 {
		title = string(runes[:60])
	}
	return automationBody{
		TestCases: []automationCase{{
			ID:       "TC-1",
			Title:    title,
			Steps:    []string{content},
			Priority: "critical",
			Tags:     []string{tag},
		}},
	}
}

// ParseMode 将请求层传入的模式标签转换为 Mode。
// 空串与 "none" 均视为普通聊天。标签是否合法由 Resolve 判定。
func ParseMode(tag string) Mode {
	if tag == "" || tag == "none" {
		return ModeNone
	}
	return Mode(tag)
}

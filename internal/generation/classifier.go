package generation

import (
	"encoding/json"
	"fmt"
)

// ShapeKind 标识后端响应被归类出的语义形状。
type ShapeKind string

const (
	ShapePlainReply   ShapeKind = "plain_reply"
	ShapeAllureBundle ShapeKind = "allure_bundle"
	ShapeFileList     ShapeKind = "file_list"
	ShapePytestBundle ShapeKind = "pytest_bundle"
	ShapeSwaggerSuite ShapeKind = "swagger_suite"
	ShapeCaseList     ShapeKind = "case_list"
)

// GeneratedFile 是 FileList 形状中的一个规范化文件项。
type GeneratedFile struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
}

// Shape 是分类结果的带标签联合体。Kind 决定哪些字段有意义：
//   - PlainReply:   Text（聊天文本）；Code 非空时携带需要展示的序列化负载
//   - AllureBundle: Code、DeclaredCount、SuiteName
//   - FileList:     Files
//   - PytestBundle: Code、DeclaredCount
//   - SwaggerSuite: Payload（整个负载即产物）
//   - CaseList:     Cases、Payload
type Shape struct {
	Kind          ShapeKind
	Text          string
	Code          string
	DeclaredCount int
	SuiteName     string
	Files         []GeneratedFile
	Cases         []interface{}
	Payload       interface{}
}

// shapeRule 是一条 谓词→构造器 规则。Classify 按声明顺序逐条求值，
// 首条命中即胜出；该顺序本身是契约的一部分。
type shapeRule struct {
	match func(mode Mode, v interface{}) bool
	build func(mode Mode, v interface{}) Shape
}

var shapeRules = []shapeRule{
	// 1. 普通聊天：直接抽取文本
	{
		match: func(mode Mode, v interface{}) bool { return mode == ModeNone },
		build: buildChatReply,
	},
	// 2. allure_code：一个或多个测试文件拼接成的代码包
	{
		match: hasField("allure_code"),
		build: func(_ Mode, v interface{}) Shape {
			obj := v.(map[string]interface{})
			return Shape{
				Kind:          ShapeAllureBundle,
				Code:          stringField(obj, "allure_code"),
				DeclaredCount: intField(obj, "test_count"),
				SuiteName:     stringField(obj, "suite_name"),
			}
		},
	},
	// 3. 显式文件列表
	{
		match: func(mode Mode, v interface{}) bool {
			if _, ok := v.([]interface{}); ok {
				return true
			}
			return hasField("test_files")(mode, v) || hasField("files")(mode, v)
		},
		build: buildFileList,
	},
	// 4. pytest_code：单文件 pytest 代码
	{
		match: hasField("pytest_code"),
		build: func(_ Mode, v interface{}) Shape {
			obj := v.(map[string]interface{})
			return Shape{
				Kind:          ShapePytestBundle,
				Code:          stringField(obj, "pytest_code"),
				DeclaredCount: intField(obj, "test_count"),
			}
		},
	},
	// 5. swagger 套件：整个负载即产物
	{
		match: func(mode Mode, v interface{}) bool {
			return mode == ModeAPISwagger || hasField("test_suite")(mode, v)
		},
		build: func(_ Mode, v interface{}) Shape {
			return Shape{Kind: ShapeSwaggerSuite, Payload: v}
		},
	},
	// 6. 测试用例列表
	{
		match: func(mode Mode, v interface{}) bool {
			return hasField("test_cases")(mode, v) || hasField("covered_features")(mode, v)
		},
		build: func(_ Mode, v interface{}) Shape {
			sh := Shape{Kind: ShapeCaseList, Payload: v}
			if obj, ok := v.(map[string]interface{}); ok {
				if cases, ok := obj["test_cases"].([]interface{}); ok {
					sh.Cases = cases
				}
			}
			return sh
		},
	},
}

// Classify 检查一段已解码的后端响应并赋予其一个语义形状。
// 纯函数：相同的 (mode, raw) 输入总是产生相同的 Shape。
// raw 无法解码为 JSON 时返回 ErrMalformedResponse。
func Classify(mode Mode, raw []byte) (Shape, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Shape{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	for _, rule := range shapeRules {
		if rule.match(mode, v) {
			return rule.build(mode, v), nil
		}
	}

	// 7. 兜底：保证每一轮都有可见结果
	return Shape{
		Kind: ShapePlainReply,
		Text: "生成完成，结果如下：",
		Code: prettyJSON(v),
	}, nil
}

// buildChatReply 依次尝试 choices[0].message.content、message、content，
// 负载本身为字符串时直接使用；都不命中时退化为美化打印整个负载。
func buildChatReply(_ Mode, v interface{}) Shape {
	if s, ok := v.(string); ok {
		return Shape{Kind: ShapePlainReply, Text: s}
	}
	if obj, ok := v.(map[string]interface{}); ok {
		if choices, ok := obj["choices"].([]interface{}); ok && len(choices) > 0 {
			if choice, ok := choices[0].(map[string]interface{}); ok {
				if msg, ok := choice["message"].(map[string]interface{}); ok {
					if content, ok := msg["content"].(string); ok {
						return Shape{Kind: ShapePlainReply, Text: content}
					}
				}
			}
		}
		if s := stringField(obj, "message"); s != "" {
			return Shape{Kind: ShapePlainReply, Text: s}
		}
		if s := stringField(obj, "content"); s != "" {
			return Shape{Kind: ShapePlainReply, Text: s}
		}
	}
	return Shape{Kind: ShapePlainReply, Text: "生成完成，结果如下：", Code: prettyJSON(v)}
}

// buildFileList 将列表元素规范化为 {filename, code}，
// 缺失文件名时合成 file_<序号>.py（序号从 1 开始）。
func buildFileList(_ Mode, v interface{}) Shape {
	var items []interface{}
	switch t := v.(type) {
	case []interface{}:
		items = t
	case map[string]interface{}:
		if arr, ok := t["test_files"].([]interface{}); ok {
			items = arr
		} else if arr, ok := t["files"].([]interface{}); ok {
			items = arr
		}
	}

	files := make([]GeneratedFile, 0, len(items))
	for i, item := range items {
		f := GeneratedFile{}
		switch e := item.(type) {
		case map[string]interface{}:
			f.Filename = stringField(e, "filename")
			f.Code = stringField(e, "code")
		case string:
			f.Code = e
		}
		if f.Filename == "" {
			f.Filename = fmt.Sprintf("file_%d.py", i+1)
		}
		files = append(files, f)
	}
	return Shape{Kind: ShapeFileList, Files: files}
}

func hasField(name string) func(Mode, interface{}) bool {
	return func(_ Mode, v interface{}) bool {
		obj, ok := v.(map[string]interface{})
		if !ok {
			return false
		}
		_, present := obj[name]
		return present
	}
}

func stringField(obj map[string]interface{}, name string) string {
	if s, ok := obj[name].(string); ok {
		return s
	}
	return ""
}

func intField(obj map[string]interface{}, name string) int {
	if f, ok := obj[name].(float64); ok {
		return int(f)
	}
	return 0
}

func prettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Package generation 实现了生成编排的核心逻辑：
// 模式到后端端点的映射、后端响应的形状分类，以及代码产物的拆分。
package generation

import (
	"errors"
	"fmt"
)

// ErrUnknownMode 表示调用方传入了无法识别的生成模式，请求不会被发送。
var ErrUnknownMode = errors.New("unknown generation mode")

// ErrMalformedResponse 表示后端以成功状态返回了无法解码的内容。
var ErrMalformedResponse = errors.New("malformed backend response")

// BackendError 携带后端返回的非成功状态码与响应体。
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Body)
}

// Package model 包含了应用的数据模型定义。
package model

// CodeArtifact 代表一轮生成产出的一个可单独打开查看的代码文件。
// 它不落库，仅缓存在 Redis 并归档到对象存储。
type CodeArtifact struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"` // 文件名
	Language     string   `json:"language"`
	PreviewLines []string `json:"previewLines"` // 有界前缀，仅用于展示
	FullCode     string   `json:"fullCode"`
}

// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"

	"testops-assistant-go/internal/config"
	"testops-assistant-go/pkg/es"
)

// ErrSearchDisabled 表示未启用 Elasticsearch，搜索不可用。
var ErrSearchDisabled = errors.New("message search is disabled")

// SearchService 定义了历史轮次搜索的业务接口。
type SearchService interface {
	SearchTurns(ctx context.Context, userID uint, query string, size int) ([]es.SearchHit, error)
}

type searchService struct{}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService() SearchService {
	return &searchService{}
}

// SearchTurns 在用户自己的历史轮次摘要上做全文检索。
func (s *searchService) SearchTurns(ctx context.Context, userID uint, query string, size int) ([]es.SearchHit, error) {
	if !config.Conf.Elasticsearch.Enabled {
		return nil, ErrSearchDisabled
	}
	return es.SearchTurns(ctx, userID, query, size)
}

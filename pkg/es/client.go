// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"testops-assistant-go/internal/config"
	"testops-assistant-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

var indexName string

// TurnDocument 代表存储在 Elasticsearch 中的一轮生成的摘要文档。
type TurnDocument struct {
	TurnID        string    `json:"turn_id"`
	SessionID     string    `json:"session_id"`
	UserID        uint      `json:"user_id"`
	Mode          string    `json:"mode"`
	Shape         string    `json:"shape"`
	Summary       string    `json:"summary"`
	ArtifactCount int       `json:"artifact_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// SearchHit 是消息搜索的单条结果。
type SearchHit struct {
	TurnDocument
	Score float64 `json:"score"`
}

// InitES 初始化 Elasticsearch 客户端并确保索引存在。
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	indexName = esCfg.IndexName
	return createIndexIfNotExists(indexName)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	mapping := `{
		"mappings": {
			"properties": {
				"turn_id":        { "type": "keyword" },
				"session_id":     { "type": "keyword" },
				"user_id":        { "type": "long" },
				"mode":           { "type": "keyword" },
				"shape":          { "type": "keyword" },
				"summary":        { "type": "text" },
				"artifact_count": { "type": "integer" },
				"created_at":     { "type": "date" }
			}
		}
	}`

	createRes, err := ESClient.Indices.Create(indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)))
	if err != nil {
		return err
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return fmt.Errorf("创建索引 '%s' 失败: %s", indexName, createRes.String())
	}
	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexTurnDocument 将一轮生成的摘要写入索引。
func IndexTurnDocument(ctx context.Context, doc TurnDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal turn document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.TurnID,
		Body:       bytes.NewReader(data),
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("failed to index turn document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("indexing turn document returned error: %s", res.String())
	}
	return nil
}

// SearchTurns 在用户自己的轮次摘要上做全文检索。
func SearchTurns(ctx context.Context, userID uint, query string, size int) ([]SearchHit, error) {
	if size <= 0 {
		size = 10
	}
	searchBody := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"match": map[string]interface{}{"summary": query},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"user_id": userID},
				},
			},
		},
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
		},
	}

	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, err
	}

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(indexName),
		ESClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search turns: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search returned error: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64      `json:"_score"`
				Source TurnDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, SearchHit{TurnDocument: h.Source, Score: h.Score})
	}
	return hits, nil
}

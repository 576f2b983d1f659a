// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"testops-assistant-go/internal/config"
	"testops-assistant-go/internal/generation"
	"testops-assistant-go/internal/model"
	"testops-assistant-go/internal/repository"
	"testops-assistant-go/pkg/backend"
	"testops-assistant-go/pkg/es"
	"testops-assistant-go/pkg/events"
	"testops-assistant-go/pkg/kafka"
	"testops-assistant-go/pkg/log"
	"testops-assistant-go/pkg/storage"

	"github.com/google/uuid"
)

// 会话标题取自用户输入的有界前缀。
const sessionTitleLimit = 30

// TurnInput 是一轮对话的输入。
type TurnInput struct {
	User      *model.User
	SessionID string // 为空时在本轮惰性创建会话
	Mode      generation.Mode
	Content   string
}

// TurnResult 是一轮对话的最终结果。
// 持久化是尽力而为的：即使存储失败，结果也完整可渲染。
type TurnResult struct {
	SessionID        string               `json:"sessionId,omitempty"`
	CreatedSession   *model.ChatSession   `json:"createdSession,omitempty"`
	AssistantMessage model.Message        `json:"assistantMessage"`
	Artifacts        []model.CodeArtifact `json:"artifacts,omitempty"`
	Failed           bool                 `json:"failed,omitempty"`
	FailReason       string               `json:"failReason,omitempty"`
}

// TurnService 定义了生成编排的接口：驱动一轮对话从会话保障、
// 消息持久化、后端分发、分类拆分直到结果落地。
type TurnService interface {
	SubmitTurn(ctx context.Context, input TurnInput) (*TurnResult, error)
	OpenArtifact(ctx context.Context, id string) (*model.CodeArtifact, error)
}

type turnService struct {
	sessionRepo  repository.SessionRepository
	artifactRepo repository.ArtifactRepository
	backend      backend.Client
}

// NewTurnService 创建一个新的 TurnService 实例。
func NewTurnService(sessionRepo repository.SessionRepository, artifactRepo repository.ArtifactRepository, backendClient backend.Client) TurnService {
	return &turnService{
		sessionRepo:  sessionRepo,
		artifactRepo: artifactRepo,
		backend:      backendClient,
	}
}

// SubmitTurn 执行一轮完整的对话。
//
// 会话创建与消息持久化失败不会中断本轮：对话以内存状态为准，
// 存储只是持久镜像。后端调用失败或响应不可解码则本轮失败，
// 以一条带警告标记的助手消息呈现（该消息不持久化）。
// 无法识别的模式直接返回 generation.ErrUnknownMode，请求不会被发送。
func (s *turnService) SubmitTurn(ctx context.Context, input TurnInput) (*TurnResult, error) {
	result := &TurnResult{SessionID: input.SessionID}

	// 1. 会话保障：首轮输入时惰性创建
	if result.SessionID == "" {
		session, err := s.sessionRepo.CreateSession(ctx, input.User.ID, titleOf(input.Content))
		if err != nil {
			// 非致命：本轮继续，仅无持久化
			log.Errorf("创建会话失败，本轮将不持久化: %v", err)
		} else {
			result.SessionID = session.ID
			result.CreatedSession = session
		}
	}

	// 2. 持久化用户消息（尽力而为）
	if result.SessionID != "" {
		userMsg := &model.Message{
			SessionID: result.SessionID,
			Role:      model.RoleUser,
			Content:   input.Content,
		}
		if err := s.sessionRepo.AppendMessage(ctx, userMsg); err != nil {
			log.Errorf("持久化用户消息失败: %v", err)
		}
	}

	// 3. 模式解析：未识别的模式不发送任何请求
	genReq, err := generation.Resolve(input.Mode, input.Content)
	if err != nil {
		return nil, err
	}

	// 4. 后端分发：每轮恰好调用一次，不自动重试
	started := time.Now()
	raw, err := s.backend.Generate(ctx, genReq)
	backendMillis := time.Since(started).Milliseconds()
	if err != nil {
		var be *generation.BackendError
		if errors.As(err, &be) {
			return s.failTurn(result, "backend_error",
				fmt.Sprintf("⚠️ 生成失败（HTTP %d）：%s", be.Status, be.Body)), nil
		}
		return nil, err
	}

	// 5. 分类：成功状态下解码失败同样致命
	shape, err := generation.Classify(input.Mode, raw)
	if err != nil {
		if errors.Is(err, generation.ErrMalformedResponse) {
			return s.failTurn(result, "malformed_response",
				fmt.Sprintf("⚠️ 无法解析后端响应：%v", err)), nil
		}
		return nil, err
	}

	// 6. 拆分产物并分配 ID
	artifacts := generation.Split(shape)
	for i := range artifacts {
		artifacts[i].ID = uuid.NewString()
	}
	result.Artifacts = artifacts

	// 7. 构建助手消息，仅第一个产物随消息持久化
	assistantMsg := model.Message{
		ID:        uuid.NewString(),
		SessionID: result.SessionID,
		Role:      model.RoleAssistant,
		Content:   summarize(shape, artifacts),
		CreatedAt: time.Now(),
	}
	if len(artifacts) > 0 {
		first := artifacts[0]
		assistantMsg.AttachedCode = &first.FullCode
		assistantMsg.AttachedFileName = &first.Title
	}
	result.AssistantMessage = assistantMsg

	// 8. 持久化助手消息（尽力而为）
	if result.SessionID != "" {
		persisted := assistantMsg
		if err := s.sessionRepo.AppendMessage(ctx, &persisted); err != nil {
			log.Errorf("持久化助手消息失败: %v", err)
		}
	}

	// 9. 结果落地：缓存、归档、索引与事件，全部尽力而为
	s.settleTurn(ctx, input, result, shape, backendMillis)

	return result, nil
}

// failTurn 将本轮标记为失败，并以一条助手角色的错误消息呈现。
// 错误消息不持久化：存储里只保留用户自己的消息。
func (s *turnService) failTurn(result *TurnResult, reason, text string) *TurnResult {
	result.Failed = true
	result.FailReason = reason
	result.AssistantMessage = model.Message{
		ID:        uuid.NewString(),
		SessionID: result.SessionID,
		Role:      model.RoleAssistant,
		Content:   text,
		CreatedAt: time.Now(),
	}
	return result
}

// settleTurn 执行成功路径上的附加落地步骤，任何一步失败只记录日志。
func (s *turnService) settleTurn(ctx context.Context, input TurnInput, result *TurnResult, shape generation.Shape, backendMillis int64) {
	turnID := uuid.NewString()

	if len(result.Artifacts) > 0 {
		if err := s.artifactRepo.CacheArtifacts(ctx, result.Artifacts); err != nil {
			log.Errorf("缓存产物失败: %v", err)
		}
	}

	if config.Conf.MinIO.Enabled && result.SessionID != "" {
		for _, a := range result.Artifacts {
			objectName := fmt.Sprintf("sessions/%s/turns/%s/%s", result.SessionID, turnID, a.Title)
			if err := storage.ArchiveArtifact(ctx, objectName, a.FullCode); err != nil {
				log.Errorf("归档产物失败: object=%s, err=%v", objectName, err)
			}
		}
	}

	if config.Conf.Elasticsearch.Enabled {
		doc := es.TurnDocument{
			TurnID:        turnID,
			SessionID:     result.SessionID,
			UserID:        input.User.ID,
			Mode:          string(input.Mode),
			Shape:         string(shape.Kind),
			Summary:       result.AssistantMessage.Content,
			ArtifactCount: len(result.Artifacts),
			CreatedAt:     time.Now(),
		}
		if err := es.IndexTurnDocument(ctx, doc); err != nil {
			log.Errorf("索引轮次摘要失败: %v", err)
		}
	}

	if config.Conf.Kafka.Enabled {
		event := events.TurnCompletedEvent{
			TurnID:        turnID,
			SessionID:     result.SessionID,
			UserID:        input.User.ID,
			Mode:          string(input.Mode),
			Shape:         string(shape.Kind),
			ArtifactCount: len(result.Artifacts),
			DeclaredCount: shape.DeclaredCount,
			BackendMillis: backendMillis,
			CreatedAt:     time.Now(),
		}
		if err := kafka.ProduceTurnEvent(ctx, event); err != nil {
			log.Errorf("发送轮次完成事件失败: %v", err)
		}
	}
}

// OpenArtifact 按 ID 取回此前产出的代码产物。
func (s *turnService) OpenArtifact(ctx context.Context, id string) (*model.CodeArtifact, error) {
	return s.artifactRepo.GetArtifact(ctx, id)
}

// titleOf 返回用户输入的有界前缀作为会话标题。
func titleOf(content string) string {
	runes := []rune(content)
	if len(runes) > sessionTitleLimit {
		return string(runes[:sessionTitleLimit])
	}
	return content
}

// summarize 为分类结果生成面向用户的摘要文本。
// 声明的 test_count 仅作展示提示，不与实际拆分出的产物数做校验。
func summarize(shape generation.Shape, artifacts []model.CodeArtifact) string {
	switch shape.Kind {
	case generation.ShapePlainReply:
		if shape.Code != "" {
			return fmt.Sprintf("%s\n\n```json\n%s\n```", shape.Text, shape.Code)
		}
		return shape.Text
	case generation.ShapeAllureBundle:
		if shape.DeclaredCount > 0 {
			return fmt.Sprintf("生成完成：声明 %d 个测试用例，拆分为 %d 个测试文件。", shape.DeclaredCount, len(artifacts))
		}
		return fmt.Sprintf("生成完成：拆分为 %d 个测试文件。", len(artifacts))
	case generation.ShapeFileList:
		return fmt.Sprintf("已生成 %d 个测试文件。", len(artifacts))
	case generation.ShapePytestBundle:
		if shape.DeclaredCount > 0 {
			return fmt.Sprintf("已生成 pytest 测试代码，包含 %d 个测试用例。", shape.DeclaredCount)
		}
		return "已生成 pytest 测试代码。"
	case generation.ShapeSwaggerSuite:
		return "已根据 Swagger 生成 API 测试套件。"
	case generation.ShapeCaseList:
		if len(shape.Cases) > 0 {
			return fmt.Sprintf("已生成 %d 个测试用例。", len(shape.Cases))
		}
		return "已生成测试用例列表。"
	}
	return "生成完成。"
}

// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"testops-assistant-go/internal/service"
	"testops-assistant-go/pkg/log"
	"testops-assistant-go/pkg/token"
)

// SessionHandler 处理与会话相关的 API 请求。
type SessionHandler struct {
	service service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(service service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// CreateSessionRequest 定义了创建会话 API 的请求体结构。
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// CreateSession 处理创建新会话的请求。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	var req CreateSessionRequest
	// 空请求体视为使用默认标题
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
			"data":    nil,
		})
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), claims.UserID, req.Title)
	if err != nil {
		log.Errorf("CreateSession: failed to create session for user %d: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "创建会话失败",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    session,
	})
}

// GetSessions 处理获取用户会话列表的请求，按创建时间倒序返回。
func (h *SessionHandler) GetSessions(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)

	sessions, err := h.service.ListSessions(c.Request.Context(), claims.UserID)
	if err != nil {
		log.Errorf("GetSessions: failed to list sessions for user %d: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取会话列表失败",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    sessions,
	})
}

// GetMessages 处理获取会话消息历史的请求，按创建时间升序返回。
func (h *SessionHandler) GetMessages(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)
	sessionID := c.Param("id")

	messages, err := h.service.ListMessages(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		h.renderSessionError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    messages,
	})
}

// DeleteSession 处理删除会话的请求，会话内的消息一并删除。
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	claims := c.MustGet("claims").(*token.CustomClaims)
	sessionID := c.Param("id")

	if err := h.service.DeleteSession(c.Request.Context(), claims.UserID, sessionID); err != nil {
		h.renderSessionError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "会话已删除",
		"data":    nil,
	})
}

func (h *SessionHandler) renderSessionError(c *gin.Context, sessionID string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "会话不存在",
			"data":    nil,
		})
	case errors.Is(err, service.ErrSessionForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"code":    http.StatusForbidden,
			"message": "无权访问该会话",
			"data":    nil,
		})
	default:
		log.Errorf("session %s: unexpected error: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务器内部错误",
			"data":    nil,
		})
	}
}

// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"testops-assistant-go/internal/generation"
	"testops-assistant-go/internal/model"
	"testops-assistant-go/internal/repository"
	"testops-assistant-go/internal/service"
	"testops-assistant-go/pkg/log"
)

// TurnHandler 处理对话轮次提交与代码产物查看的 API 请求。
type TurnHandler struct {
	service service.TurnService
}

// NewTurnHandler 创建一个新的 TurnHandler。
func NewTurnHandler(service service.TurnService) *TurnHandler {
	return &TurnHandler{service: service}
}

// SubmitTurnRequest 定义了提交对话轮次 API 的请求体结构。
type SubmitTurnRequest struct {
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
	Content   string `json:"content" binding:"required"`
}

// SubmitTurn 处理一轮对话的同步提交：解析模式、调用生成后端、
// 分类拆分后返回助手消息与产物列表。
func (h *TurnHandler) SubmitTurn(c *gin.Context) {
	user := c.MustGet("user").(*model.User)

	var req SubmitTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：content 不能为空",
			"data":    nil,
		})
		return
	}

	input := service.TurnInput{
		User:      user,
		SessionID: req.SessionID,
		Mode:      generation.ParseMode(req.Mode),
		Content:   req.Content,
	}

	result, err := h.service.SubmitTurn(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, generation.ErrUnknownMode) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "无法识别的生成模式：" + req.Mode,
				"data":    nil,
			})
			return
		}
		log.Errorf("SubmitTurn: user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务器内部错误",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    result,
	})
}

// GetArtifact 处理按 ID 查看代码产物的请求，返回完整代码。
func (h *TurnHandler) GetArtifact(c *gin.Context) {
	id := c.Param("id")

	artifact, err := h.service.OpenArtifact(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "产物不存在或已过期",
				"data":    nil,
			})
			return
		}
		log.Errorf("GetArtifact: id=%s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务器内部错误",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    artifact,
	})
}

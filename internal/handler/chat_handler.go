// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"testops-assistant-go/internal/generation"
	"testops-assistant-go/internal/service"
	"testops-assistant-go/pkg/log"
	"testops-assistant-go/pkg/token"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理 WebSocket 聊天连接。
type ChatHandler struct {
	turnService service.TurnService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(turnService service.TurnService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		turnService: turnService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// wsTurnRequest 是客户端通过 WebSocket 发来的一轮对话请求。
type wsTurnRequest struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Content   string `json:"content"`
}

// Handle 处理一个传入的 WebSocket 连接。
// 每条消息对应一轮对话：先回发 thinking 通知，再回发完整结果，
// 最后以 completion 通知收尾。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	// 获取用户模型
	user, err := h.userService.GetProfile(claims.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", claims.Username)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}
		log.Infof("收到 WebSocket 消息: %s", string(message))

		var req wsTurnRequest
		if err := json.Unmarshal(message, &req); err != nil || req.Content == "" {
			h.writeJSON(conn, map[string]string{"error": "无效的请求：content 不能为空"})
			continue
		}

		// 先回发 thinking 通知，前端据此展示加载状态
		h.writeJSON(conn, map[string]interface{}{
			"type":      "thinking",
			"timestamp": time.Now().UnixMilli(),
		})

		input := service.TurnInput{
			User:      user,
			SessionID: req.SessionID,
			Mode:      generation.ParseMode(req.Mode),
			Content:   req.Content,
		}
		result, err := h.turnService.SubmitTurn(c.Request.Context(), input)
		if err != nil {
			if errors.Is(err, generation.ErrUnknownMode) {
				h.writeJSON(conn, map[string]string{"error": "无法识别的生成模式：" + req.Mode})
			} else {
				log.Errorf("处理对话轮次失败: %v", err)
				h.writeJSON(conn, map[string]string{"error": "生成服务暂时不可用，请稍后重试"})
			}
			h.writeCompletion(conn)
			continue
		}

		h.writeJSON(conn, map[string]interface{}{
			"type": "result",
			"data": result,
		})
		h.writeCompletion(conn)
	}
}

func (h *ChatHandler) writeJSON(conn *websocket.Conn, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("序列化 WebSocket 消息失败: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("写入 WebSocket 消息失败: %v", err)
	}
}

// writeCompletion 发送一条轮次结束通知。
func (h *ChatHandler) writeCompletion(conn *websocket.Conn) {
	h.writeJSON(conn, map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"message":   "响应已完成",
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	})
}

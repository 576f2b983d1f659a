package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"testops-assistant-go/internal/service"
	"testops-assistant-go/pkg/log"
	"testops-assistant-go/pkg/token"
)

// SearchHandler 结构体定义了搜索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchTurns 是处理历史轮次全文检索请求的 Gin 处理函数。
func (h *SearchHandler) SearchTurns(c *gin.Context) {
	query := c.Query("q")
	log.Infof("[SearchHandler] 收到搜索请求, q: %s", query)

	if query == "" {
		log.Warnf("[SearchHandler] 搜索请求失败: q 参数为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}
	sizeStr := c.DefaultQuery("size", "10")
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		size = 10
	}

	claims := c.MustGet("claims").(*token.CustomClaims)

	hits, err := h.searchService.SearchTurns(c.Request.Context(), claims.UserID, query, size)
	if err != nil {
		if errors.Is(err, service.ErrSearchDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "搜索功能未启用"})
			return
		}
		log.Errorf("[SearchHandler] 搜索服务返回错误, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}

	log.Infof("[SearchHandler] 搜索成功, q: '%s', 返回 %d 条结果", query, len(hits))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": hits, "message": "success"})
}

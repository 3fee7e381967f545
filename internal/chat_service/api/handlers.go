package api

import (
	"context"
	"net/http"

	"github.com/kristianfreeman/aii/internal/chat_service/service"
	"github.com/kristianfreeman/aii/internal/memory/facts"
	"github.com/kristianfreeman/aii/internal/models"
	"github.com/kristianfreeman/aii/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HealthCheck 是一个可以被探测的依赖健康检查函数。
type HealthCheck func(ctx context.Context) error

// Handler 持有对话服务 HTTP 接口的依赖。
type Handler struct {
	chat   *service.Service
	facts  *facts.Manager
	checks map[string]HealthCheck
	logger *logger.Logger
}

// NewHandler 创建一个新的 Handler。
func NewHandler(chat *service.Service, factManager *facts.Manager, checks map[string]HealthCheck, log *logger.Logger) *Handler {
	return &Handler{
		chat:   chat,
		facts:  factManager,
		checks: checks,
		logger: log,
	}
}

type chatRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Query       string `json:"query" binding:"required"`
	Preferences string `json:"preferences"`
}

// Chat 处理一次对话请求：组装上下文并返回生成的回复。
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.chat.HandleQuery(c.Request.Context(), req.UserID, req.Query, req.Preferences)
	if err != nil {
		h.logger.WithUser(req.UserID).WithError(models.ErrorInfo{
			Message:    err.Error(),
			Type:       "generation_failure",
			StatusCode: http.StatusBadGateway,
		}).Error("chat turn failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

type factRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Fact   string `json:"fact" binding:"required"`
}

// ListFacts 返回用户当前的全部事实。
func (h *Handler) ListFacts(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	factList := h.facts.GetFacts(c.Request.Context(), userID)
	if factList == nil {
		factList = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"facts": factList})
}

// AddFact 添加一个事实 (带去重协议)。
func (h *Handler) AddFact(c *gin.Context) {
	var req factRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.facts.UpdateFacts(c.Request.Context(), req.UserID, req.Fact); err != nil {
		h.logger.WithUser(req.UserID).WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "store_unavailable",
		}).Error("failed to add fact")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add fact"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveFact 按内容删除一个事实。
func (h *Handler) RemoveFact(c *gin.Context) {
	var req factRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.facts.RemoveFact(c.Request.Context(), req.UserID, req.Fact); err != nil {
		h.logger.WithUser(req.UserID).WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "store_unavailable",
		}).Error("failed to remove fact")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove fact"})
		return
	}
	c.Status(http.StatusNoContent)
}

type extractRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// ExtractFacts 从一段文本中抽取事实并逐条写入记忆。
func (h *Handler) ExtractFacts(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.facts.ExtractAndUpdateFacts(c.Request.Context(), req.UserID, req.Text); err != nil {
		h.logger.WithUser(req.UserID).WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "store_unavailable",
		}).Error("failed to extract facts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract facts"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Healthz 逐个探测依赖并返回整体健康状况。
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			results[name] = "ok"
		}
	}
	c.JSON(status, results)
}

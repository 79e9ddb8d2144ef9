package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/services"
	"github.com/AcademiaHub/module-service/internal/utils"
)

type ChatHandler struct {
	BaseHandler
	service services.ChatService
}

func NewChatHandler(service services.ChatService, logger utils.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Ask forwards a message to the study assistant. Anonymous callers get a
// reply but no stored history. Pass stream=true for a chunked response.
// @Summary Ask the assistant
// @Tags chat
// @Accept json
// @Produce json
// @Param message body services.ChatRequest true "Message"
// @Param stream query bool false "Stream the reply as line-delimited JSON"
// @Success 200 {object} services.ChatResponse
// @Failure 400 {object} ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Ask(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := optionalUserID(c)

	stream, _ := strconv.ParseBool(c.DefaultQuery("stream", "false"))
	if stream {
		c.Header("Content-Type", "application/x-ndjson")
		c.Header("Cache-Control", "no-cache")
		if err := h.service.AskStream(c.Request.Context(), userID, &req, c.Writer); err != nil {
			// Headers may already be out; only map the error when nothing
			// has been written yet.
			if !c.Writer.Written() {
				h.handleServiceError(c, err)
			} else {
				utils.FromContext(c, h.logger).Error("assistant stream aborted", "error", err)
			}
		}
		return
	}

	resp, err := h.service.Ask(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History returns the caller's stored conversation, oldest first
// @Summary Chat history
// @Tags chat
// @Produce json
// @Param limit query int false "Max messages (default: 50, max: 200)"
// @Param offset query int false "Skip this many messages"
// @Success 200 {object} services.ChatHistoryResponse
// @Failure 401 {object} ErrorResponse
// @Router /chat/history [get]
func (h *ChatHandler) History(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	history, err := h.service.History(c.Request.Context(), userID, repositories.ChatHistoryFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

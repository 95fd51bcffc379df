package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/service"
	"github.com/noah-isme/bring-api/internal/utils"
)

// ChatHandler wires direct message endpoints including the websocket upgrade.
type ChatHandler struct {
	service service.ChatService
	logger  zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(service service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
	router.Post("/", h.start)
	router.Get("/", h.conversations)
	router.Get("/:id/messages", h.history)
	router.Post("/:id/messages", h.send)
	router.Post("/:id/read", h.markRead)
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	userID := websocketUserID(conn)
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		_ = conn.Close()
		return
	}

	correlation := fmt.Sprint(conn.Locals("correlation_id"))
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.ChatConnectionOptions{
		UserID:        userID,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("user_id", userID).Msg("chat websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("user_id", userID).Msg("chat websocket disconnected")
}

func (h *ChatHandler) start(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	var payload dto.ChatStartRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	conversationID, err := h.service.FindOrCreateChat(requestContext(c), userID, payload.UserID)
	if err != nil {
		return respondError(c, h.logger, err, "open conversation")
	}
	return utils.SendSuccess(c, "conversation ready", dto.ChatStartResponse{ConversationID: conversationID})
}

func (h *ChatHandler) conversations(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	result, err := h.service.ListConversations(requestContext(c), userID)
	if err != nil {
		return respondError(c, h.logger, err, "list conversations")
	}
	return utils.SendSuccess(c, "conversations", result)
}

func (h *ChatHandler) history(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	var beforePtr *time.Time
	if before := c.Query("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid before timestamp")
		}
		beforePtr = &parsed
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	query := dto.ChatHistoryQuery{
		ConversationID: c.Params("id"),
		Before:         beforePtr,
		Limit:          limit,
	}

	messages, err := h.service.ListMessages(requestContext(c), userID, query)
	if err != nil {
		return respondError(c, h.logger, err, "load chat history")
	}
	return utils.SendSuccess(c, "chat history", messages)
}

// send accepts JSON text messages or a multipart form carrying an image file.
func (h *ChatHandler) send(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}
	conversationID := c.Params("id")

	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "file is required")
		}
		message, err := h.service.SendImage(requestContext(c), userID, conversationID, file, c.FormValue("text"))
		if err != nil {
			return respondError(c, h.logger, err, "send image")
		}
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
	}

	var payload dto.ChatSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.ConversationID = conversationID

	message, err := h.service.SendMessage(requestContext(c), userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "send message")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *ChatHandler) markRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return unauthorized(c)
	}

	if err := h.service.MarkRead(requestContext(c), c.Params("id"), userID); err != nil {
		return respondError(c, h.logger, err, "mark conversation read")
	}
	return utils.SendSuccess(c, "conversation read", nil)
}

func websocketUserID(conn *websocket.Conn) string {
	if value, ok := conn.Locals("user_id").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/bring-api/internal/dto"
	"github.com/noah-isme/bring-api/internal/middleware"
	"github.com/noah-isme/bring-api/internal/models"
	"github.com/noah-isme/bring-api/internal/observability"
	"github.com/noah-isme/bring-api/internal/repository"
)

const chatSendBufferSize = 32

// ChatConnectionOptions wraps metadata extracted during the HTTP upgrade.
type ChatConnectionOptions struct {
	UserID        string
	CorrelationID string
	Context       context.Context
}

// ChatService resolves direct conversations and delivers their messages.
type ChatService interface {
	FindOrCreateChat(ctx context.Context, userA, userB string) (string, error)
	UpdateUnreadCount(ctx context.Context, conversationID, userID string) error
	SendMessage(ctx context.Context, senderID string, payload dto.ChatSendRequest) (dto.ChatMessageResponse, error)
	SendImage(ctx context.Context, senderID, conversationID string, file *multipart.FileHeader, caption string) (dto.ChatMessageResponse, error)
	ListConversations(ctx context.Context, userID string) ([]dto.ConversationResponse, error)
	ListMessages(ctx context.Context, userID string, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
	ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions)
	Start(ctx context.Context)
}

type chatService struct {
	repo          repository.ChatRepository
	users         repository.UserRepository
	notifications NotificationPublisher
	uploads       UploadService
	redis         *redis.Client
	redisStream   string
	nats          *nats.Conn
	natsSubject   string
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
	hub           *chatHub
	nodeID        string
	now           func() time.Time
}

// chatHub keeps track of connected websocket clients per user.
type chatHub struct {
	mu    sync.RWMutex
	users map[string]map[*chatClient]struct{}
	log   zerolog.Logger
}

type chatClient struct {
	conn    *websocket.Conn
	send    chan dto.ChatMessageResponse
	options ChatConnectionOptions
	service *chatService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context
}

type chatEvent struct {
	Source     string                  `json:"source"`
	Message    dto.ChatMessageResponse `json:"message"`
	Recipients []string                `json:"recipients"`
	SentAt     time.Time               `json:"sent_at"`
}

// NewChatService creates the direct chat service. uploads, redisClient, natsConn and notifications may be nil.
func NewChatService(repo repository.ChatRepository, users repository.UserRepository, notifications NotificationPublisher, uploads UploadService, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) ChatService {
	streamChannel, natsSubject := realtimeTopics(channelBase, "chat")

	return &chatService{
		repo:          repo,
		users:         users,
		notifications: notifications,
		uploads:       uploads,
		redis:         redisClient,
		redisStream:   streamChannel,
		nats:          natsConn,
		natsSubject:   natsSubject,
		validator:     validate,
		logger:        logger.With().Str("component", "chat_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/bring-api/internal/service/chat"),
		sanitizer:     bluemonday.StrictPolicy(),
		hub: &chatHub{
			users: make(map[string]map[*chatClient]struct{}),
			log:   logger.With().Str("component", "chat_hub").Logger(),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *chatService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// FindOrCreateChat returns the id of the conversation between userA and userB, creating it when needed.
// Conversations stored under a non-deterministic id are still found through the participant scan.
func (s *chatService) FindOrCreateChat(ctx context.Context, userA, userB string) (string, error) {
	userA, userB = strings.TrimSpace(userA), strings.TrimSpace(userB)
	if err := validatePair(userA, userB); err != nil {
		return "", err
	}

	spanCtx, span := s.tracer.Start(ctx, "chat.find_or_create", trace.WithAttributes(
		attribute.String("chat.user_a", userA),
		attribute.String("chat.user_b", userB),
	))
	defer span.End()

	id := models.ConversationID(userA, userB)
	log := s.logger.With().Str("conversation_id", id).Logger()

	fail := func(err error, msg string) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		log.Error().Err(err).Msg(msg)
		return "", ErrChatUnavailable
	}

	stored, err := s.repo.FindConversation(spanCtx, id)
	if err == nil && stored.HasParticipant(userA) && stored.HasParticipant(userB) {
		return id, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(err, "failed to read conversation")
	}

	existing, err := s.repo.ListByParticipant(spanCtx, userA, 0)
	if err != nil {
		return fail(err, "failed to scan conversations")
	}
	for _, conversation := range existing {
		if conversation.HasParticipant(userB) {
			return conversation.ID, nil
		}
	}

	if stored.ID != "" {
		return fail(fmt.Errorf("conversation %s belongs to other users", id), "derived conversation id is taken")
	}

	found, err := s.users.FindByIDs(spanCtx, []string{userA, userB})
	if err != nil {
		return fail(err, "failed to load participants")
	}

	details := map[string]models.ParticipantDetail{
		userA: {Name: models.DefaultDisplayName},
		userB: {Name: models.DefaultDisplayName},
	}
	for _, user := range found {
		details[user.ID] = participantDetail(user)
	}

	conversation := models.Conversation{
		ID:                 id,
		ParticipantA:       userA,
		ParticipantB:       userB,
		ParticipantDetails: datatypes.NewJSONType(details),
	}
	if err := s.repo.CreateConversation(spanCtx, &conversation); err != nil {
		return fail(err, "failed to create conversation")
	}

	log.Info().Msg("conversation created")
	return id, nil
}

// UpdateUnreadCount clears the user's unread counter for the conversation.
func (s *chatService) UpdateUnreadCount(ctx context.Context, conversationID, userID string) error {
	if strings.TrimSpace(conversationID) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: conversation and user are required", ErrInvalidOperation)
	}

	if err := s.repo.ResetUnread(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("reset unread counter: %w", err)
	}
	return nil
}

// SendMessage posts a text message. Images only arrive through SendImage.
func (s *chatService) SendMessage(ctx context.Context, senderID string, payload dto.ChatSendRequest) (dto.ChatMessageResponse, error) {
	return s.send(ctx, senderID, payload, "")
}

func (s *chatService) send(ctx context.Context, senderID string, payload dto.ChatSendRequest, imageURL string) (dto.ChatMessageResponse, error) {
	payload.ConversationID = strings.TrimSpace(payload.ConversationID)
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChatMessageResponse{}, err
	}
	if payload.ConversationID == "" {
		return dto.ChatMessageResponse{}, fmt.Errorf("%w: conversation id is required", ErrInvalidOperation)
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(payload.Text))
	if clean == "" && imageURL == "" {
		return dto.ChatMessageResponse{}, fmt.Errorf("%w: message needs text or an image", ErrInvalidOperation)
	}

	kind := "text"
	if imageURL != "" {
		kind = "image"
	}

	spanCtx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String("chat.conversation_id", payload.ConversationID),
		attribute.String("chat.sender_id", senderID),
		attribute.String("chat.kind", kind),
	))
	defer span.End()

	conversation, err := s.repo.FindConversation(spanCtx, payload.ConversationID)
	if err != nil {
		return dto.ChatMessageResponse{}, translateNotFound(err)
	}
	if !conversation.HasParticipant(senderID) {
		return dto.ChatMessageResponse{}, ErrForbidden
	}
	recipientID := conversation.Other(senderID)

	message := models.DirectMessage{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Text:           clean,
		ImageURL:       imageURL,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.SaveMessage(spanCtx, &message, recipientID); err != nil {
		span.RecordError(err)
		return dto.ChatMessageResponse{}, fmt.Errorf("save message: %w", translateNotFound(err))
	}

	response := dto.NewChatMessageResponse(message)
	recipients := conversation.Participants()
	s.hub.broadcast(recipients, response)
	if err := s.publish(spanCtx, response, recipients); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish chat event")
	}
	observability.ChatMessagesSent().WithLabelValues(kind).Inc()

	s.notifyRecipient(spanCtx, conversation, senderID, recipientID, message)

	return response, nil
}

// SendImage stores the image under the conversation's folder and posts it as a message.
func (s *chatService) SendImage(ctx context.Context, senderID, conversationID string, file *multipart.FileHeader, caption string) (dto.ChatMessageResponse, error) {
	if s.uploads == nil {
		return dto.ChatMessageResponse{}, errors.New("image storage is not configured")
	}

	conversation, err := s.repo.FindConversation(ctx, conversationID)
	if err != nil {
		return dto.ChatMessageResponse{}, translateNotFound(err)
	}
	if !conversation.HasParticipant(senderID) {
		return dto.ChatMessageResponse{}, ErrForbidden
	}

	uploaded, err := s.uploads.Upload(ctx, file, UploadTarget{
		UserID: senderID,
		Kind:   UploadKindMessage,
		Folder: MessageImageFolder(conversation.ID),
	})
	if err != nil {
		return dto.ChatMessageResponse{}, err
	}

	return s.send(ctx, senderID, dto.ChatSendRequest{
		ConversationID: conversation.ID,
		Text:           caption,
	}, uploaded.URL)
}

func (s *chatService) ListConversations(ctx context.Context, userID string) ([]dto.ConversationResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidOperation)
	}

	conversations, err := s.repo.ListByParticipant(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(conversations))
	others := make([]string, 0, len(conversations))
	for _, conversation := range conversations {
		ids = append(ids, conversation.ID)
		others = append(others, conversation.Other(userID))
	}

	unread, err := s.repo.UnreadCounts(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	live := make(map[string]models.User, len(others))
	if len(others) > 0 {
		users, err := s.users.FindByIDs(ctx, others)
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			live[user.ID] = user
		}
	}

	out := make([]dto.ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		otherID := conversation.Other(userID)

		var detail models.ParticipantDetail
		if user, ok := live[otherID]; ok {
			detail = participantDetail(user)
		} else if stored, ok := conversation.ParticipantDetails.Data()[otherID]; ok {
			detail = stored
		} else {
			detail = models.ParticipantDetail{Name: models.DefaultDisplayName}
		}

		out = append(out, dto.ConversationResponse{
			ID:                  conversation.ID,
			Participants:        conversation.Participants(),
			OtherUser:           dto.ParticipantResponse{ID: otherID, Name: detail.Name, Avatar: detail.Avatar},
			LastMessage:         conversation.LastMessageText,
			LastMessageAt:       conversation.LastMessageAt,
			LastMessageSenderID: conversation.LastMessageSenderID,
			UnreadCount:         unread[conversation.ID],
			CreatedAt:           conversation.CreatedAt,
		})
	}

	return out, nil
}

func (s *chatService) ListMessages(ctx context.Context, userID string, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	conversation, err := s.repo.FindConversation(ctx, query.ConversationID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if !conversation.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}

	messages, err := s.repo.ListMessages(ctx, conversation.ID, before, query.Limit)
	if err != nil {
		return nil, err
	}

	return dto.NewChatMessageResponseSlice(messages), nil
}

// MarkRead flags the other participant's messages as read and clears the caller's counter.
// A counter failure is logged; the messages stay marked.
func (s *chatService) MarkRead(ctx context.Context, conversationID, userID string) error {
	conversation, err := s.repo.FindConversation(ctx, conversationID)
	if err != nil {
		return translateNotFound(err)
	}
	if !conversation.HasParticipant(userID) {
		return ErrForbidden
	}

	if _, err := s.repo.MarkMessagesRead(ctx, conversation.ID, userID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}

	if err := s.UpdateUnreadCount(ctx, conversation.ID, userID); err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", conversation.ID).Str("user_id", userID).Msg("failed to reset unread counter")
	}
	return nil
}

func (s *chatService) ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &chatClient{
		conn:    conn,
		send:    make(chan dto.ChatMessageResponse, chatSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	s.hub.register(client)
	observability.ChatConnectionsTotal().Inc()

	go client.writer()
	client.reader()
}

func (s *chatService) notifyRecipient(ctx context.Context, conversation models.Conversation, senderID, recipientID string, message models.DirectMessage) {
	if s.notifications == nil {
		return
	}

	name := models.DefaultDisplayName
	if detail, ok := conversation.ParticipantDetails.Data()[senderID]; ok && detail.Name != "" {
		name = detail.Name
	}

	if _, err := s.notifications.Publish(ctx, MessageNotice(recipientID, name, message.Preview())); err != nil {
		s.logger.Warn().Err(err).Str("recipient_id", recipientID).Msg("failed to publish message notification")
	}
}

func (s *chatService) publish(ctx context.Context, message dto.ChatMessageResponse, recipients []string) error {
	event := chatEvent{
		Source:     s.nodeID,
		Message:    message,
		Recipients: recipients,
		SentAt:     s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *chatService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("chat redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *chatService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats chat subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain chat nats subscription")
		}
	}()
}

func (s *chatService) handleEvent(data []byte) {
	var event chatEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid chat event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.hub.broadcast(event.Recipients, event.Message)
}

func participantDetail(user models.User) models.ParticipantDetail {
	detail := models.ParticipantDetail{Name: user.Name()}
	if user.AvatarURL != "" {
		avatar := user.AvatarURL
		detail.Avatar = &avatar
	}
	return detail
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max]) + "…"
}

func (h *chatHub) register(client *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.options.UserID
	if _, exists := h.users[userID]; !exists {
		h.users[userID] = make(map[*chatClient]struct{})
	}
	h.users[userID][client] = struct{}{}
	h.log.Debug().Str("user_id", userID).Msg("chat client connected")
}

func (h *chatHub) unregister(client *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.options.UserID
	if clients, ok := h.users[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.users, userID)
		}
	}
	h.log.Debug().Str("user_id", userID).Msg("chat client disconnected")
}

func (h *chatHub) broadcast(userIDs []string, message dto.ChatMessageResponse) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		for client := range h.users[userID] {
			select {
			case client.send <- message:
			default:
				h.log.Warn().Str("user_id", userID).Str("conversation_id", message.ConversationID).Msg("dropping chat message for slow client")
			}
		}
	}
}

func (c *chatClient) reader() {
	defer c.close()

	connCtx := c.baseCtx
	if c.options.CorrelationID == "" {
		c.options.CorrelationID = middleware.CorrelationIDFromContext(connCtx)
	}
	log := c.service.logger.With().
		Str("user_id", c.options.UserID).
		Str("correlation_id", c.options.CorrelationID).
		Logger()

	for {
		var payload dto.ChatSendRequest
		if err := c.conn.ReadJSON(&payload); err != nil {
			log.Debug().Err(err).Msg("chat read loop ended")
			return
		}

		// The hub echoes the stored message back to every connection of the sender.
		if _, err := c.service.SendMessage(connCtx, c.options.UserID, payload); err != nil {
			log.Warn().Err(err).Str("conversation_id", payload.ConversationID).Msg("failed to process chat message")
			continue
		}

		select {
		case <-c.closed:
			return
		default:
		}
	}
}

func (c *chatClient) writer() {
	defer c.close()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.WriteJSON(message); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *chatClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}

package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/logger"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
	"github.com/ignatzorin/gig-marketplace/internal/storage"
	"github.com/ignatzorin/gig-marketplace/internal/validation"
	"github.com/ignatzorin/gig-marketplace/internal/ws"
)

// ConversationStore описывает хранилище диалогов.
type ConversationStore interface {
	Create(ctx context.Context, conv *models.Conversation) error
	CreateWithMessages(ctx context.Context, conv *models.Conversation, messages []models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Conversation, error)
	FindBetween(ctx context.Context, a, b uuid.UUID, convType string, gigID *uuid.UUID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID, search string) ([]models.Conversation, error)
	UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error)
}

// MessageStore описывает хранилище сообщений чата.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) (map[uuid.UUID]int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListPage(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, int, error)
	MarkConversationRead(ctx context.Context, conversationID, userID uuid.UUID) error
	Edit(ctx context.Context, msg *models.Message, content string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) ([]models.MessageReaction, error)
}

// ChatUsers даёт доступ к данным собеседников.
type ChatUsers interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListShort(ctx context.Context, ids []uuid.UUID) ([]models.UserShort, error)
}

// ChatOrders даёт доступ к заказам, к которым привязаны диалоги.
type ChatOrders interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListMessages(ctx context.Context, orderID uuid.UUID) ([]models.OrderMessage, error)
	ListWithoutConversation(ctx context.Context) ([]models.Order, error)
}

// MessageNotifier создаёт уведомления о новых сообщениях.
type MessageNotifier interface {
	MessageReceived(ctx context.Context, conv *models.Conversation, senderID uuid.UUID, content string)
}

// ChatDeps собирает зависимости ChatService.
type ChatDeps struct {
	Conversations ConversationStore
	Messages      MessageStore
	Users         ChatUsers
	Orders        ChatOrders
	Gigs          GigLookup
	Notifier      MessageNotifier
	Uploader      FileUploader
	Broadcaster   Broadcaster
}

// ChatService отвечает за диалоги, сообщения и системные уведомления в чате заказа.
type ChatService struct {
	convs       ConversationStore
	messages    MessageStore
	users       ChatUsers
	orders      ChatOrders
	gigs        GigLookup
	notifier    MessageNotifier
	uploader    FileUploader
	broadcaster Broadcaster
}

// NewChatService создаёт сервис чата.
func NewChatService(deps ChatDeps) *ChatService {
	return &ChatService{
		convs:       deps.Conversations,
		messages:    deps.Messages,
		users:       deps.Users,
		orders:      deps.Orders,
		gigs:        deps.Gigs,
		notifier:    deps.Notifier,
		uploader:    deps.Uploader,
		broadcaster: broadcasterOrNoop(deps.Broadcaster),
	}
}

// ConversationRequest: параметры поиска или создания диалога.
type ConversationRequest struct {
	ParticipantID *uuid.UUID
	OrderID       *uuid.UUID
	GigID         *uuid.UUID
	Type          string
}

// SendMessageInput: данные нового сообщения.
type SendMessageInput struct {
	Content     string
	MessageType string
	Attachments models.Attachments
	ReplyTo     *uuid.UUID
}

// MessagePage: страница сообщений в хронологическом порядке.
type MessagePage struct {
	Messages    []models.Message `json:"messages"`
	TotalPages  int              `json:"total_pages"`
	CurrentPage int              `json:"current_page"`
	Total       int              `json:"total"`
	HasMore     bool             `json:"has_more"`
}

// MigrationResult: итог переноса сообщений заказов в диалоги.
type MigrationResult struct {
	Orders        int `json:"orders"`
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
	Failed        int `json:"failed"`
}

// ListConversations возвращает неархивные диалоги пользователя.
// Непустой search фильтрует по названию и последнему сообщению.
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID, search string) ([]models.Conversation, error) {
	convs, err := s.convs.ListForUser(ctx, userID, strings.TrimSpace(search))
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.attachOtherParticipants(ctx, userID, convs); err != nil {
		return nil, mapError(err)
	}
	return convs, nil
}

// GetOrCreate находит подходящий диалог или создаёт новый.
// Собеседник определяется по заказу, по продавцу услуги или берётся из запроса.
func (s *ChatService) GetOrCreate(ctx context.Context, userID uuid.UUID, req ConversationRequest) (*models.Conversation, bool, error) {
	if req.OrderID != nil {
		order, err := s.orders.GetByID(ctx, *req.OrderID)
		if err != nil {
			return nil, false, mapError(err)
		}
		if !order.IsParticipant(userID) {
			return nil, false, forbidden("вы не участник этого заказа")
		}
		conv, created, err := s.orderConversation(ctx, order)
		if err != nil {
			return nil, false, mapError(err)
		}
		return s.decorate(ctx, userID, conv), created, nil
	}

	participantID := req.ParticipantID
	convType := req.Type
	var title *string

	if req.GigID != nil {
		gig, err := s.gigs.GetByID(ctx, *req.GigID)
		if err != nil {
			return nil, false, mapError(err)
		}
		if participantID == nil {
			participantID = &gig.SellerID
		}
		if convType == "" {
			convType = models.ConversationTypeInquiry
		}
		title = &gig.Title
	}

	if participantID == nil {
		return nil, false, validationError("не указан собеседник")
	}
	if *participantID == userID {
		return nil, false, validationError("нельзя начать диалог с самим собой")
	}
	if convType == "" {
		convType = models.ConversationTypeGeneral
	}
	if convType == models.ConversationTypeOrder {
		return nil, false, validationError("для диалога по заказу укажите orderId")
	}

	var gigFilter *uuid.UUID
	if convType == models.ConversationTypeInquiry {
		gigFilter = req.GigID
	}

	conv, created, err := s.findOrCreate(ctx, userID, *participantID, convType, gigFilter, title)
	if err != nil {
		return nil, false, mapError(err)
	}
	return s.decorate(ctx, userID, conv), created, nil
}

// Direct находит или создаёт личный диалог с пользователем.
func (s *ChatService) Direct(ctx context.Context, userID, participantID uuid.UUID) (*models.Conversation, bool, error) {
	if participantID == userID {
		return nil, false, validationError("нельзя начать диалог с самим собой")
	}
	if _, err := s.users.GetByID(ctx, participantID); err != nil {
		return nil, false, mapError(err)
	}
	conv, created, err := s.findOrCreate(ctx, userID, participantID, models.ConversationTypeDirect, nil, nil)
	if err != nil {
		return nil, false, mapError(err)
	}
	return s.decorate(ctx, userID, conv), created, nil
}

// Messages возвращает страницу сообщений от старых к новым и отмечает чужие прочитанными.
func (s *ChatService) Messages(ctx context.Context, conversationID, userID uuid.UUID, page, limit int) (*MessagePage, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	page, limit, offset := pageWindow(page, limit, 50, 100)
	msgs, total, err := s.messages.ListPage(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if err := s.markRead(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	return &MessagePage{
		Messages:    msgs,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
		HasMore:     offset+len(msgs) < total,
	}, nil
}

// Send сохраняет сообщение участника и рассылает события остальным.
func (s *ChatService) Send(ctx context.Context, conversationID, senderID uuid.UUID, in SendMessageInput) (*models.Message, error) {
	conv, err := s.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msgType := in.MessageType
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	switch msgType {
	case models.MessageTypeText:
		if err := validation.ValidateMessageContent(in.Content); err != nil {
			return nil, validationError(err.Error())
		}
	case models.MessageTypeFile, models.MessageTypeImage:
		if len(in.Attachments) == 0 {
			return nil, validationError("для сообщения с файлом нужны вложения")
		}
	default:
		return nil, validationError("недопустимый тип сообщения")
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        strings.TrimSpace(in.Content),
		MessageType:    msgType,
		Attachments:    in.Attachments,
		ReplyTo:        in.ReplyTo,
	}
	unread, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, mapError(err)
	}

	s.fanOut(conv, msg, unread, true)
	if s.notifier != nil {
		s.notifier.MessageReceived(ctx, conv, senderID, previewText(msg))
	}
	return msg, nil
}

// MarkRead сбрасывает счётчик непрочитанных участника.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.markRead(ctx, conversationID, userID)
}

// EditMessage меняет текст своего текстового сообщения, сохраняя историю правок.
func (s *ChatService) EditMessage(ctx context.Context, messageID, userID uuid.UUID, content string) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, mapError(err)
	}
	if msg.SenderID != userID {
		return nil, forbidden("редактировать можно только свои сообщения")
	}
	if msg.MessageType != models.MessageTypeText {
		return nil, validationError("редактировать можно только текстовые сообщения")
	}
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, validationError(err.Error())
	}

	if err := s.messages.Edit(ctx, msg, strings.TrimSpace(content)); err != nil {
		return nil, mapError(err)
	}
	emitToRoom(s.broadcaster, ws.RoomConversation(msg.ConversationID), EventMessageEdited, msg)
	return msg, nil
}

// DeleteMessage мягко удаляет своё сообщение.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return mapError(err)
	}
	if msg.SenderID != userID {
		return forbidden("удалять можно только свои сообщения")
	}
	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return mapError(err)
	}
	emitToRoom(s.broadcaster, ws.RoomConversation(msg.ConversationID), EventMessageDeleted, map[string]interface{}{
		"messageId":      messageID,
		"conversationId": msg.ConversationID,
	})
	return nil
}

// ToggleReaction добавляет или снимает реакцию участника диалога.
func (s *ChatService) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) ([]models.MessageReaction, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len([]rune(emoji)) > 8 {
		return nil, validationError("некорректная реакция")
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, mapError(err)
	}
	if _, err := s.participantConversation(ctx, msg.ConversationID, userID); err != nil {
		return nil, err
	}

	reactions, err := s.messages.ToggleReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, mapError(err)
	}
	emitToRoom(s.broadcaster, ws.RoomConversation(msg.ConversationID), EventMessageReaction, map[string]interface{}{
		"messageId": messageID,
		"reactions": reactions,
	})
	return reactions, nil
}

// Upload сохраняет вложение для диалога и возвращает его метаданные.
func (s *ChatService) Upload(ctx context.Context, conversationID, userID uuid.UUID, fh *multipart.FileHeader) (*models.Attachment, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, validationError("загрузка файлов недоступна")
	}

	stored, err := s.uploader.Upload(ctx, fh, storage.DeliveryPolicy.Merge(storage.ImagePolicy), storage.ChatKey(conversationID))
	if err != nil {
		return nil, mapError(err)
	}
	return &models.Attachment{
		FileName:     stored.Key,
		OriginalName: stored.OriginalName,
		FileURL:      stored.URL,
		FileSize:     stored.Size,
		MimeType:     stored.MIME,
		PublicID:     stored.Key,
		UploadedAt:   time.Now().UTC(),
	}, nil
}

// SendSystemMessage пишет системное сообщение в диалог заказа от имени продавца.
func (s *ChatService) SendSystemMessage(ctx context.Context, order *models.Order, content string, systemData map[string]interface{}) error {
	conv, _, err := s.orderConversation(ctx, order)
	if err != nil {
		return err
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       order.SellerID,
		Content:        content,
		MessageType:    models.MessageTypeSystem,
	}
	if systemData != nil {
		msg.SystemData = metadata(systemData)
	}
	unread, err := s.messages.Create(ctx, msg)
	if err != nil {
		return err
	}

	emitToRoom(s.broadcaster, ws.RoomConversation(conv.ID), EventNewMessage, msg)
	emitToUser(s.broadcaster, order.BuyerID, EventConversationUpdated, conversationUpdate(conv.ID, msg, unread[order.BuyerID]))
	return nil
}

// MirrorOrderMessage дублирует сообщение из ленты заказа в диалог заказа.
func (s *ChatService) MirrorOrderMessage(ctx context.Context, order *models.Order, senderID uuid.UUID, text string) (*models.Message, error) {
	conv, _, err := s.orderConversation(ctx, order)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        text,
		MessageType:    models.MessageTypeText,
	}
	unread, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.fanOut(conv, msg, unread, false)
	emitToUser(s.broadcaster, senderID, EventConversationUpdated, conversationUpdate(conv.ID, msg, 0))
	return msg, nil
}

// MigrateOrderMessages переносит сообщения заказов без диалога в новые диалоги заказов.
func (s *ChatService) MigrateOrderMessages(ctx context.Context) (*MigrationResult, error) {
	orders, err := s.orders.ListWithoutConversation(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	log := logger.Component("chat")
	res := &MigrationResult{Orders: len(orders)}
	for i := range orders {
		order := &orders[i]
		history, err := s.orders.ListMessages(ctx, order.ID)
		if err != nil {
			res.Failed++
			log.WithError(err).WithField("order_id", order.ID).Warn("failed to load order messages")
			continue
		}

		msgs := make([]models.Message, 0, len(history))
		for _, h := range history {
			sender := order.SellerID
			if h.SenderID != nil {
				sender = *h.SenderID
			}
			msgType := models.MessageTypeText
			if h.IsSystem {
				msgType = models.MessageTypeSystem
			}
			msgs = append(msgs, models.Message{
				SenderID:    sender,
				Content:     h.Message,
				MessageType: msgType,
				Status:      models.MessageStatusRead,
				CreatedAt:   h.CreatedAt,
			})
		}

		conv := newOrderConversation(order)
		if err := s.convs.CreateWithMessages(ctx, conv, msgs); err != nil {
			res.Failed++
			log.WithError(err).WithField("order_id", order.ID).Warn("failed to migrate order messages")
			continue
		}
		res.Conversations++
		res.Messages += len(msgs)
	}

	log.WithField("orders", res.Orders).
		WithField("conversations", res.Conversations).
		WithField("messages", res.Messages).
		Info("order messages migrated")
	return res, nil
}

// CanJoinConversation проверяет, что пользователь участвует в диалоге.
func (s *ChatService) CanJoinConversation(ctx context.Context, userID, conversationID uuid.UUID) (bool, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return false, nil
		}
		return false, err
	}
	return conv.HasParticipant(userID), nil
}

func (s *ChatService) participantConversation(ctx context.Context, conversationID, userID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, mapError(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, forbidden("вы не участник этого диалога")
	}
	return conv, nil
}

func (s *ChatService) markRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	if err := s.messages.MarkConversationRead(ctx, conversationID, userID); err != nil {
		return mapError(err)
	}
	emitToRoom(s.broadcaster, ws.RoomConversation(conversationID), EventMessagesRead, map[string]interface{}{
		"conversationId": conversationID,
		"userId":         userID,
	})
	return nil
}

// fanOut рассылает новое сообщение в комнату диалога и личные комнаты остальных участников.
func (s *ChatService) fanOut(conv *models.Conversation, msg *models.Message, unread map[uuid.UUID]int, withNotification bool) {
	emitToRoom(s.broadcaster, ws.RoomConversation(conv.ID), EventNewMessage, msg)
	for _, participant := range conv.Participants {
		if participant == msg.SenderID {
			continue
		}
		emitToUser(s.broadcaster, participant, EventConversationUpdated, conversationUpdate(conv.ID, msg, unread[participant]))
		if withNotification {
			emitToUser(s.broadcaster, participant, EventMessageNotification, map[string]interface{}{
				"conversationId": conv.ID,
				"message":        msg,
				"senderId":       msg.SenderID,
			})
		}
	}
}

func (s *ChatService) orderConversation(ctx context.Context, order *models.Order) (*models.Conversation, bool, error) {
	conv, err := s.convs.FindByOrder(ctx, order.ID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, repository.ErrConversationNotFound) {
		return nil, false, err
	}

	conv = newOrderConversation(order)
	if err := s.convs.Create(ctx, conv); err != nil {
		if errors.Is(err, repository.ErrConversationExists) {
			existing, ferr := s.convs.FindByOrder(ctx, order.ID)
			return existing, false, ferr
		}
		return nil, false, err
	}
	return conv, true, nil
}

func (s *ChatService) findOrCreate(ctx context.Context, userID, participantID uuid.UUID, convType string, gigID *uuid.UUID, title *string) (*models.Conversation, bool, error) {
	conv, err := s.convs.FindBetween(ctx, userID, participantID, convType, gigID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, repository.ErrConversationNotFound) {
		return nil, false, err
	}

	conv = &models.Conversation{
		GigID:        gigID,
		Type:         convType,
		Title:        title,
		Participants: []uuid.UUID{userID, participantID},
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

// decorate заполняет собеседника и счётчик непрочитанных для ответа клиенту.
func (s *ChatService) decorate(ctx context.Context, userID uuid.UUID, conv *models.Conversation) *models.Conversation {
	list := []models.Conversation{*conv}
	if err := s.attachOtherParticipants(ctx, userID, list); err != nil {
		logger.Component("chat").WithError(err).Warn("failed to load participants")
	}
	if n, err := s.convs.UnreadCount(ctx, conv.ID, userID); err == nil {
		list[0].UnreadCount = n
	}
	return &list[0]
}

func (s *ChatService) attachOtherParticipants(ctx context.Context, userID uuid.UUID, convs []models.Conversation) error {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, c := range convs {
		for _, p := range c.Participants {
			if p == userID {
				continue
			}
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				ids = append(ids, p)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := s.users.ListShort(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.UserShort, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range convs {
		for _, p := range convs[i].Participants {
			if u, ok := byID[p]; ok && p != userID {
				u := u
				convs[i].OtherParticipant = &u
				break
			}
		}
	}
	return nil
}

func newOrderConversation(order *models.Order) *models.Conversation {
	orderID, gigID := order.ID, order.GigID
	title := "Order: " + order.GigTitle
	return &models.Conversation{
		OrderID:      &orderID,
		GigID:        &gigID,
		Type:         models.ConversationTypeOrder,
		Title:        &title,
		Participants: []uuid.UUID{order.BuyerID, order.SellerID},
	}
}

func conversationUpdate(conversationID uuid.UUID, msg *models.Message, unread int) map[string]interface{} {
	return map[string]interface{}{
		"conversationId": conversationID,
		"lastMessage": models.LastMessage{
			Content:     msg.Content,
			Sender:      msg.SenderID,
			Timestamp:   msg.CreatedAt,
			MessageType: msg.MessageType,
		},
		"unreadCount": unread,
	}
}

func previewText(msg *models.Message) string {
	if msg.Content != "" {
		return msg.Content
	}
	if len(msg.Attachments) > 0 {
		return "📎 " + msg.Attachments[0].OriginalName
	}
	return ""
}

package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

const (
	streamBuffer      = 16
	heartbeatInterval = 30 * time.Second
)

type SendMessageInput struct {
	Content string `json:"content" binding:"required" example:"See you at 7?"`
}

type ConversationResponse struct {
	PartnerID   uint                   `json:"partner_id"`
	LastMessage service.MessagePayload `json:"last_message"`
	Unread      int64                  `json:"unread"`
}

type UnreadResponse struct {
	Unread int64 `json:"unread"`
}

func newMessagePayloads(messages []models.Message) []service.MessagePayload {
	out := make([]service.MessagePayload, 0, len(messages))
	for i := range messages {
		out = append(out, service.NewMessagePayload(&messages[i]))
	}
	return out
}

// GetConversations godoc
// @Summary      List conversations
// @Description  Returns the latest message exchanged with each partner, newest first, with unread counts.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ConversationResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /messages [get]
func (h *Handler) GetConversations(c *gin.Context) {
	summaries, err := h.messages.Conversations(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]ConversationResponse, 0, len(summaries))
	for i := range summaries {
		out = append(out, ConversationResponse{
			PartnerID:   summaries[i].PartnerID,
			LastMessage: service.NewMessagePayload(&summaries[i].LastMessage),
			Unread:      summaries[i].Unread,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetUnreadCount godoc
// @Summary      Count unread messages
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UnreadResponse
// @Router       /messages/unread [get]
func (h *Handler) GetUnreadCount(c *gin.Context) {
	n, err := h.messages.UnreadCount(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UnreadResponse{Unread: n})
}

// GetConversation godoc
// @Summary      Get a conversation
// @Description  Returns messages exchanged with another user, oldest first.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path   int  true   "Partner user ID"
// @Param        page    query  int  false  "Page number" default(1)
// @Param        limit   query  int  false  "Items per page" default(10)
// @Success      200  {array}   service.MessagePayload
// @Failure      400  {object}  ErrorResponse
// @Router       /messages/{userID} [get]
func (h *Handler) GetConversation(c *gin.Context) {
	partnerID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	messages, err := h.messages.Conversation(c.Request.Context(), currentUser(c), partnerID, pageFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMessagePayloads(messages))
}

// SendMessage godoc
// @Summary      Send a message
// @Description  Sends a direct message. The receiver gets it on their event stream.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path  int               true  "Receiver user ID"
// @Param        input   body  SendMessageInput  true  "Message"
// @Success      201  {object}  service.MessagePayload
// @Failure      400  {object}  ErrorResponse "Empty, too long or addressed to self"
// @Failure      404  {object}  ErrorResponse "Receiver not found"
// @Router       /messages/{userID} [post]
func (h *Handler) SendMessage(c *gin.Context) {
	receiverID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messages.Send(c.Request.Context(), currentUser(c), receiverID, input.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.NewMessagePayload(message))
}

// MarkConversationRead godoc
// @Summary      Mark a conversation read
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path  int  true  "Partner user ID"
// @Success      200  {object}  map[string]int64 "{"marked": 3}"
// @Router       /messages/{userID}/read [post]
func (h *Handler) MarkConversationRead(c *gin.Context) {
	partnerID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	n, err := h.messages.MarkRead(c.Request.Context(), currentUser(c), partnerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// StreamEvents godoc
// @Summary      Realtime event stream
// @Description  Server-sent events for the current user: friend requests, messages, level ups and game changes.
// @Tags         realtime
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {string}  string "event stream"
// @Router       /events [get]
func (h *Handler) StreamEvents(c *gin.Context) {
	userID := currentUser(c)
	ctx := c.Request.Context()

	client := make(hub.Client, streamBuffer)
	h.hub.Subscribe(userID, client)
	h.markOnline(ctx, userID)
	defer func() {
		h.hub.Unsubscribe(userID, client)
		if h.hub.Connected(userID) > 0 {
			return
		}
		if err := h.presence.SetOffline(context.WithoutCancel(ctx), userID); err != nil {
			h.log.Warn("presence: set offline", "user_id", userID, "err", err)
		}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-heartbeat.C:
			h.markOnline(ctx, userID)
			c.SSEvent("ping", "")
			return true
		}
	})
}

func (h *Handler) markOnline(ctx context.Context, userID uint) {
	if err := h.presence.SetOnline(ctx, userID); err != nil {
		h.log.Warn("presence: set online", "user_id", userID, "err", err)
	}
}

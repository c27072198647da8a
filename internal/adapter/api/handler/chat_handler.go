package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
	"campusmarket/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startConversationRequest struct {
	RecipientID    string `json:"recipient_id" validate:"omitempty"`
	ListingID      string `json:"listing_id" validate:"omitempty"`
	InitialMessage string `json:"initial_message" validate:"omitempty,max=4000"`
}

func (h *ChatHandler) StartConversation(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.chatUseCase.StartConversation(c.Request().Context(), uid, usecase.StartConversationInput{
		RecipientID:    req.RecipientID,
		ListingID:      req.ListingID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		// An existing pair is success-equivalent: the caller gets the
		// conversation it asked for, just not a new row.
		if errors.Is(err, "CONFLICT") && conversation != nil {
			return response.Success(c, conversation)
		}
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

func (h *ChatHandler) GetConversations(c echo.Context) error {
	uid := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	conversations, total, err := h.chatUseCase.GetConversations(c.Request().Context(), uid, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, conversations, total, pagination.Page, pagination.PageSize)
}

// GetSummaries returns the compact rows the conversation list renders from.
func (h *ChatHandler) GetSummaries(c echo.Context) error {
	uid := c.Get("uid").(string)

	summaries, err := h.chatUseCase.ConversationSummaries(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summaries)
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), uid, usecase.SendMessageInput{
		ConversationID: c.Param("id"),
		Content:        req.Content,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	uid := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	messages, total, err := h.chatUseCase.GetMessages(c.Request().Context(), uid, c.Param("id"), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, pagination.Page, pagination.PageSize)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.chatUseCase.MarkConversationRead(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

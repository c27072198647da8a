package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/response"
	"campusmarket/pkg/utils"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationUseCase.List(c.Request().Context(), uid, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, notifications, total, pagination.Page, pagination.PageSize)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	uid := c.Get("uid").(string)

	count, err := h.notificationUseCase.CountUnread(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"unread": count})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.notificationUseCase.MarkRead(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.notificationUseCase.MarkAllRead(c.Request().Context(), uid); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.notificationUseCase.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}

func (h *NotificationHandler) ListAnnouncements(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	announcements, total, err := h.notificationUseCase.ListAnnouncements(c.Request().Context(), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, announcements, total, pagination.Page, pagination.PageSize)
}

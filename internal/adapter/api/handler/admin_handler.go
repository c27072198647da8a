package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
	"campusmarket/pkg/utils"
)

type AdminHandler struct {
	adminUseCase        *usecase.AdminUseCase
	reviewUseCase       *usecase.ReviewUseCase
	notificationUseCase *usecase.NotificationUseCase
}

func NewAdminHandler(adminUseCase *usecase.AdminUseCase, reviewUseCase *usecase.ReviewUseCase, notificationUseCase *usecase.NotificationUseCase) *AdminHandler {
	return &AdminHandler{
		adminUseCase:        adminUseCase,
		reviewUseCase:       reviewUseCase,
		notificationUseCase: notificationUseCase,
	}
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.adminUseCase.SetUserStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *AdminHandler) SetListingStatus(c echo.Context) error {
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.adminUseCase.SetListingStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *AdminHandler) SetPostStatus(c echo.Context) error {
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	post, err := h.adminUseCase.SetPostStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, post)
}

func (h *AdminHandler) RemoveComment(c echo.Context) error {
	if err := h.adminUseCase.RemoveComment(c.Request().Context(), c.Param("id"), c.Param("commentId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "removed"})
}

func (h *AdminHandler) ListReportedReviews(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	status := c.QueryParam("status")

	reports, total, err := h.reviewUseCase.ListReportedReviews(c.Request().Context(), status, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, reports, total, pagination.Page, pagination.PageSize)
}

type resolveReportRequest struct {
	Status string `json:"status" validate:"required,oneof=resolved rejected"`
}

func (h *AdminHandler) ResolveReport(c echo.Context) error {
	var req resolveReportRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.reviewUseCase.ResolveReport(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, report)
}

func (h *AdminHandler) UpdateReviewStatus(c echo.Context) error {
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	review, err := h.reviewUseCase.UpdateReviewStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, review)
}

type publishAnnouncementRequest struct {
	Title string `json:"title" validate:"required,max=120"`
	Body  string `json:"body" validate:"required"`
}

func (h *AdminHandler) PublishAnnouncement(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req publishAnnouncementRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	announcement, err := h.notificationUseCase.PublishAnnouncement(c.Request().Context(), uid, req.Title, req.Body)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, announcement)
}

package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
	"campusmarket/pkg/utils"
)

type ReviewHandler struct {
	reviewUseCase *usecase.ReviewUseCase
}

func NewReviewHandler(reviewUseCase *usecase.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{
		reviewUseCase: reviewUseCase,
	}
}

type createReviewRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Content   string `json:"content" validate:"omitempty,max=2000"`
}

func (h *ReviewHandler) Create(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	review, err := h.reviewUseCase.CreateReview(c.Request().Context(), uid, usecase.CreateReviewInput{
		ListingID: req.ListingID,
		Rating:    req.Rating,
		Content:   req.Content,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, review)
}

func (h *ReviewHandler) List(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	rating, _ := strconv.Atoi(c.QueryParam("rating"))

	reviews, total, err := h.reviewUseCase.ListReviews(c.Request().Context(), c.QueryParam("target_id"), rating, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, reviews, total, pagination.Page, pagination.PageSize)
}

type reportReviewRequest struct {
	Reason      string `json:"reason" validate:"required,oneof=inappropriate spam fake offensive other"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

func (h *ReviewHandler) Report(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req reportReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	report, err := h.reviewUseCase.ReportReview(c.Request().Context(), uid, c.Param("id"), req.Reason, req.Description)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, report)
}

package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
	"campusmarket/pkg/utils"
)

type PostHandler struct {
	postUseCase *usecase.PostUseCase
}

func NewPostHandler(postUseCase *usecase.PostUseCase) *PostHandler {
	return &PostHandler{
		postUseCase: postUseCase,
	}
}

type createPostRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=200"`
	Content  string `json:"content" validate:"required,min=1"`
	Category string `json:"category"`
}

func (h *PostHandler) Create(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	post, err := h.postUseCase.Create(c.Request().Context(), uid, usecase.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, post)
}

func (h *PostHandler) GetByID(c echo.Context) error {
	post, err := h.postUseCase.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, post)
}

func (h *PostHandler) List(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	posts, total, err := h.postUseCase.List(c.Request().Context(), c.QueryParam("category"), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, posts, total, pagination.Page, pagination.PageSize)
}

func (h *PostHandler) Delete(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.postUseCase.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

func (h *PostHandler) CreateComment(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	comment, err := h.postUseCase.CreateComment(c.Request().Context(), uid, c.Param("id"), usecase.CreateCommentInput{
		Content: req.Content,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, comment)
}

func (h *PostHandler) ListComments(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	comments, total, err := h.postUseCase.ListComments(c.Request().Context(), c.Param("id"), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, comments, total, pagination.Page, pagination.PageSize)
}

type voteRequest struct {
	Direction int `json:"direction" validate:"required,oneof=1 -1"`
}

func (h *PostHandler) Vote(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	post, err := h.postUseCase.Vote(c.Request().Context(), uid, c.Param("id"), req.Direction)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, post)
}

func (h *PostHandler) Unvote(c echo.Context) error {
	uid := c.Get("uid").(string)

	post, err := h.postUseCase.Unvote(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, post)
}

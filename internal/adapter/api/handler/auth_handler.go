package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=60"`
	Campus      string `json:"campus" validate:"omitempty,max=120"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Register(c.Request().Context(), usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Campus:      req.Campus,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, authResponse{
		Token: result.Token,
		User:  result.User,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, authResponse{
		Token: result.Token,
		User:  result.User,
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	uid := c.Get("uid").(string)

	user, err := h.authUseCase.GetUserByID(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,min=2,max=60"`
	Campus      string `json:"campus" validate:"omitempty,max=120"`
	Bio         string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.authUseCase.UpdateProfile(c.Request().Context(), uid, usecase.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Campus:      req.Campus,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req struct {
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.authUseCase.ChangePassword(c.Request().Context(), uid, req.NewPassword); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "password updated"})
}

func (h *AuthHandler) GetUser(c echo.Context) error {
	user, err := h.authUseCase.GetUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	// Public profile view: strip the email.
	user.Email = ""
	return response.Success(c, user)
}

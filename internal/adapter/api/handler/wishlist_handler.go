package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/response"
	"campusmarket/pkg/utils"
)

type WishlistHandler struct {
	wishlistUseCase *usecase.WishlistUseCase
}

func NewWishlistHandler(wishlistUseCase *usecase.WishlistUseCase) *WishlistHandler {
	return &WishlistHandler{
		wishlistUseCase: wishlistUseCase,
	}
}

func (h *WishlistHandler) Add(c echo.Context) error {
	uid := c.Get("uid").(string)

	item, err := h.wishlistUseCase.Add(c.Request().Context(), uid, c.Param("listingId"))
	if err != nil {
		return response.Error(c, err)
	}

	// item is nil when the listing was already saved; either way it is saved.
	return response.Success(c, map[string]interface{}{
		"saved": true,
		"item":  item,
	})
}

func (h *WishlistHandler) Remove(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.wishlistUseCase.Remove(c.Request().Context(), uid, c.Param("listingId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"saved": false})
}

func (h *WishlistHandler) List(c echo.Context) error {
	uid := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	items, total, err := h.wishlistUseCase.List(c.Request().Context(), uid, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, items, total, pagination.Page, pagination.PageSize)
}

func (h *WishlistHandler) Count(c echo.Context) error {
	uid := c.Get("uid").(string)

	count, err := h.wishlistUseCase.Count(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int64{"count": count})
}

func (h *WishlistHandler) Contains(c echo.Context) error {
	uid := c.Get("uid").(string)

	saved, err := h.wishlistUseCase.Contains(c.Request().Context(), uid, c.Param("listingId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"saved": saved})
}

package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"campusmarket/internal/domain/repository"
	"campusmarket/internal/infrastructure/storage"
	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
	"campusmarket/pkg/utils"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
	storageClient  *storage.CloudStorageClient
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase, storageClient *storage.CloudStorageClient) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
		storageClient:  storageClient,
	}
}

type createListingRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=120"`
	Description string   `json:"description" validate:"required,min=10"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Condition   string   `json:"condition" validate:"required,oneof=new like_new used worn"`
	Category    string   `json:"category"`
	ImageURLs   []string `json:"image_urls" validate:"omitempty,dive,url"`
}

func (h *ListingHandler) Create(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.Create(c.Request().Context(), uid, usecase.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Condition:   req.Condition,
		Category:    req.Category,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) GetByID(c echo.Context) error {
	viewerID, _ := c.Get("uid").(string)

	detail, err := h.listingUseCase.GetByID(c.Request().Context(), viewerID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, detail)
}

func (h *ListingHandler) List(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	minPrice, _ := strconv.ParseFloat(c.QueryParam("min_price"), 64)
	maxPrice, _ := strconv.ParseFloat(c.QueryParam("max_price"), 64)

	filter := repository.ListingFilter{
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
		SellerID: c.QueryParam("seller_id"),
		Search:   c.QueryParam("q"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}

	listings, total, err := h.listingUseCase.List(c.Request().Context(), filter, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, pagination.Page, pagination.PageSize)
}

type updateListingRequest struct {
	Title       string  `json:"title" validate:"omitempty,min=3,max=120"`
	Description string  `json:"description" validate:"omitempty,min=10"`
	Price       float64 `json:"price" validate:"omitempty,gt=0"`
	Condition   string  `json:"condition" validate:"omitempty,oneof=new like_new used worn"`
	Category    string  `json:"category"`
	Status      string  `json:"status" validate:"omitempty,oneof=active sold hidden"`
}

func (h *ListingHandler) Update(c echo.Context) error {
	uid := c.Get("uid").(string)

	var req updateListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.Update(c.Request().Context(), uid, c.Param("id"), usecase.UpdateListingInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Condition:   req.Condition,
		Category:    req.Category,
		Status:      req.Status,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) Delete(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.listingUseCase.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}

func (h *ListingHandler) MarkSold(c echo.Context) error {
	uid := c.Get("uid").(string)

	listing, err := h.listingUseCase.MarkSold(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

// UploadImage accepts one multipart image and returns its stored URL. The
// client attaches returned URLs to a create or update request.
func (h *ListingHandler) UploadImage(c echo.Context) error {
	uid := c.Get("uid").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Image file is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read upload", err))
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.storageClient.UploadImage(c.Request().Context(), file, contentType, "listings/"+uid)
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to store image", err))
	}

	return response.Created(c, map[string]string{"url": url})
}

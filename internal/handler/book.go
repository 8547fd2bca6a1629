package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/model"
	"github.com/iliyamo/library-lending/internal/pagination"
	"github.com/iliyamo/library-lending/internal/repository"
)

// BookHandler exposes the catalog over HTTP. Reads are open to any
// authenticated user; create, update and delete sit behind the admin
// gate in the router.
type BookHandler struct {
	Books *repository.BookRepo
}

func NewBookHandler(b *repository.BookRepo) *BookHandler {
	return &BookHandler{Books: b}
}

type createBookReq struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Publisher       string `json:"publisher"`
	PublicationYear string `json:"publication_year"`
	Edition         string `json:"edition"`
	Category        string `json:"category"`
	Subcategory     string `json:"subcategory"`
	Description     string `json:"description"`
	Available       uint32 `json:"available"`
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// Create adds a title to the catalog. Submitting an ISBN that already
// exists does not duplicate the row; the existing title gains a copy
// and the stored row is returned with a 200 instead of a 201.
func (h *BookHandler) Create(c echo.Context) error {
	var req createBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ISBN == "" || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "isbn/title required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b := &model.Book{
		ISBN:            req.ISBN,
		Title:           req.Title,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Edition:         req.Edition,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		Description:     req.Description,
		Available:       req.Available,
	}
	created, err := h.Books.CreateOrAddCopy(ctx, b)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create book failed"})
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, b)
}

// Get returns one catalog entry by id.
func (h *BookHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Books.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, b)
}

// List returns the catalog, paginated when ?limit= and ?page= are
// present. Without pagination parameters the full list is returned.
func (h *BookHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.GetAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	limitStr := c.QueryParam("limit")
	pageStr := c.QueryParam("page")
	if limitStr == "" && pageStr == "" {
		return c.JSON(http.StatusOK, books)
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
	}
	page := 1
	if pageStr != "" {
		if page, err = strconv.Atoi(pageStr); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
		}
	}

	base := c.Scheme() + "://" + c.Request().Host + c.Path()
	window, err := pagination.Paginate(books, limit, page, base)
	switch {
	case err == pagination.ErrInvalidParameter:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit and page must be positive"})
	case err == pagination.ErrPageOutOfRange:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "page out of range"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pagination failed"})
	}
	return c.JSON(http.StatusOK, window)
}

// Update edits the descriptive fields of a catalog entry. Fields
// absent from the body stay untouched; availability and timestamps
// cannot be edited through this endpoint.
func (h *BookHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	var upd repository.BookUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Books.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Books.Update(ctx, id, upd); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	b, err := h.Books.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, b)
}

// Delete removes a catalog entry. Refused with 409 while any open
// borrow still references the book; the ledger itself is never
// deleted.
func (h *BookHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Books.Delete(ctx, id); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "book has open borrows"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-lending/internal/lending"
	"github.com/iliyamo/library-lending/internal/model"
	"github.com/iliyamo/library-lending/internal/queue"
	"github.com/iliyamo/library-lending/internal/repository"
	"github.com/iliyamo/library-lending/internal/service"
)

// BorrowHandler drives the lending engine from HTTP. It translates
// the engine's error taxonomy into status codes and publishes loan
// activity events after a successful commit. Event publishing is best
// effort; a broker outage never fails a borrow or return.
type BorrowHandler struct {
	Engine *lending.Engine
	Books  *repository.BookRepo
}

func NewBorrowHandler(e *lending.Engine, b *repository.BookRepo) *BorrowHandler {
	return &BorrowHandler{Engine: e, Books: b}
}

// actor builds the caller identity from the JWT middleware context.
func actor(c echo.Context) lending.Identity {
	uid, _ := c.Get("user_id").(uint64)
	admin, _ := c.Get("is_admin").(bool)
	return lending.Identity{UserID: uid, Admin: admin}
}

type returnReq struct {
	BorrowID string `json:"borrow_id"`
}

// Borrow checks out one copy of the book for the caller.
func (h *BorrowHandler) Borrow(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Engine.Borrow(ctx, actor(c), id)
	switch {
	case errors.Is(err, lending.ErrBookNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
	case errors.Is(err, lending.ErrAlreadyBorrowed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "book not available or already borrowed"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "borrow failed"})
	}

	h.publish(ctx, queue.LoanActionBorrowed, rec)
	return c.JSON(http.StatusCreated, rec)
}

// Return closes out a loan and puts the copy back on the shelf. The
// body may carry an explicit borrow_id; when present it wins over the
// (caller, book) lookup, and admins may close any user's loan that
// way.
func (h *BorrowHandler) Return(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	var req returnReq
	_ = c.Bind(&req) // body is optional
	borrowID := strings.TrimSpace(req.BorrowID)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Engine.Return(ctx, actor(c), id, borrowID)
	switch {
	case errors.Is(err, lending.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "borrow record not found"})
	case errors.Is(err, lending.ErrAlreadyReturned):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already returned"})
	case errors.Is(err, lending.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your borrow record"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "return failed"})
	}

	h.publish(ctx, queue.LoanActionReturned, rec)
	return c.JSON(http.StatusOK, rec)
}

// ListMine returns the caller's borrow history. With ?returned=false
// it switches to the unreturned view and returns the books currently
// held instead of the raw records.
func (h *BorrowHandler) ListMine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid := actor(c).UserID
	if strings.EqualFold(c.QueryParam("returned"), "false") {
		books, err := h.Engine.Unreturned(ctx, uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return c.JSON(http.StatusOK, books)
	}

	recs, err := h.Engine.History(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, recs)
}

// AdminOpen lists every open borrow in the ledger. Admin-only.
func (h *BorrowHandler) AdminOpen(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recs, err := h.Engine.OpenBorrows(ctx, actor(c))
	switch {
	case errors.Is(err, lending.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin privileges required"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, recs)
}

// publish emits a loan activity event; failures are logged only.
func (h *BorrowHandler) publish(ctx context.Context, action string, rec *model.BorrowRecord) {
	title := ""
	if b, err := h.Books.GetByID(ctx, rec.BookID); err == nil {
		title = b.Title
	}
	ev := queue.LoanEvent{
		Action:     action,
		BorrowID:   rec.BorrowID,
		UserID:     rec.UserID,
		BookID:     rec.BookID,
		BookTitle:  title,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if action == queue.LoanActionBorrowed {
		ev.ExpectedReturn = rec.ExpectedReturn.UTC().Format(time.RFC3339)
	}
	if err := service.PublishLoanEvent(ev); err != nil {
		log.Printf("loan event publish failed: %v", err)
	}
}

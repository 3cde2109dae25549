package borrow

import (
	"log/slog"
	"net/http"
	"strconv"

	"booklending/app/echoServer/jwtx"
	bs "booklending/service/borrow"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/borrows
func (h *Controller) Borrow(c echo.Context) error {
	var req BorrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ln, err := h.Svc.Borrow(c.Request().Context(), req.BookID, uid)
	if err != nil {
		h.Log.Error("borrow", "err", err, "book_id", req.BookID, "user_id", uid)
		switch bs.Code(err) {
		case bs.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case bs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case bs.ErrAlreadyBorrowed:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book already borrowed"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"loan": ln})
}

// POST /v1/borrows/renew
func (h *Controller) Renew(c echo.Context) error {
	var req RenewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ln, err := h.Svc.Renew(c.Request().Context(), req.BookID, uid)
	if err != nil {
		h.Log.Error("renew", "err", err, "book_id", req.BookID, "user_id", uid)
		switch bs.Code(err) {
		case bs.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no active loan for book"})
		case bs.ErrNotBorrower:
			// renewal by a non-borrower reports not found, same as a
			// missing loan
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no active loan for user"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"loan": ln})
}

// POST /v1/borrows/return
func (h *Controller) Return(c echo.Context) error {
	var req ReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	if err := h.Svc.Return(c.Request().Context(), req.BookID); err != nil {
		h.Log.Error("return", "err", err, "book_id", req.BookID)
		switch bs.Code(err) {
		case bs.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no active loan for book"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "returned"})
}

// GET /v1/borrows
func (h *Controller) ListAll(c echo.Context) error {
	loans, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("list loans", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": loans})
}

// GET /v1/borrows/my
func (h *Controller) My(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return h.listByUser(c, uid, false)
}

// GET /v1/borrows/my/overdue
func (h *Controller) MyOverdue(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return h.listByUser(c, uid, true)
}

// GET /v1/users/:id/loans
func (h *Controller) ByUser(c echo.Context) error {
	uid, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || uid <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	return h.listByUser(c, uid, false)
}

// GET /v1/users/:id/loans/overdue
func (h *Controller) OverdueByUser(c echo.Context) error {
	uid, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || uid <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	return h.listByUser(c, uid, true)
}

func (h *Controller) listByUser(c echo.Context, uid int64, overdue bool) error {
	var (
		loans any
		err   error
	)
	if overdue {
		loans, err = h.Svc.ListOverdueByUser(c.Request().Context(), uid)
	} else {
		loans, err = h.Svc.ListByUser(c.Request().Context(), uid)
	}
	if err != nil {
		h.Log.Error("list loans by user", "err", err, "user_id", uid)
		switch bs.Code(err) {
		case bs.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": loans})
}

package history

import (
	"log/slog"
	"net/http"
	"strconv"

	"booklending/model"
	historysvc "booklending/service/history"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc historysvc.Service
	Log *slog.Logger
}

// entryResp adds the human-readable label for an audit action.
type entryResp struct {
	model.HistoryEntry
	Description string `json:"description"`
}

func render(entries []model.HistoryEntry) []entryResp {
	out := make([]entryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResp{HistoryEntry: e, Description: e.Action.Description()})
	}
	return out
}

// GET /v1/history/books/:id
func (h *Controller) ByBook(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	entries, err := h.Svc.ByBook(c.Request().Context(), id)
	if err != nil {
		switch historysvc.Code(err) {
		case historysvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no history for book"})
		default:
			h.Log.Error("history by book", "err", err, "book_id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": render(entries)})
}

// GET /v1/history/users/:id
func (h *Controller) ByUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	entries, err := h.Svc.ByUser(c.Request().Context(), id)
	if err != nil {
		switch historysvc.Code(err) {
		case historysvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no history for user"})
		default:
			h.Log.Error("history by user", "err", err, "user_id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": render(entries)})
}

package readings

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/platform/auth"
	"github.com/cardio/cardio/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/readings", h.Create)
	api.GET("/readings", h.List)
	api.GET("/readings/latest", h.Latest)
	api.GET("/readings/trend", h.Trend)
	api.GET("/readings/:id", h.Get)
	api.PUT("/readings/:id", h.Update)
	api.DELETE("/readings/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var rd Reading
	if err := c.Bind(&rd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rd.ID = uuid.Nil
	rd.UserID = auth.UserID(c)
	if err := h.svc.Create(c.Request().Context(), &rd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rd.WithDerived())
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rd, err := h.svc.Get(c.Request().Context(), auth.UserID(c), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "reading not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rd.WithDerived())
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	userID := auth.UserID(c)

	var (
		items []*Reading
		total int
		err   error
	)
	if raw := c.QueryParam("since"); raw != "" {
		since, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be an RFC 3339 timestamp")
		}
		items, total, err = h.svc.Since(c.Request().Context(), userID, since, pg.Limit, pg.Offset)
	} else {
		items, total, err = h.svc.List(c.Request().Context(), userID, pg.Limit, pg.Offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]WithDerived, len(items))
	for i, rd := range items {
		out[i] = rd.WithDerived()
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, pg.Limit, pg.Offset))
}

func (h *Handler) Latest(c echo.Context) error {
	rd, err := h.svc.Latest(c.Request().Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no readings recorded yet")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rd.WithDerived())
}

func (h *Handler) Trend(c echo.Context) error {
	window, _ := strconv.Atoi(c.QueryParam("window"))
	min, _ := strconv.Atoi(c.QueryParam("min"))
	analysis, err := h.svc.Trend(c.Request().Context(), auth.UserID(c), window, min)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, analysis)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var rd Reading
	if err := c.Bind(&rd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rd.ID = id
	if err := h.svc.Update(c.Request().Context(), auth.UserID(c), &rd); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "reading not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rd.WithDerived())
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), auth.UserID(c), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "reading not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

package profile

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/profile", h.Get)
	api.PUT("/profile", h.Upsert)
	api.GET("/risk", h.Assess)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "risk profile not set")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Upsert(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.UserID = auth.UserID(c)
	if err := h.svc.Upsert(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Assess(c echo.Context) error {
	assessment, err := h.svc.Assess(c.Request().Context(), auth.UserID(c))
	if err != nil {
		var incomplete *IncompleteError
		if errors.As(err, &incomplete) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, incomplete.Reason)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, assessment)
}

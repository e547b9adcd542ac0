package lipidpanel

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/engine/units"
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
	api.POST("/lipids", h.Create)
	api.GET("/lipids", h.List)
	api.GET("/lipids/latest", h.Latest)
	api.GET("/lipids/:id", h.Get)
	api.PUT("/lipids/:id", h.Update)
	api.DELETE("/lipids/:id", h.Delete)
}

// panelRequest is the write payload: a panel plus the unit its values are
// expressed in. An empty unit means mg/dL.
type panelRequest struct {
	Panel
	Unit string `json:"unit"`
}

// canonical converts the submitted values to canonical mg/dL.
func (pr *panelRequest) canonical() (*Panel, units.Unit, error) {
	unit, ok := units.ParseUnit(pr.Unit)
	if !ok {
		return nil, unit, fmt.Errorf("unsupported unit %q", pr.Unit)
	}
	p := pr.Panel
	p.TotalCholesterol = units.Cholesterol.ToCanonical(p.TotalCholesterol, unit)
	p.HDL = units.Cholesterol.ToCanonical(p.HDL, unit)
	if p.LDLMeasured != nil {
		v := units.Cholesterol.ToCanonical(*p.LDLMeasured, unit)
		p.LDLMeasured = &v
	}
	if p.Triglycerides != nil {
		v := units.Triglyceride.ToCanonical(*p.Triglycerides, unit)
		p.Triglycerides = &v
	}
	return &p, unit, nil
}

func displayUnit(c echo.Context) (units.Unit, error) {
	raw := c.QueryParam("unit")
	unit, ok := units.ParseUnit(raw)
	if !ok {
		return unit, fmt.Errorf("unsupported unit %q", raw)
	}
	return unit, nil
}

func (h *Handler) Create(c echo.Context) error {
	var pr panelRequest
	if err := c.Bind(&pr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, unit, err := pr.canonical()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = uuid.Nil
	p.UserID = auth.UserID(c)
	if err := h.svc.Create(c.Request().Context(), p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Respond in the unit the caller submitted.
	return c.JSON(http.StatusCreated, p.WithDerived(unit))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	unit, err := displayUnit(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Get(c.Request().Context(), auth.UserID(c), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "lipid panel not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p.WithDerived(unit))
}

func (h *Handler) List(c echo.Context) error {
	unit, err := displayUnit(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), auth.UserID(c), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]WithDerived, len(items))
	for i, p := range items {
		out[i] = p.WithDerived(unit)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, pg.Limit, pg.Offset))
}

func (h *Handler) Latest(c echo.Context) error {
	unit, err := displayUnit(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Latest(c.Request().Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no lipid panels recorded yet")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p.WithDerived(unit))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var pr panelRequest
	if err := c.Bind(&pr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, unit, err := pr.canonical()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.Update(c.Request().Context(), auth.UserID(c), p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "lipid panel not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p.WithDerived(unit))
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), auth.UserID(c), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "lipid panel not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

package alerts

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/platform/auth"
	"github.com/cardio/cardio/pkg/pagination"
)

// Handler exposes alert endpoint management over HTTP. Every route is
// scoped to the authenticated user; someone else's endpoints read as
// not found.
type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes binds the alert management routes to the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Register)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/test", h.Test)
	g.GET("/:id/deliveries", h.Deliveries)
	g.POST("/:id/pause", h.Pause)
	g.POST("/:id/resume", h.Resume)
	g.POST("/deliveries/:id/retry", h.Retry)
}

// ownedEndpoint resolves :id to an endpoint owned by the requesting user.
func (h *Handler) ownedEndpoint(c echo.Context) (*Endpoint, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid endpoint id")
	}
	ep, err := h.manager.store.GetEndpoint(c.Request().Context(), id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "endpoint not found")
	}
	if ep.UserID != auth.UserID(c) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "endpoint not found")
	}
	return ep, nil
}

// registerRequest is the JSON body for endpoint registration.
type registerRequest struct {
	URL    string   `json:"url"`
	Secret string   `json:"secret"`
	Events []string `json:"events"`
}

// Register handles POST /alerts/endpoints.
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ep, err := h.manager.RegisterEndpoint(c.Request().Context(), auth.UserID(c), req.URL, req.Secret, req.Events)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ep)
}

// List handles GET /alerts/endpoints.
func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	eps, total, err := h.manager.store.ListEndpoints(c.Request().Context(), auth.UserID(c), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(eps, total, pg.Limit, pg.Offset))
}

// Get handles GET /alerts/endpoints/:id.
func (h *Handler) Get(c echo.Context) error {
	ep, err := h.ownedEndpoint(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ep)
}

// updateRequest is the JSON body for endpoint updates.
type updateRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Status string   `json:"status"`
}

// Update handles PUT /alerts/endpoints/:id.
func (h *Handler) Update(c echo.Context) error {
	ep, err := h.ownedEndpoint(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.URL != "" {
		if err := validateEndpointURL(req.URL); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		ep.URL = req.URL
	}
	if len(req.Events) > 0 {
		ep.Events = req.Events
	}
	if req.Status != "" {
		if req.Status != StatusActive && req.Status != StatusPaused {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be active or paused")
		}
		ep.Status = req.Status
	}
	if err := h.manager.store.UpdateEndpoint(c.Request().Context(), ep); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ep)
}

// Delete handles DELETE /alerts/endpoints/:id.
func (h *Handler) Delete(c echo.Context) error {
	ep, err := h.ownedEndpoint(c)
	if err != nil {
		return err
	}
	if err := h.manager.store.DeleteEndpoint(c.Request().Context(), ep.ID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "endpoint not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// Test handles POST /alerts/endpoints/:id/test.
func (h *Handler) Test(c echo.Context) error {
	ep, err := h.ownedEndpoint(c)
	if err != nil {
		return err
	}
	attempt, err := h.manager.TestEndpoint(c.Request().Context(), ep.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, attempt)
}

// Deliveries handles GET /alerts/endpoints/:id/deliveries.
func (h *Handler) Deliveries(c echo.Context) error {
	ep, err := h.ownedEndpoint(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	logs, total, err := h.manager.GetDeliveryLogs(c.Request().Context(), ep.ID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(logs, total, pg.Limit, pg.Offset))
}

// Pause handles POST /alerts/endpoints/:id/pause.
func (h *Handler) Pause(c echo.Context) error {
	ep, err := h.ownedEndpoint(c)
	if err != nil {
		return err
	}
	if err := h.manager.PauseEndpoint(c.Request().Context(), ep.ID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": StatusPaused})
}

// Resume handles POST /alerts/endpoints/:id/resume.
func (h *Handler) Resume(c echo.Context) error {
	ep, err := h.ownedEndpoint(c)
	if err != nil {
		return err
	}
	if err := h.manager.ResumeEndpoint(c.Request().Context(), ep.ID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": StatusActive})
}

// Retry handles POST /alerts/endpoints/deliveries/:id/retry.
func (h *Handler) Retry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid delivery id")
	}
	original, err := h.manager.store.GetDelivery(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "delivery not found")
	}
	ep, err := h.manager.store.GetEndpoint(c.Request().Context(), original.EndpointID)
	if err != nil || ep.UserID != auth.UserID(c) {
		return echo.NewHTTPError(http.StatusNotFound, "delivery not found")
	}
	attempt, err := h.manager.RetryDelivery(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrDeliveryNotFound) || errors.Is(err, ErrEndpointNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, attempt)
}

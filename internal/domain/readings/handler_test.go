package readings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/engine/trend"
	"github.com/cardio/cardio/internal/platform/auth"
)

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc := NewService(newMockRepo(), nil, 0, 0)
	return NewHandler(svc), svc, echo.New()
}

func TestHandlerCreate(t *testing.T) {
	h, _, e := newTestHandler()
	userID := uuid.New()

	body := `{"systolic": 118, "diastolic": 76, "note": "after breakfast"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, userID)

	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var got WithDerived
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.UserID != userID {
		t.Errorf("UserID = %s, want %s", got.UserID, userID)
	}
	if got.Derived.PulsePressure != 42 {
		t.Errorf("Derived.PulsePressure = %d, want 42", got.Derived.PulsePressure)
	}
	if got.Note == nil || *got.Note != "after breakfast" {
		t.Error("note should round-trip")
	}
}

func TestHandlerCreateInvalid(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"systolic": 5, "diastolic": 76}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, uuid.New())

	err := h.Create(c)
	if err == nil {
		t.Fatal("expected error for out-of-range systolic")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", httpErr.Code, http.StatusBadRequest)
	}
}

func TestHandlerGet(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()

	rd := &Reading{UserID: userID, Systolic: 118, Diastolic: 76}
	if err := svc.Create(context.Background(), rd); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, userID)
	c.SetParamNames("id")
	c.SetParamValues(rd.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandlerGetNotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.Get(c)
	if err == nil {
		t.Fatal("expected error for unknown reading")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", httpErr.Code, http.StatusNotFound)
	}
}

func TestHandlerGetInvalidID(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Get(c)
	if err == nil {
		t.Fatal("expected error for malformed id")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", httpErr.Code, http.StatusBadRequest)
	}
}

func TestHandlerList(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		rd := &Reading{UserID: userID, Systolic: 118 + i, Diastolic: 76}
		if err := svc.Create(context.Background(), rd); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, userID)

	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got struct {
		Data  []WithDerived `json:"data"`
		Total int           `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Total != 3 {
		t.Errorf("total = %d, want 3", got.Total)
	}
	if len(got.Data) != 3 {
		t.Fatalf("len(data) = %d, want 3", len(got.Data))
	}
	if got.Data[0].Systolic != 120 {
		t.Errorf("first item systolic = %d, want the newest reading (120)", got.Data[0].Systolic)
	}
}

func TestHandlerListSince(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()

	day := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		rd := &Reading{UserID: userID, Systolic: 118 + i, Diastolic: 76, RecordedAt: day.AddDate(0, 0, i)}
		if err := svc.Create(context.Background(), rd); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	cutoff := day.AddDate(0, 0, 2).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, "/?since="+cutoff, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, userID)

	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got struct {
		Data  []WithDerived `json:"data"`
		Total int           `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Total != 2 {
		t.Errorf("total = %d, want 2", got.Total)
	}
	if len(got.Data) != 2 {
		t.Fatalf("len(data) = %d, want 2", len(got.Data))
	}
	if got.Data[0].Systolic != 121 {
		t.Errorf("first item systolic = %d, want the newest reading (121)", got.Data[0].Systolic)
	}
}

func TestHandlerListSinceMalformed(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/?since=yesterday", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, uuid.New())

	err := h.List(c)
	if err == nil {
		t.Fatal("expected error for malformed since")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", httpErr.Code, http.StatusBadRequest)
	}
}

func TestHandlerLatest(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, userID)

	err := h.Latest(c)
	if err == nil {
		t.Fatal("expected error with no readings")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", httpErr.Code, http.StatusNotFound)
	}

	rd := &Reading{UserID: userID, Systolic: 124, Diastolic: 79}
	if err := svc.Create(context.Background(), rd); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	auth.SetUser(c, userID)

	if err := h.Latest(c); err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandlerTrend(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()

	day := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	seed := []struct {
		systolic  int
		diastolic int
	}{
		{150, 70},
		{150, 70},
		{120, 80},
		{120, 80},
	}
	for i, s := range seed {
		rd := &Reading{
			UserID:     userID,
			Systolic:   s.systolic,
			Diastolic:  s.diastolic,
			RecordedAt: day.AddDate(0, 0, i),
		}
		if err := svc.Create(context.Background(), rd); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/?window=14&min=4", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, userID)

	if err := h.Trend(c); err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got trend.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Interpretation.Category != trend.BestScenario {
		t.Errorf("category = %s, want %s", got.Interpretation.Category, trend.BestScenario)
	}
	if got.SampleCount != 4 {
		t.Errorf("sample count = %d, want 4", got.SampleCount)
	}
}

func TestHandlerUpdate(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()

	rd := &Reading{UserID: userID, Systolic: 118, Diastolic: 76}
	if err := svc.Create(context.Background(), rd); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := `{"systolic": 131, "diastolic": 84}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, userID)
	c.SetParamNames("id")
	c.SetParamValues(rd.ID.String())

	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got WithDerived
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Systolic != 131 {
		t.Errorf("systolic = %d, want 131", got.Systolic)
	}
}

func TestHandlerDelete(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()

	rd := &Reading{UserID: userID, Systolic: 118, Diastolic: 76}
	if err := svc.Create(context.Background(), rd); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetUser(c, userID)
	c.SetParamNames("id")
	c.SetParamValues(rd.ID.String())

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	if _, err := svc.Get(context.Background(), userID, rd.ID); err == nil {
		t.Error("reading should be gone after delete")
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/bank-marketing/internal/config"
	"github.com/ashureev/bank-marketing/internal/domain"
	"github.com/ashureev/bank-marketing/internal/form"
	"github.com/ashureev/bank-marketing/internal/middleware"
	"github.com/ashureev/bank-marketing/internal/pageview"
	"github.com/ashureev/bank-marketing/internal/session"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

type stubPredictor struct {
	mu     sync.Mutex
	calls  int
	result *domain.PredictionResult
	err    error
}

func (s *stubPredictor) Predict(_ context.Context, _ domain.Payload) (*domain.PredictionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result, s.err
}

func (s *stubPredictor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var clientRecord = map[string]string{
	domain.FieldAge:       "40",
	domain.FieldJob:       "management",
	domain.FieldMarital:   "married",
	domain.FieldEducation: "tertiary",
	domain.FieldDefault:   "no",
	domain.FieldBalance:   "1500",
	domain.FieldHousing:   "yes",
	domain.FieldLoan:      "no",
	domain.FieldContact:   "cellular",
	domain.FieldDay:       "15",
	domain.FieldMonth:     "may",
	domain.FieldCampaign:  "2",
	domain.FieldPDays:     "-1",
	domain.FieldPrevious:  "0",
	domain.FieldPOutcome:  "unknown",
}

func newTestRouter(t *testing.T, predictor *stubPredictor, strict bool) (http.Handler, *session.Manager) {
	t.Helper()
	return newLimitedRouter(t, predictor, strict, nil)
}

func newLimitedRouter(t *testing.T, predictor *stubPredictor, strict bool, limiter *middleware.RateLimiter) (http.Handler, *session.Manager) {
	t.Helper()
	cfg := &config.Config{StrictValidation: strict}
	pages := session.NewManager(func(pageID string) *form.Controller {
		return form.New(predictor, form.Options{ID: pageID, Strict: strict})
	})

	base := NewHandler(pages, cfg, limiter)
	r := chi.NewRouter()
	NewPageHandler(base).RegisterRoutes(r)
	NewFormHandler(base).RegisterRoutes(r)
	return r, pages
}

func doJSON(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) form.View {
	t.Helper()
	var view form.View
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode view: %v", err)
	}
	return view
}

func createPage(t *testing.T, h http.Handler) string {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/pages", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		PageID string    `json:"page_id"`
		View   form.View `json:"view"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !pageview.IsValid(resp.PageID) {
		t.Fatalf("Expected valid page id, got %q", resp.PageID)
	}
	if resp.View.Status != form.StatusIdle {
		t.Errorf("Expected idle view, got %q", resp.View.Status)
	}
	return resp.PageID
}

func fillPage(t *testing.T, h http.Handler, pageID string) {
	t.Helper()
	for name, value := range clientRecord {
		body, _ := json.Marshal(map[string]string{"value": value})
		w := doJSON(t, h, http.MethodPut, "/api/pages/"+pageID+"/fields/"+name, string(body))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200 for %s, got %d: %s", name, w.Code, w.Body.String())
		}
	}
}

func TestPageLifecycle(t *testing.T) {
	predictor := &stubPredictor{result: &domain.PredictionResult{Prediction: 1, Probability: []float64{0.22, 0.78}}}
	h, _ := newTestRouter(t, predictor, true)

	pageID := createPage(t, h)
	fillPage(t, h, pageID)

	w := doJSON(t, h, http.MethodGet, "/api/pages/"+pageID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got := decodeView(t, w).Values[domain.FieldMonth]; got != "may" {
		t.Errorf("Expected month may, got %q", got)
	}

	w = doJSON(t, h, http.MethodPost, "/api/pages/"+pageID+"/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	view := decodeView(t, w)
	if view.Status != form.StatusSuccess {
		t.Fatalf("Expected success, got %q (error %q)", view.Status, view.Error)
	}
	if view.Outcome != "Will Subscribe" || view.SubscribeProbability != "78.00%" || view.DeclineProbability != "22.00%" {
		t.Errorf("Unexpected display: %+v", view)
	}
	if view.Loading || view.SubmitLabel != form.SubmitLabel {
		t.Errorf("Expected loading cleared, got loading=%v label=%q", view.Loading, view.SubmitLabel)
	}
}

func TestSubmitFailureIsPartOfView(t *testing.T) {
	predictor := &stubPredictor{err: errors.New("connection refused")}
	h, _ := newTestRouter(t, predictor, false)
	pageID := createPage(t, h)

	w := doJSON(t, h, http.MethodPost, "/api/pages/"+pageID+"/submit", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	view := decodeView(t, w)
	if view.Status != form.StatusError || view.Error != form.FailureMessage {
		t.Errorf("Expected failure message, got status %q error %q", view.Status, view.Error)
	}
	if view.Prediction != nil {
		t.Error("Expected no result alongside the error")
	}
}

func TestStrictSubmitRejectsWithoutRequest(t *testing.T) {
	predictor := &stubPredictor{result: &domain.PredictionResult{Prediction: 0, Probability: []float64{0.5, 0.5}}}
	h, _ := newTestRouter(t, predictor, true)
	pageID := createPage(t, h)

	w := doJSON(t, h, http.MethodPost, "/api/pages/"+pageID+"/submit", "")
	view := decodeView(t, w)

	if view.Error != form.ValidationMessage {
		t.Errorf("Expected validation message, got %q", view.Error)
	}
	if len(view.Issues) != len(domain.Catalog) {
		t.Errorf("Expected an issue per empty field, got %d", len(view.Issues))
	}
	if predictor.callCount() != 0 {
		t.Errorf("Expected no prediction request, got %d", predictor.callCount())
	}
}

func TestPageErrors(t *testing.T) {
	h, _ := newTestRouter(t, &stubPredictor{}, true)
	pageID := createPage(t, h)
	missing := pageview.NewID()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"invalid id", http.MethodGet, "/api/pages/not-a-page", "", http.StatusBadRequest},
		{"unknown page", http.MethodGet, "/api/pages/" + missing, "", http.StatusNotFound},
		{"submit unknown page", http.MethodPost, "/api/pages/" + missing + "/submit", "", http.StatusNotFound},
		{"unknown field", http.MethodPut, "/api/pages/" + pageID + "/fields/salary", `{"value":"1"}`, http.StatusNotFound},
		{"malformed body", http.MethodPut, "/api/pages/" + pageID + "/fields/age", `{"value":`, http.StatusBadRequest},
		{"missing value", http.MethodPut, "/api/pages/" + pageID + "/fields/age", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, tt.method, tt.target, tt.body)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			var got map[string]string
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil || got["error"] == "" {
				t.Errorf("Expected JSON error body, got %q", w.Body.String())
			}
		})
	}
}

func TestGetFields(t *testing.T) {
	h, _ := newTestRouter(t, &stubPredictor{}, true)

	w := doJSON(t, h, http.MethodGet, "/api/fields", "")

	var fields []domain.FieldDef
	if err := json.NewDecoder(w.Body).Decode(&fields); err != nil {
		t.Fatalf("Failed to decode fields: %v", err)
	}
	if len(fields) != 15 {
		t.Fatalf("Expected 15 fields, got %d", len(fields))
	}
	if fields[0].Name != domain.FieldAge || fields[14].Name != domain.FieldPOutcome {
		t.Errorf("Expected catalog order, got %s..%s", fields[0].Name, fields[14].Name)
	}
}

func TestAPIRoutesCarryCORS(t *testing.T) {
	h, _ := newTestRouter(t, &stubPredictor{}, true)

	r := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Expected CORS header in development, got %q", got)
	}
}

func TestStreamPushesViews(t *testing.T) {
	predictor := &stubPredictor{result: &domain.PredictionResult{Prediction: 0, Probability: []float64{0.91, 0.09}}}
	h, _ := newTestRouter(t, predictor, false)
	srv := httptest.NewServer(h)
	defer srv.Close()

	pageID := createPage(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/pages/" + pageID + "/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial stream: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	readView := func() form.View {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Failed to read view: %v", err)
		}
		var view form.View
		if err := json.Unmarshal(data, &view); err != nil {
			t.Fatalf("Failed to decode view: %v", err)
		}
		return view
	}

	if view := readView(); view.Status != form.StatusIdle {
		t.Fatalf("Expected initial idle view, got %q", view.Status)
	}

	resp, err := http.Post(srv.URL+"/api/pages/"+pageID+"/submit", "application/json", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	resp.Body.Close()

	if view := readView(); view.Status != form.StatusLoading || view.SubmitLabel != form.BusyLabel {
		t.Errorf("Expected loading view, got %q label %q", view.Status, view.SubmitLabel)
	}
	view := readView()
	if view.Status != form.StatusSuccess || view.Outcome != "Will Not Subscribe" {
		t.Errorf("Expected success view, got %+v", view)
	}
}

func TestFormPageRenderAndSubmit(t *testing.T) {
	predictor := &stubPredictor{result: &domain.PredictionResult{Prediction: 1, Probability: []float64{0.22, 0.78}}}
	h, pages := newTestRouter(t, predictor, true)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	pageID := w.Header().Get(pageview.HeaderName)
	if _, ok := pages.Lookup(pageID); !ok {
		t.Fatalf("Expected page %q registered", pageID)
	}
	body := w.Body.String()
	for _, want := range []string{"Bank Marketing Predictor", `name="page_id" value="` + pageID + `"`, ">Predict</button>", "Select job"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}

	values := url.Values{pageview.FormField: {pageID}}
	for name, value := range clientRecord {
		values.Set(name, value)
	}
	r := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)

	body = w.Body.String()
	for _, want := range []string{"Prediction: Will Subscribe", "78.00%", "22.00%", "<option selected>may</option>"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected result page to contain %q", want)
		}
	}
	if pages.Len() != 1 {
		t.Errorf("Expected the posted page view to be reused, got %d pages", pages.Len())
	}
}

func TestFormPageShowsFailureMessage(t *testing.T) {
	predictor := &stubPredictor{err: errors.New("boom")}
	h, _ := newTestRouter(t, predictor, false)

	values := url.Values{}
	for name, value := range clientRecord {
		values.Set(name, value)
	}
	r := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if !strings.Contains(w.Body.String(), "Prediction failed. Please check your input &amp; API server.") {
		t.Errorf("Expected failure message in page, got:\n%s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "Likelihood to Subscribe") {
		t.Error("Expected no result section alongside the error")
	}
}

func TestSubmitRateLimited(t *testing.T) {
	predictor := &stubPredictor{result: &domain.PredictionResult{Prediction: 1, Probability: []float64{0.3, 0.7}}}
	h, _ := newLimitedRouter(t, predictor, false, middleware.NewRateLimiter(2, time.Minute))
	pageID := createPage(t, h)

	for i := 0; i < 2; i++ {
		if w := doJSON(t, h, http.MethodPost, "/api/pages/"+pageID+"/submit", ""); w.Code != http.StatusOK {
			t.Fatalf("Expected submit %d allowed, got %d", i+1, w.Code)
		}
	}

	w := doJSON(t, h, http.MethodPost, "/api/pages/"+pageID+"/submit", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if predictor.callCount() != 2 {
		t.Errorf("Expected 2 prediction requests, got %d", predictor.callCount())
	}

	// Reading and editing stay available.
	if w := doJSON(t, h, http.MethodGet, "/api/pages/"+pageID, ""); w.Code != http.StatusOK {
		t.Errorf("Expected page read allowed, got %d", w.Code)
	}
}

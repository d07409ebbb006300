package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/aluiziolira/smartmarket/models"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const (
	analysisURL    = "http://analysis.test"
	persistenceURL = "http://persistence.test"
)

func TestAnalysisEndpointSelection(t *testing.T) {
	tests := []struct {
		withAnalysis bool
		urlMode      bool
		expected     string
	}{
		{withAnalysis: true, urlMode: false, expected: "/search_cached_with_analysis"},
		{withAnalysis: true, urlMode: true, expected: "/from-url_with_analysis"},
		{withAnalysis: false, urlMode: false, expected: "/search"},
		{withAnalysis: false, urlMode: true, expected: "/from-url"},
	}

	for _, tt := range tests {
		c := NewAnalysisClient(analysisURL, time.Second, tt.withAnalysis)
		if got := c.Endpoint(tt.urlMode); got != tt.expected {
			t.Errorf("Endpoint(withAnalysis=%v, url=%v) = %q, want %q", tt.withAnalysis, tt.urlMode, got, tt.expected)
		}
	}
}

func TestAnalysisSearchSendsBodyAndDecodes(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var body map[string]interface{}
	var requestID string
	transport.RegisterResponder(http.MethodPost, analysisURL+SearchWithAnalysisPath, func(req *http.Request) (*http.Response, error) {
		requestID = req.Header.Get(requestIDHeader)
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
		return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
			"keyword": "phone",
			"count":   2,
			"items": []map[string]interface{}{
				{"title": "A", "url": "http://x/a", "price": 50000, "rating": 4.5},
				{"title": "B", "url": "http://x/b", "price": nil},
			},
			"analysis": map[string]interface{}{
				"summary": map[string]interface{}{"count": 2, "discount_count": 0},
			},
		})
	})

	metrics := NewMetrics()
	c := NewAnalysisClient(analysisURL, time.Second, true, WithTransport(transport), WithMetrics(metrics))
	res, err := c.Search(context.Background(), SearchRequest{
		Keyword: "phone",
		Pacing:  &Pacing{MaxPages: 3, PerPageDelay: 1.5, DetailDelay: 1},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Count != 2 || len(res.Items) != 2 {
		t.Fatalf("count=%d items=%d, want 2/2", res.Count, len(res.Items))
	}
	if res.Analysis == nil || res.Analysis.Summary.Count != 2 {
		t.Fatalf("analysis not decoded: %+v", res.Analysis)
	}
	if body["keyword"] != "phone" || body["max_pages"] != float64(3) || body["per_page_delay"] != 1.5 {
		t.Fatalf("unexpected request body %v", body)
	}
	if _, ok := body["url"]; ok {
		t.Fatalf("keyword request must not carry url: %v", body)
	}
	if requestID == "" {
		t.Fatalf("expected %s header", requestIDHeader)
	}
	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("analysis", "2xx")); got != 1 {
		t.Fatalf("requests metric = %v, want 1", got)
	}
}

func TestAnalysisSearchOmitsPacingWhenUnset(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var body map[string]interface{}
	transport.RegisterResponder(http.MethodPost, analysisURL+FromURLPath, func(req *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
		return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{"keyword": "", "count": 0, "items": nil})
	})

	c := NewAnalysisClient(analysisURL, time.Second, false, WithTransport(transport))
	res, err := c.Search(context.Background(), SearchRequest{URL: "https://listado.example.test/celulares"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Items == nil {
		t.Fatalf("items must be non-nil")
	}
	if len(body) != 1 || body["url"] != "https://listado.example.test/celulares" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAnalysisSearchNon2xx(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, analysisURL+SearchPath,
		httpmock.NewStringResponder(http.StatusBadGateway, `{"detail":"upstream blocked"}`))

	c := NewAnalysisClient(analysisURL, time.Second, false, WithTransport(transport))
	_, err := c.Search(context.Background(), SearchRequest{Keyword: "phone"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 (%v)", StatusCode(err), err)
	}
	if ServerMessage(err) != "upstream blocked" {
		t.Fatalf("server message = %q", ServerMessage(err))
	}
}

func TestAnalysisSearchRequiresSource(t *testing.T) {
	transport := httpmock.NewMockTransport()
	c := NewAnalysisClient(analysisURL, time.Second, false, WithTransport(transport))
	if _, err := c.Search(context.Background(), SearchRequest{}); err == nil {
		t.Fatalf("expected error for empty request")
	}
	if transport.GetTotalCallCount() != 0 {
		t.Fatalf("no request should be issued")
	}
}

func TestPersistenceLogin(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var creds models.Credentials
	transport.RegisterResponder(http.MethodPost, persistenceURL+LoginPath, func(req *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &creds)
		return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"accessToken": "tok-1", "refreshToken": "ref-1"})
	})

	c := NewPersistenceClient(persistenceURL, time.Second, WithTransport(transport))
	tok, err := c.Login(context.Background(), models.Credentials{Username: "ana@example.com", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tok.AccessToken != "tok-1" {
		t.Fatalf("token = %q", tok.AccessToken)
	}
	if creds.Username != "ana@example.com" || creds.Password != "Secret123!" {
		t.Fatalf("credentials not sent as username/password: %+v", creds)
	}
}

func TestPersistenceLoginErrors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		label     string
	}{
		{name: "unauthorized", responder: httpmock.NewStringResponder(http.StatusUnauthorized, ""), label: "unauthorized"},
		{name: "rate limited", responder: httpmock.NewStringResponder(http.StatusTooManyRequests, ""), label: "rate_limited"},
		{name: "server error", responder: httpmock.NewStringResponder(http.StatusInternalServerError, `{"message":"db down"}`), label: "status"},
		{name: "missing token", responder: httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]string{}), label: "other"},
		{name: "network", responder: httpmock.NewErrorResponder(errors.New("network down")), label: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder(http.MethodPost, persistenceURL+LoginPath, tt.responder)

			c := NewPersistenceClient(persistenceURL, time.Second, WithTransport(transport))
			_, err := c.Login(context.Background(), models.Credentials{Username: "a@b.co", Password: "x"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := ErrorTypeLabel(err); got != tt.label {
				t.Fatalf("label = %q, want %q (%v)", got, tt.label, err)
			}
		})
	}
}

func TestPersistenceRegisterAcceptsCreated(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, persistenceURL+RegisterPath, httpmock.NewStringResponder(http.StatusCreated, ""))

	c := NewPersistenceClient(persistenceURL, time.Second, WithTransport(transport))
	if err := c.Register(context.Background(), models.Credentials{Username: "a@b.co", Password: "Abcdef1!"}); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestPersistenceListProducts(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var auth, keyword string
	var hasKeyword bool
	transport.RegisterResponder(http.MethodGet, persistenceURL+ProductsPath, func(req *http.Request) (*http.Response, error) {
		auth = req.Header.Get("Authorization")
		_, hasKeyword = req.URL.Query()["keyword"]
		keyword = req.URL.Query().Get("keyword")
		return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
			"content": []map[string]interface{}{
				{"id": 1, "title": "A", "url": "http://x/a", "price": 100, "discountPrice": 80},
			},
			"totalElements": 1,
		})
	})

	c := NewPersistenceClient(persistenceURL, time.Second, WithTransport(transport))
	page, err := c.ListProducts(context.Background(), "phone", "tok-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if auth != "Bearer tok-1" {
		t.Fatalf("authorization = %q", auth)
	}
	if keyword != "phone" {
		t.Fatalf("keyword = %q", keyword)
	}
	if len(page.Content) != 1 || page.Content[0].DiscountPrice.OrZero() != 80 {
		t.Fatalf("unexpected page %+v", page)
	}

	if _, err := c.ListProducts(context.Background(), "", "tok-1"); err != nil {
		t.Fatalf("list without keyword: %v", err)
	}
	if hasKeyword {
		t.Fatalf("empty keyword must not be sent")
	}
}

func TestPersistenceMirror(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var got models.SearchResult
	transport.RegisterResponder(http.MethodPost, persistenceURL+DataPath, func(req *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &got)
		return httpmock.NewStringResponse(http.StatusAccepted, ""), nil
	})

	c := NewPersistenceClient(persistenceURL, time.Second, WithTransport(transport))
	payload := &models.SearchResult{Dataset: models.Dataset{
		Keyword: "phone",
		Count:   1,
		Items:   []models.Item{{Title: "A", URL: "http://x/a", Price: models.NewNumber(10)}},
	}}
	if err := c.Mirror(context.Background(), payload); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if got.Keyword != "phone" || len(got.Items) != 1 {
		t.Fatalf("mirror body not the full payload: %+v", got)
	}
	if err := c.Mirror(context.Background(), nil); err == nil {
		t.Fatalf("nil payload must fail")
	}
}

func TestRequestTimeoutIsClassified(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, persistenceURL+ProductsPath, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	c := NewPersistenceClient(persistenceURL, time.Second, WithTransport(transport))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ListProducts(ctx, "phone", "tok")
	if got := ErrorTypeLabel(err); got != "timeout" {
		t.Fatalf("label = %q, want timeout (%v)", got, err)
	}
}

func TestServerMessage(t *testing.T) {
	tests := []struct {
		body     string
		expected string
	}{
		{body: `{"message":"Bad credentials"}`, expected: "Bad credentials"},
		{body: `{"detail":"invalid url"}`, expected: "invalid url"},
		{body: `{"error":"Conflict","message":""}`, expected: "Conflict"},
		{body: `not json`, expected: ""},
		{body: ``, expected: ""},
	}
	for _, tt := range tests {
		if got := serverMessage([]byte(tt.body)); got != tt.expected {
			t.Errorf("serverMessage(%q) = %q, want %q", tt.body, got, tt.expected)
		}
	}
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aluiziolira/smartmarket/models"
)

// Persistence service endpoints.
const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	DataPath     = "/api/data"
	ProductsPath = "/api/products"
)

// PersistenceClient talks to the persistence/auth service.
type PersistenceClient struct {
	svc *service
}

// NewPersistenceClient builds a client for baseURL.
func NewPersistenceClient(baseURL string, timeout time.Duration, opts ...Option) *PersistenceClient {
	return &PersistenceClient{svc: newService("persistence", baseURL, timeout, opts)}
}

// Login exchanges credentials for an access token.
func (c *PersistenceClient) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	resp, err := c.svc.do(c.svc.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(creds), http.MethodPost, LoginPath)
	if err != nil {
		return nil, err
	}

	var out models.TokenResponse
	if err := decode(resp, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", LoginPath, err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%s: token not received", LoginPath)
	}
	return &out, nil
}

// Register creates an account. 201 and any other 2xx count as success.
func (c *PersistenceClient) Register(ctx context.Context, creds models.Credentials) error {
	_, err := c.svc.do(c.svc.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(creds), http.MethodPost, RegisterPath)
	return err
}

// Mirror posts a full analysis payload for storage. The response body is ignored.
func (c *PersistenceClient) Mirror(ctx context.Context, payload *models.SearchResult) error {
	if payload == nil {
		return fmt.Errorf("mirror payload is nil")
	}
	_, err := c.svc.do(c.svc.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload), http.MethodPost, DataPath)
	return err
}

// ListProducts queries persisted products. An empty keyword lists without a filter.
func (c *PersistenceClient) ListProducts(ctx context.Context, keyword, token string) (*models.ProductPage, error) {
	req := c.svc.http.R().SetContext(ctx)
	if keyword != "" {
		req.SetQueryParam("keyword", keyword)
	}
	if token != "" {
		req.SetAuthToken(token)
	}

	resp, err := c.svc.do(req, http.MethodGet, ProductsPath)
	if err != nil {
		return nil, err
	}

	var page models.ProductPage
	if err := decode(resp, &page); err != nil {
		return nil, fmt.Errorf("%s: %w", ProductsPath, err)
	}
	if page.Content == nil {
		page.Content = []models.ProductRecord{}
	}
	return &page, nil
}

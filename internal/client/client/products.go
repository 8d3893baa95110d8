package client

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
	"github.com/google/go-querystring/query"
)

// ProductAPI is the subset of the API used by the product service.
type ProductAPI interface {
	CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, params models.ListParams) (*models.Page, error)
}

// Client is the complete API surface implemented by HTTPClient.
type Client interface {
	AuthAPI
	ProductAPI
	Close() error
}

var _ Client = (*HTTPClient)(nil)

func productPath(id int64) string {
	return fmt.Sprintf("/products/%d", id)
}

func (c *HTTPClient) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, call{method: http.MethodPost, path: "/products", body: req, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, call{method: http.MethodGet, path: productPath(id), out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, call{method: http.MethodPut, path: productPath(id), body: req, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: productPath(id)})
}

// listResponse also accepts the "data" and "total_page" spellings used by
// older backends.
type listResponse struct {
	Products []models.Product `json:"products"`
	Data     []models.Product `json:"data"`
	Meta     struct {
		Total      int `json:"total"`
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		TotalPages int `json:"total_pages"`
		TotalPage  int `json:"total_page"`
	} `json:"meta"`
}

// ListProducts fetches one page. Zero page/limit fall back to 1/10.
func (c *HTTPClient) ListProducts(ctx context.Context, params models.ListParams) (*models.Page, error) {
	params = params.Normalize()

	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("encode list params: %w", err)
	}

	var resp listResponse
	if err := c.do(ctx, call{method: http.MethodGet, path: "/products", query: values, out: &resp}); err != nil {
		return nil, err
	}
	return resp.toPage(params), nil
}

func (r *listResponse) toPage(params models.ListParams) *models.Page {
	items := r.Products
	if items == nil {
		items = r.Data
	}
	if items == nil {
		items = []models.Product{}
	}
	slices.SortStableFunc(items, func(a, b models.Product) int {
		return cmp.Compare(a.ID, b.ID)
	})

	page := &models.Page{
		Items: items,
		Total: r.Meta.Total,
		Page:  cmp.Or(r.Meta.Page, params.Page),
		Limit: cmp.Or(r.Meta.Limit, params.Limit),
	}
	page.TotalPages = cmp.Or(r.Meta.TotalPages, r.Meta.TotalPage, models.TotalPagesFor(page.Total, page.Limit))
	return page
}

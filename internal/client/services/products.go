package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/shopkeeper/internal/client/client"
	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
	"github.com/dmitrijs2005/shopkeeper/internal/logging"
)

// ProductService validates product requests locally and forwards them to
// the API. Requests that fail validation never reach the network.
type ProductService struct {
	api    client.ProductAPI
	logger logging.Logger
}

func NewProductService(api client.ProductAPI, logger logging.Logger) *ProductService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ProductService{api: api, logger: logger.With("component", "products")}
}

func checkID(id int64) error {
	if id <= 0 {
		return client.NewValidationError("invalid product id", map[string]string{"id": "must be a positive number"})
	}
	return nil
}

// Create adds a product. The name is trimmed before validation.
func (s *ProductService) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req, "invalid product"); err != nil {
		return nil, err
	}

	p, err := s.api.CreateProduct(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "product created", "id", p.ID)
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.api.GetProduct(ctx, id)
}

// Update sends only the fields set in req; the rest keep their stored
// values. An empty update is rejected.
func (s *ProductService) Update(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if req.Name != nil {
		req.Name = models.Ptr(strings.TrimSpace(*req.Name))
	}
	if req.IsEmpty() {
		return nil, client.NewValidationError("nothing to update", nil)
	}
	if err := validateRequest(req, "invalid product"); err != nil {
		return nil, err
	}

	p, err := s.api.UpdateProduct(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "product updated", "id", p.ID)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "product deleted", "id", id)
	return nil
}

// List returns one page. Zero page and limit mean the first page of ten;
// an empty search matches everything.
func (s *ProductService) List(ctx context.Context, params models.ListParams) (*models.Page, error) {
	params = params.Normalize()
	params.Search = strings.TrimSpace(params.Search)
	return s.api.ListProducts(ctx, params)
}

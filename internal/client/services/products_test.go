package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/client/apitest"
	"github.com/dmitrijs2005/shopkeeper/internal/client/client"
	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductEnv(t *testing.T) (*apitest.Server, *ProductService) {
	t.Helper()
	srv := apitest.New(t)
	u := srv.AddUser("alice", "alice@example.com", "secret1")

	api, err := client.NewHTTPClient(srv.URL, client.WithTimeout(2*time.Second))
	require.NoError(t, err)
	api.SetToken(srv.IssueToken(u.ID, time.Hour))

	return srv, NewProductService(api, nil)
}

func TestProductService_CreateValidation_NoNetwork(t *testing.T) {
	srv, svc := newProductEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		req    models.CreateProductRequest
		fields map[string]string
	}{
		{
			name:   "negative price",
			req:    models.CreateProductRequest{Name: "Lamp", Price: -1},
			fields: map[string]string{"price": "must be greater than or equal to 0"},
		},
		{
			name:   "negative stock",
			req:    models.CreateProductRequest{Name: "Lamp", Stock: -3},
			fields: map[string]string{"stock": "must be greater than or equal to 0"},
		},
		{
			name:   "blank name",
			req:    models.CreateProductRequest{Name: "   ", Price: 1},
			fields: map[string]string{"name": "is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := srv.Hits()

			_, err := svc.Create(ctx, tt.req)
			require.ErrorIs(t, err, client.ErrValidation)
			assert.Equal(t, tt.fields, client.FieldErrors(err))
			assert.Equal(t, before, srv.Hits())
		})
	}
}

func TestProductService_CreateGetDelete(t *testing.T) {
	_, svc := newProductEnv(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, models.CreateProductRequest{Name: "  Lamp ", Description: "desk", Price: 12.5, Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, p.ID))
	require.ErrorIs(t, svc.Delete(ctx, p.ID), client.ErrNotFound)

	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestProductService_PartialUpdateKeepsOtherFields(t *testing.T) {
	srv, svc := newProductEnv(t)
	ctx := context.Background()

	orig := srv.AddProduct(models.CreateProductRequest{Name: "Lamp", Description: "desk lamp", Price: 20, Stock: 7})

	updated, err := svc.Update(ctx, orig.ID, models.UpdateProductRequest{Stock: models.Ptr(2)})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Stock)
	assert.Equal(t, orig.Name, updated.Name)
	assert.Equal(t, orig.Description, updated.Description)
	assert.Equal(t, orig.Price, updated.Price)

	stored, ok := srv.Product(orig.ID)
	require.True(t, ok)
	assert.Equal(t, 2, stored.Stock)
	assert.Equal(t, "desk lamp", stored.Description)
}

func TestProductService_UpdateValidation(t *testing.T) {
	srv, svc := newProductEnv(t)
	ctx := context.Background()
	p := srv.AddProduct(models.CreateProductRequest{Name: "Lamp", Price: 1})
	before := srv.Hits()

	_, err := svc.Update(ctx, p.ID, models.UpdateProductRequest{})
	require.ErrorIs(t, err, client.ErrValidation)

	_, err = svc.Update(ctx, p.ID, models.UpdateProductRequest{Name: models.Ptr(" "), Price: models.Ptr(-0.5)})
	require.ErrorIs(t, err, client.ErrValidation)
	fields := client.FieldErrors(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "price")

	_, err = svc.Update(ctx, 0, models.UpdateProductRequest{Stock: models.Ptr(1)})
	require.ErrorIs(t, err, client.ErrValidation)

	assert.Equal(t, before, srv.Hits())
}

func TestProductService_UpdateMissing(t *testing.T) {
	_, svc := newProductEnv(t)

	_, err := svc.Update(context.Background(), 404, models.UpdateProductRequest{Price: models.Ptr(1.0)})
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestProductService_ListDefaultsAndSearch(t *testing.T) {
	srv, svc := newProductEnv(t)
	ctx := context.Background()
	srv.SeedProducts(15)
	srv.AddProduct(models.CreateProductRequest{Name: "Red Mug", Description: "ceramic"})

	page, err := svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 16, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 10)

	found, err := svc.List(ctx, models.ListParams{Search: "  MUG "})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Red Mug", found.Items[0].Name)

	again, err := svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, page.Items, again.Items)
}

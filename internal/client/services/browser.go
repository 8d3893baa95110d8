package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
)

// ErrStale is returned by ProductBrowser loads whose response arrived after
// a newer load was issued. The response is discarded.
var ErrStale = errors.New("stale list response discarded")

// ProductLister is the part of ProductService the browser needs.
type ProductLister interface {
	List(ctx context.Context, params models.ListParams) (*models.Page, error)
	Delete(ctx context.Context, id int64) error
}

// BrowserState is what the list screen shows.
type BrowserState struct {
	Params  models.ListParams
	Page    *models.Page
	Err     error
	Loading bool
}

// ProductBrowser holds the list screen state. Each load takes a sequence
// number; only the response to the latest issued load is applied.
type ProductBrowser struct {
	products ProductLister
	pageSize int

	seq atomic.Uint64

	mu    sync.RWMutex
	state BrowserState
}

func NewProductBrowser(products ProductLister, pageSize int) *ProductBrowser {
	if pageSize < 1 {
		pageSize = models.DefaultLimit
	}
	return &ProductBrowser{
		products: products,
		pageSize: pageSize,
		state: BrowserState{
			Params: models.ListParams{Page: models.DefaultPage, Limit: pageSize},
		},
	}
}

// State returns a copy of the current view state.
func (b *ProductBrowser) State() BrowserState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Load fetches the page described by params and applies it if no newer
// load was issued in the meantime; otherwise it returns ErrStale.
func (b *ProductBrowser) Load(ctx context.Context, params models.ListParams) (*models.Page, error) {
	if params.Limit < 1 {
		params.Limit = b.pageSize
	}
	params = params.Normalize()

	seq := b.seq.Add(1)
	b.mu.Lock()
	b.state.Params = params
	b.state.Loading = true
	b.mu.Unlock()

	page, err := b.products.List(ctx, params)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq.Load() {
		return nil, ErrStale
	}

	b.state.Loading = false
	if err != nil {
		b.state.Err = err
		return nil, err
	}
	b.state.Err = nil
	b.state.Page = page
	b.state.Params.Page = page.Page
	return page, nil
}

// Search shows the first page of products matching term.
func (b *ProductBrowser) Search(ctx context.Context, term string) (*models.Page, error) {
	return b.Load(ctx, models.ListParams{Page: 1, Limit: b.pageSize, Search: term})
}

// Refresh reloads the current page.
func (b *ProductBrowser) Refresh(ctx context.Context) (*models.Page, error) {
	return b.Load(ctx, b.State().Params)
}

// NextPage moves forward one page. On the last page it returns the current
// page without a request.
func (b *ProductBrowser) NextPage(ctx context.Context) (*models.Page, error) {
	st := b.State()
	if st.Page != nil && !st.Page.HasNext() {
		return st.Page, nil
	}
	params := st.Params
	params.Page++
	return b.Load(ctx, params)
}

// PrevPage moves back one page. On the first page it returns the current
// page without a request.
func (b *ProductBrowser) PrevPage(ctx context.Context) (*models.Page, error) {
	st := b.State()
	if st.Params.Page <= 1 {
		if st.Page != nil {
			return st.Page, nil
		}
		return b.Load(ctx, st.Params)
	}
	params := st.Params
	params.Page--
	return b.Load(ctx, params)
}

// Delete removes a product and reloads. If that empties the current page
// the browser steps back to the new last page.
func (b *ProductBrowser) Delete(ctx context.Context, id int64) (*models.Page, error) {
	if err := b.products.Delete(ctx, id); err != nil {
		return nil, err
	}

	page, err := b.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 && page.Page > 1 && page.TotalPages > 0 {
		params := b.State().Params
		params.Page = page.TotalPages
		return b.Load(ctx, params)
	}
	return page, nil
}

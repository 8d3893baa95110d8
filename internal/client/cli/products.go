package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/shopkeeper/internal/client/client"
	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
	"github.com/dmitrijs2005/shopkeeper/internal/client/services"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, client.NewValidationError("invalid product id", map[string]string{"id": "must be a positive number"})
	}
	return id, nil
}

func (a *App) printPage(p *models.Page) {
	if len(p.Items) == 0 {
		fmt.Fprintln(a.out, "No products found.")
		return
	}
	fmt.Fprintf(a.out, "Page %d/%d (%d products)\n", p.Page, max(p.TotalPages, 1), p.Total)
	for _, item := range p.Items {
		fmt.Fprintf(a.out, "  %s\n", item)
	}
}

func (a *App) printProduct(p *models.Product) {
	fmt.Fprintf(a.out, "#%d %s\n", p.ID, p.Name)
	if p.Description != "" {
		fmt.Fprintf(a.out, "  %s\n", p.Description)
	}
	fmt.Fprintf(a.out, "  Price:   $%.2f\n", p.Price)
	fmt.Fprintf(a.out, "  Stock:   %d\n", p.Stock)
	fmt.Fprintf(a.out, "  Created: %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(a.out, "  Updated: %s\n", p.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

// browse runs a browser call and prints the resulting page. A stale
// response means a newer load already printed its own result.
func (a *App) browse(p *models.Page, err error) error {
	if errors.Is(err, services.ErrStale) {
		return nil
	}
	if err != nil {
		return err
	}
	a.printPage(p)
	return nil
}

func (a *App) List(ctx context.Context) error {
	return a.browse(a.browser.Refresh(ctx))
}

func (a *App) Next(ctx context.Context) error {
	return a.browse(a.browser.NextPage(ctx))
}

func (a *App) Prev(ctx context.Context) error {
	return a.browse(a.browser.PrevPage(ctx))
}

// Search shows the first page matching term; an empty term clears the filter.
func (a *App) Search(ctx context.Context, term string) error {
	return a.browse(a.browser.Search(ctx, term))
}

func (a *App) Show(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	p, err := a.products.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printProduct(p)
	return nil
}

// numberFields parses the optional price and stock answers. Empty answers
// stay nil.
func numberFields(price, stock string) (*float64, *int, error) {
	fields := map[string]string{}

	var p *float64
	if price != "" {
		v, err := strconv.ParseFloat(price, 64)
		if err != nil {
			fields["price"] = "must be a number"
		} else {
			p = &v
		}
	}

	var s *int
	if stock != "" {
		v, err := strconv.Atoi(stock)
		if err != nil {
			fields["stock"] = "must be a whole number"
		} else {
			s = &v
		}
	}

	if len(fields) > 0 {
		return nil, nil, client.NewValidationError("invalid product", fields)
	}
	return p, s, nil
}

type productAnswers struct {
	name, description, price, stock string
}

func (a *App) askProduct(hint string) (productAnswers, error) {
	var (
		ans productAnswers
		err error
	)
	if ans.name, err = getSimpleText(a.reader, "Name"+hint, a.out); err != nil {
		return ans, err
	}
	if ans.description, err = getSimpleText(a.reader, "Description"+hint, a.out); err != nil {
		return ans, err
	}
	if ans.price, err = getSimpleText(a.reader, "Price"+hint, a.out); err != nil {
		return ans, err
	}
	if ans.stock, err = getSimpleText(a.reader, "Stock"+hint, a.out); err != nil {
		return ans, err
	}
	return ans, nil
}

// Add prompts for a new product. Empty price and stock mean zero.
func (a *App) Add(ctx context.Context) error {
	ans, err := a.askProduct("")
	if err != nil {
		return err
	}
	price, stock, err := numberFields(ans.price, ans.stock)
	if err != nil {
		return err
	}

	req := models.CreateProductRequest{Name: ans.name, Description: ans.description}
	if price != nil {
		req.Price = *price
	}
	if stock != nil {
		req.Stock = *stock
	}

	p, err := a.products.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s\n", p)
	return nil
}

// Edit shows the product and prompts for each field; empty answers keep
// the current value and are not sent.
func (a *App) Edit(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	current, err := a.products.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printProduct(current)

	ans, err := a.askProduct(" (empty to keep)")
	if err != nil {
		return err
	}
	price, stock, err := numberFields(ans.price, ans.stock)
	if err != nil {
		return err
	}

	req := models.UpdateProductRequest{Price: price, Stock: stock}
	if ans.name != "" {
		req.Name = &ans.name
	}
	if ans.description != "" {
		req.Description = &ans.description
	}
	if req.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing changed.")
		return nil
	}

	p, err := a.products.Update(ctx, id, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s\n", p)
	return nil
}

// Delete asks for confirmation, removes the product and reprints the list.
func (a *App) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete product #%d? [y/N]", id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	p, err := a.browser.Delete(ctx, id)
	if err != nil && !errors.Is(err, services.ErrStale) {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	if p != nil {
		a.printPage(p)
	}
	return nil
}

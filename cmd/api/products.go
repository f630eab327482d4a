package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/domain/catalog"
	"storefront/internal/params"
	"storefront/internal/pricing"
	"storefront/internal/recommend"
)

type productView struct {
	catalog.Product
	Pricing pricing.ProductQuote `json:"pricing"`
}

func newProductView(p catalog.Product, now time.Time) productView {
	return productView{Product: p, Pricing: pricing.Quote(p, now)}
}

// getVisibleProduct loads productID from the current catalog. Hidden products
// are reported as missing.
func (app *application) getVisibleProduct(r *http.Request) (catalog.Product, error) {
	id := catalog.ID(chi.URLParam(r, "productID"))
	p, err := app.catalog.Snapshot().Product(id)
	if err != nil {
		return catalog.Product{}, err
	}
	if !p.IsVisible() {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

// GET /v1/categories
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories := app.catalog.Snapshot().Categories
	if categories == nil {
		categories = []catalog.Category{}
	}
	app.jsonResponse(w, http.StatusOK, categories)
}

// GET /v1/products?category=&popular=&page=&limit=
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))

	var popularOnly bool
	if v := q.Get("popular"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("popular must be a boolean"))
			return
		}
		popularOnly = b
	}

	var matched []catalog.Product
	for _, p := range app.catalog.Snapshot().Visible() {
		if category != "" && p.Category != category {
			continue
		}
		if popularOnly && !p.Popular {
			continue
		}
		matched = append(matched, p)
	}

	pg := params.ParsePagination(q)
	page := params.Page(matched, &pg)

	now := time.Now()
	views := make([]productView, len(page))
	for i, p := range page {
		views[i] = newProductView(p, now)
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"products":   views,
		"pagination": pg,
	})
}

// GET /v1/products/{productID}
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	p, err := app.getVisibleProduct(r)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, newProductView(p, time.Now()))
}

// GET /v1/products/{productID}/recommendations
func (app *application) getRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	target, err := app.getVisibleProduct(r)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	snap := app.catalog.Snapshot()
	picks := recommend.Select(snap.Products, target, snap.CategoryNames(), app.config.recommend, app.rnd)

	now := time.Now()
	views := make([]productView, len(picks))
	for i, p := range picks {
		views[i] = newProductView(p, now)
	}
	app.jsonResponse(w, http.StatusOK, views)
}

// POST /v1/admin/catalog/refresh
func (app *application) refreshCatalogHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := app.catalog.Refresh(ctx); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	snap := app.catalog.Snapshot()
	app.logger.Infow("catalog refreshed on demand", "products", len(snap.Products))
	app.jsonResponse(w, http.StatusOK, map[string]any{
		"products":   len(snap.Products),
		"categories": len(snap.Categories),
		"fetched_at": snap.FetchedAt,
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"storefront/internal/domain/carts"
	"storefront/internal/domain/catalog"
	"storefront/internal/pricing"
)

var (
	errOutOfStock      = errors.New("product is out of stock")
	errVariantRequired = errors.New("variant_id is required for this product")
	errNoVariants      = errors.New("product has no variants")
	errExceedsStock    = errors.New("quantity exceeds available stock")
)

type cartLine struct {
	Key string `json:"key"`
	carts.LineItem
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartView struct {
	SessionID string          `json:"session_id"`
	Items     []cartLine      `json:"items"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
	// Persisted is false when the last change could not be saved and may be
	// lost on the next restart.
	Persisted bool `json:"persisted"`
}

func (app *application) buildCartView(sessionID string, store *carts.Store, persisted bool) cartView {
	items := store.Items()
	lines := make([]cartLine, len(items))
	for i, it := range items {
		lines[i] = cartLine{
			Key:       it.Key(),
			LineItem:  it,
			UnitPrice: it.EffectivePrice(),
			LineTotal: it.LineTotal(),
		}
	}
	return cartView{
		SessionID: sessionID,
		Items:     lines,
		Count:     store.Count(),
		Total:     store.Total(),
		Persisted: persisted,
	}
}

// respondCart writes the cart after a mutation. A failed slot write is not a
// request failure: the change is live in memory and the view says so.
func (app *application) respondCart(w http.ResponseWriter, r *http.Request, status int, store *carts.Store, err error) {
	persisted := true
	if err != nil {
		if !errors.Is(err, carts.ErrPersist) {
			app.internalServerError(w, r, err)
			return
		}
		persisted = false
	}
	app.jsonResponse(w, status, app.buildCartView(getCartSessionFromContext(r), store, persisted))
}

func (app *application) cartFromRequest(ctx context.Context, r *http.Request) *carts.Store {
	return app.carts.Get(ctx, getCartSessionFromContext(r))
}

// GET /v1/cart
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	store := app.cartFromRequest(ctx, r)
	app.jsonResponse(w, http.StatusOK, app.buildCartView(getCartSessionFromContext(r), store, true))
}

type addCartItemPayload struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	VariantID string `json:"variant_id" validate:"omitempty,max=128"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

// POST /v1/cart/items  {product_id, variant_id, quantity}
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in addCartItemPayload
	if err := readJSON(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}

	p, err := app.catalog.Snapshot().Product(catalog.ID(in.ProductID))
	if err != nil || !p.IsVisible() {
		app.notFoundResponse(w, r, fmt.Errorf("product %s: %w", in.ProductID, catalog.ErrNotFound))
		return
	}

	variant, err := resolveVariant(p, catalog.ID(in.VariantID))
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		app.notFoundResponse(w, r, err)
		return
	case err != nil:
		app.badRequestResponse(w, r, err)
		return
	}

	if pricing.IsOutOfStock(p) {
		app.conflictResponse(w, r, errOutOfStock)
		return
	}
	if limit := pricing.MaxQuantity(p, variant); in.Quantity > limit {
		app.conflictResponse(w, r, fmt.Errorf("%w: at most %d", errExceedsStock, limit))
		return
	}

	priced, pricedVariant := pricing.Apply(p, variant)

	store := app.cartFromRequest(ctx, r)
	err = store.AddItem(ctx, priced, in.Quantity, pricedVariant)
	app.respondCart(w, r, http.StatusCreated, store, err)
}

// resolveVariant enforces that a variant is chosen exactly when the product
// has variants.
func resolveVariant(p catalog.Product, id catalog.ID) (*catalog.ProductVariant, error) {
	if !p.HasVariants() {
		if id != "" {
			return nil, errNoVariants
		}
		return nil, nil
	}
	if id == "" {
		return nil, errVariantRequired
	}
	v, ok := p.Variant(id)
	if !ok {
		return nil, fmt.Errorf("variant %s: %w", id, catalog.ErrNotFound)
	}
	return &v, nil
}

type updateCartItemPayload struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// PATCH /v1/cart/items/{key}  {quantity}
//
// A quantity of zero or less removes the line.
func (app *application) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	key := chi.URLParam(r, "key")

	var in updateCartItemPayload
	if err := readJSON(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	store := app.cartFromRequest(ctx, r)
	quantity := *in.Quantity

	if item, ok := store.Item(key); ok && quantity > 0 {
		if limit, known := app.currentLimit(item); known && quantity > limit {
			app.conflictResponse(w, r, fmt.Errorf("%w: at most %d", errExceedsStock, limit))
			return
		}
	}

	err := store.UpdateQuantity(ctx, key, quantity)
	app.respondCart(w, r, http.StatusOK, store, err)
}

// currentLimit looks up the live stock bound for a line. known is false when the
// product or variant has since left the catalog.
func (app *application) currentLimit(item carts.LineItem) (limit int, known bool) {
	p, err := app.catalog.Snapshot().Product(item.ID)
	if err != nil {
		return 0, false
	}
	if item.Variant == nil {
		return pricing.MaxQuantity(p, nil), true
	}
	v, ok := p.Variant(item.Variant.ID)
	if !ok {
		return 0, false
	}
	return pricing.MaxQuantity(p, &v), true
}

// DELETE /v1/cart/items/{key}
func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	store := app.cartFromRequest(ctx, r)
	err := store.RemoveItem(ctx, chi.URLParam(r, "key"))
	app.respondCart(w, r, http.StatusOK, store, err)
}

// DELETE /v1/cart
func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	store := app.cartFromRequest(ctx, r)
	err := store.Clear(ctx)
	app.respondCart(w, r, http.StatusOK, store, err)
}

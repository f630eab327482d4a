package main

import (
	"net/http"
	"time"
)

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	snap := app.catalog.Snapshot()

	data := map[string]any{
		"status":           "ok",
		"env":              app.config.env,
		"version":          version,
		"catalog_backend":  app.store.CatalogBackend,
		"cart_backend":     app.store.SlotBackend,
		"catalog_products": len(snap.Products),
		"open_carts":       app.carts.Len(),
	}
	if !snap.FetchedAt.IsZero() {
		data["catalog_fetched_at"] = snap.FetchedAt.Format(time.RFC3339)
	}

	if err := app.jsonResponse(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}

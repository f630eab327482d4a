package main

import (
	"context"
	"errors"
	"expvar"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain/carts"
	"storefront/internal/domain/catalog"
	"storefront/internal/domain/storage"
	"storefront/internal/ratelimiter"
)

type application struct {
	config        config
	logger        *zap.SugaredLogger
	store         *storage.Container
	catalog       *catalog.Feed
	carts         *carts.Sessions
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter

	// rnd orders recommendations; nil uses the global source.
	rnd *rand.Rand
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cartSessionHeader},
		ExposedHeaders:   []string{cartSessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(app.RateLimiterMiddleware)

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Get("/categories", app.listCategoriesHandler)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", app.getProductHandler)
				r.Get("/recommendations", app.getRecommendationsHandler)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(app.CartSessionMiddleware)
			r.Get("/", app.getCartHandler)
			r.Delete("/", app.clearCartHandler)
			r.Post("/items", app.addCartItemHandler)
			r.Patch("/items/{key}", app.updateCartItemHandler)
			r.Delete("/items/{key}", app.removeCartItemHandler)
		})

		r.Route("/authentication", func(r chi.Router) {
			r.Post("/guest", app.createGuestTokenHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.BasicAuthMiddleware())
			r.Post("/catalog/refresh", app.refreshCatalogHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env, "version", version)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/db"
	"storefront/internal/domain/catalog"
	"storefront/internal/domain/storage"
	"storefront/internal/pricing"
	"storefront/internal/recommend"
)

type rootOptions struct {
	catalogFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect and import storefront catalog exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.catalogFile, "catalog", "catalog.json", "catalog export (JSON)")

	root.AddCommand(
		newPriceCmd(opts),
		newStockCmd(opts),
		newRecommendCmd(opts),
		newImportCmd(opts),
	)
	return root
}

func (o *rootOptions) snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	store, err := catalog.LoadFile(o.catalogFile)
	if err != nil {
		return nil, err
	}
	products, err := store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewSnapshot(products, categories, time.Now()), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPriceCmd(opts *rootOptions) *cobra.Command {
	var variantID string

	cmd := &cobra.Command{
		Use:   "price <productID>",
		Short: "Show offer-resolved prices for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			p, err := snap.Product(catalog.ID(args[0]))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if variantID == "" {
				return printJSON(cmd.OutOrStdout(), pricing.Quote(p, time.Now()))
			}
			v, ok := p.Variant(catalog.ID(variantID))
			if !ok {
				return fmt.Errorf("variant %s of %s: %w", variantID, args[0], catalog.ErrNotFound)
			}
			return printJSON(cmd.OutOrStdout(), pricing.ResolvePrice(v.Price, v.OldPrice, p.Offer))
		},
	}
	cmd.Flags().StringVar(&variantID, "variant", "", "price a single variant")
	return cmd
}

func newStockCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stock <productID>",
		Short: "Show effective stock for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := opts.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			p, err := snap.Product(catalog.ID(args[0]))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			status := "in stock"
			if pricing.IsOutOfStock(p) {
				status = "out of stock"
			}
			fmt.Fprintf(out, "%s: %d (%s)\n", p.ID, pricing.EffectiveStock(p), status)
			for _, q := range pricing.Quote(p, time.Now()).Variants {
				fmt.Fprintf(out, "  %s %s: %d\n", q.ID, q.Name, q.Stock)
			}
			return nil
		},
	}
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var (
		mode       string
		categories string
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "recommend <productID>",
		Short: "List recommended products for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := recommend.ParseMode(mode)
			if err != nil {
				return err
			}
			cfg := recommend.Config{Mode: m}
			for _, id := range strings.Split(categories, ",") {
				if id = strings.TrimSpace(id); id != "" {
					cfg.CategoryIDs = append(cfg.CategoryIDs, catalog.ID(id))
				}
			}

			snap, err := opts.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			target, err := snap.Product(catalog.ID(args[0]))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			var rnd *rand.Rand
			if cmd.Flags().Changed("seed") {
				rnd = rand.New(rand.NewPCG(seed, seed))
			}

			for _, p := range recommend.Select(snap.Products, target, snap.CategoryNames(), cfg, rnd) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.ID, p.Name, p.Category)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "manual", "fallback mode: manual, category or random")
	cmd.Flags().StringVar(&categories, "categories", "", "comma separated category ids for category mode")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "fixed shuffle seed")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var dbAddr string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the Postgres catalog mirror with the export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbAddr == "" {
				return fmt.Errorf("--db or DB_ADDR is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			snap, err := opts.snapshot(ctx)
			if err != nil {
				return err
			}

			pool, err := db.New(dbAddr, 2, "")
			if err != nil {
				return err
			}
			defer pool.Close()

			c, err := storage.NewContainer(storage.Backends{Pool: pool})
			if err != nil {
				return err
			}

			start := time.Now()
			err = c.WithCatalogTx(ctx, func(r *catalog.Repository) error {
				return r.ReplaceAll(ctx, snap.Products, snap.Categories)
			})
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products and %d categories in %s\n",
				len(snap.Products), len(snap.Categories), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbAddr, "db", os.Getenv("DB_ADDR"), "Postgres connection string")
	return cmd
}

// Package recommend picks the related products shown under a product page.
package recommend

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"storefront/internal/domain/catalog"
)

// MaxResults caps every recommendation list.
const MaxResults = 10

type Mode string

const (
	ModeManual   Mode = "manual"
	ModeCategory Mode = "category"
	ModeRandom   Mode = "random"
)

var ErrUnknownMode = errors.New("unknown recommendation mode")

// ParseMode accepts the configured mode name. Empty means manual.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeManual, nil
	case ModeManual, ModeCategory, ModeRandom:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Config is the global fallback used when a product has no overrides of its
// own. CategoryIDs is the allow-list for ModeCategory.
type Config struct {
	Mode        Mode
	CategoryIDs []catalog.ID
}

// Select returns at most MaxResults visible products related to target, in
// random order. rnd may be nil, in which case the global source is used.
//
// The first tier that yields anything wins: the target's own overrides, then
// the configured fallback mode. Tiers are never merged.
func Select(products []catalog.Product, target catalog.Product, categoryNames map[catalog.ID]string, cfg Config, rnd *rand.Rand) []catalog.Product {
	candidates := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if !p.IsVisible() || p.ID.String() == target.ID.String() {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return []catalog.Product{}
	}

	out := overrides(candidates, target.Recommendations, categoryNames)
	if len(out) == 0 {
		out = fallback(candidates, target, categoryNames, cfg)
	}

	shuffle(out, rnd)
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

func overrides(candidates []catalog.Product, rec *catalog.RecommendationOverrides, categoryNames map[catalog.ID]string) []catalog.Product {
	if rec.Empty() {
		return nil
	}

	ids := make(map[string]struct{}, len(rec.RelatedProductIDs))
	for _, id := range rec.RelatedProductIDs {
		ids[id.String()] = struct{}{}
	}
	names := resolveNames(rec.RelatedCategoryIDs, categoryNames)

	out := []catalog.Product{}
	for _, p := range candidates {
		_, byID := ids[p.ID.String()]
		_, byCategory := names[p.Category]
		if byID || byCategory {
			out = append(out, p)
		}
	}
	return out
}

func fallback(candidates []catalog.Product, target catalog.Product, categoryNames map[catalog.ID]string, cfg Config) []catalog.Product {
	var keep func(catalog.Product) bool

	switch cfg.Mode {
	case ModeCategory:
		names := resolveNames(cfg.CategoryIDs, categoryNames)
		keep = func(p catalog.Product) bool {
			_, ok := names[p.Category]
			return ok
		}
	case ModeRandom:
		keep = func(catalog.Product) bool { return true }
	default:
		if target.Category == "" {
			return []catalog.Product{}
		}
		keep = func(p catalog.Product) bool { return p.Category == target.Category }
	}

	out := []catalog.Product{}
	for _, p := range candidates {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// resolveNames maps category ids to names. Ids with no known or an empty name
// are dropped.
func resolveNames(ids []catalog.ID, categoryNames map[catalog.ID]string) map[string]struct{} {
	names := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if name := categoryNames[id]; name != "" {
			names[name] = struct{}{}
		}
	}
	return names
}

func shuffle(ps []catalog.Product, rnd *rand.Rand) {
	swap := func(i, j int) { ps[i], ps[j] = ps[j], ps[i] }
	if rnd == nil {
		rand.Shuffle(len(ps), swap)
		return
	}
	rnd.Shuffle(len(ps), swap)
}

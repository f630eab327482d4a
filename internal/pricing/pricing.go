// Package pricing computes display and capture prices for catalog products.
// Nothing here holds state; every function is safe to call with any snapshot.
package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/catalog"
)

var hundred = decimal.NewFromInt(100)

// Price is a resolved current price plus the struck-through reference price.
type Price struct {
	Price    decimal.Decimal  `json:"price"`
	OldPrice *decimal.Decimal `json:"oldPrice,omitempty"`
}

// isSet mirrors the storefront's truthiness check: a zero discount counts as
// not configured.
func isSet(d *decimal.Decimal) bool {
	return d != nil && !d.IsZero()
}

// ResolvePrice applies an offer to a base price. A disabled or missing offer
// leaves both prices untouched. An enabled offer always turns the base price
// into the old price; percentage wins over amount when both are set. The
// resolved price never drops below zero.
func ResolvePrice(base decimal.Decimal, baseOld *decimal.Decimal, offer *catalog.Offer) Price {
	if offer == nil || !offer.Enabled {
		return Price{Price: base, OldPrice: baseOld}
	}

	old := base
	price := base
	switch {
	case isSet(offer.DiscountPercentage):
		price = base.Sub(base.Mul(*offer.DiscountPercentage).Div(hundred))
	case isSet(offer.DiscountAmount):
		price = base.Sub(*offer.DiscountAmount)
	}
	return Price{Price: decimal.Max(price, decimal.Zero), OldPrice: &old}
}

// EffectiveStock is the sum of variant stocks when the product has variants,
// otherwise the product's own stock.
func EffectiveStock(p catalog.Product) int {
	if !p.HasVariants() {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

func IsOutOfStock(p catalog.Product) bool {
	return EffectiveStock(p) <= 0
}

// MaxQuantity bounds a single add-to-cart: the selected variant's own stock,
// or the product's effective stock when no variant is selected.
func MaxQuantity(p catalog.Product, v *catalog.ProductVariant) int {
	if v != nil {
		return v.Stock
	}
	return EffectiveStock(p)
}

// Apply returns copies of p and v carrying offer-resolved prices, ready to be
// captured by a cart line item. The offer is product level and is applied to
// the variant price too.
func Apply(p catalog.Product, v *catalog.ProductVariant) (catalog.Product, *catalog.ProductVariant) {
	pp := ResolvePrice(p.Price, p.OldPrice, p.Offer)
	p.Price, p.OldPrice = pp.Price, pp.OldPrice

	if v == nil {
		return p, nil
	}
	vc := *v
	vp := ResolvePrice(vc.Price, vc.OldPrice, p.Offer)
	vc.Price, vc.OldPrice = vp.Price, vp.OldPrice
	return p, &vc
}

type VariantQuote struct {
	ID    catalog.ID `json:"id"`
	Name  string     `json:"name"`
	Stock int        `json:"stock"`
	Image string     `json:"image,omitempty"`
	Price
}

type OfferQuote struct {
	Title          string     `json:"title,omitempty"`
	EndsAt         *time.Time `json:"endsAt,omitempty"`
	RemainingSecs  *int64     `json:"remainingSeconds,omitempty"`
	HighlightColor string     `json:"highlightColor,omitempty"`
	TextColor      string     `json:"textColor,omitempty"`
}

// ProductQuote is everything a product card or detail page needs to show
// prices and enable add-to-cart. The embedded Price applies when no variant
// is selected.
type ProductQuote struct {
	ProductID catalog.ID `json:"productId"`
	Price
	Variants       []VariantQuote `json:"variants,omitempty"`
	EffectiveStock int            `json:"effectiveStock"`
	OutOfStock     bool           `json:"outOfStock"`
	Offer          *OfferQuote    `json:"offer,omitempty"`
}

func Quote(p catalog.Product, now time.Time) ProductQuote {
	q := ProductQuote{
		ProductID:      p.ID,
		Price:          ResolvePrice(p.Price, p.OldPrice, p.Offer),
		EffectiveStock: EffectiveStock(p),
	}
	q.OutOfStock = q.EffectiveStock <= 0

	if p.HasVariants() {
		q.Variants = make([]VariantQuote, 0, len(p.Variants))
		for _, v := range p.Variants {
			q.Variants = append(q.Variants, VariantQuote{
				ID:    v.ID,
				Name:  v.Name,
				Stock: v.Stock,
				Image: v.Image,
				Price: ResolvePrice(v.Price, v.OldPrice, p.Offer),
			})
		}
		sort.Slice(q.Variants, func(i, j int) bool { return q.Variants[i].ID < q.Variants[j].ID })
	}

	if p.Offer != nil && p.Offer.Enabled {
		oq := &OfferQuote{
			Title:          p.Offer.Title,
			EndsAt:         p.Offer.EndsAt,
			HighlightColor: p.Offer.HighlightColor,
			TextColor:      p.Offer.TextColor,
		}
		if d, ok := p.Offer.Remaining(now); ok {
			secs := int64(d / time.Second)
			oq.RemainingSecs = &secs
		}
		q.Offer = oq
	}
	return q
}

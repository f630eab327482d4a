package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ID is a catalog identifier. The upstream store mixes numeric and string ids,
// so both JSON forms decode into the same string value.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("catalog id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type ProductVariant struct {
	ID       ID               `json:"id"`
	Name     string           `json:"name"`
	Price    decimal.Decimal  `json:"price"`
	OldPrice *decimal.Decimal `json:"oldPrice,omitempty"`
	Stock    int              `json:"stock"`
	Image    string           `json:"image,omitempty"`
}

// Offer is a promotional override attached at product level.
type Offer struct {
	Enabled            bool             `json:"enabled"`
	Title              string           `json:"title,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discountAmount,omitempty"`
	EndsAt             *time.Time       `json:"endsAt,omitempty"`
	HighlightColor     string           `json:"highlightColor,omitempty"`
	TextColor          string           `json:"textColor,omitempty"`
}

// Remaining reports how long the offer still runs. ok is false when the offer
// has no end date.
func (o *Offer) Remaining(now time.Time) (d time.Duration, ok bool) {
	if o == nil || o.EndsAt == nil {
		return 0, false
	}
	d = o.EndsAt.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// RecommendationOverrides pins related products for one product. When either
// list is non-empty it replaces the global fallback entirely.
type RecommendationOverrides struct {
	RelatedProductIDs  []ID `json:"relatedProductIds,omitempty"`
	RelatedCategoryIDs []ID `json:"relatedCategoryIds,omitempty"`
}

func (r *RecommendationOverrides) Empty() bool {
	return r == nil || (len(r.RelatedProductIDs) == 0 && len(r.RelatedCategoryIDs) == 0)
}

type Product struct {
	ID              ID                       `json:"id"`
	Name            string                   `json:"name"`
	Price           decimal.Decimal          `json:"price"`
	OldPrice        *decimal.Decimal         `json:"oldPrice,omitempty"`
	Images          []string                 `json:"images,omitempty"`
	Category        string                   `json:"category"`
	Subcategory     string                   `json:"subcategory,omitempty"`
	Stock           int                      `json:"stock"`
	Visible         *bool                    `json:"visible,omitempty"`
	Popular         bool                     `json:"popular,omitempty"`
	Variants        map[ID]ProductVariant    `json:"variants,omitempty"`
	Tags            map[ID]Tag               `json:"tags,omitempty"`
	Offer           *Offer                   `json:"offer,omitempty"`
	Recommendations *RecommendationOverrides `json:"recommendations,omitempty"`
}

// IsVisible treats a missing flag as visible; only an explicit false hides.
func (p Product) IsVisible() bool {
	return p.Visible == nil || *p.Visible
}

func (p Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Clone returns a copy that shares no maps, slices or pointers with p.
func (p Product) Clone() Product {
	if p.OldPrice != nil {
		d := *p.OldPrice
		p.OldPrice = &d
	}
	p.Images = append([]string(nil), p.Images...)
	if p.Visible != nil {
		v := *p.Visible
		p.Visible = &v
	}
	if p.Variants != nil {
		vs := make(map[ID]ProductVariant, len(p.Variants))
		for k, v := range p.Variants {
			if v.OldPrice != nil {
				d := *v.OldPrice
				v.OldPrice = &d
			}
			vs[k] = v
		}
		p.Variants = vs
	}
	if p.Tags != nil {
		ts := make(map[ID]Tag, len(p.Tags))
		for k, t := range p.Tags {
			ts[k] = t
		}
		p.Tags = ts
	}
	if p.Offer != nil {
		o := *p.Offer
		p.Offer = &o
	}
	if p.Recommendations != nil {
		r := RecommendationOverrides{
			RelatedProductIDs:  append([]ID(nil), p.Recommendations.RelatedProductIDs...),
			RelatedCategoryIDs: append([]ID(nil), p.Recommendations.RelatedCategoryIDs...),
		}
		p.Recommendations = &r
	}
	return p
}

func (p Product) Variant(id ID) (ProductVariant, bool) {
	v, ok := p.Variants[id]
	return v, ok
}

// Store is the read side of the external catalog collaborator.
type Store interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

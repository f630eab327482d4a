package carts

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/catalog"
)

// SlotNamespace prefixes every cart slot key.
const SlotNamespace = "cart"

func SlotKey(sessionID string) string {
	return SlotNamespace + ":" + sessionID
}

// LineItem is a copy of the product taken when it was added, plus the chosen
// quantity and variant. Later catalog edits do not reach items already in a
// cart.
type LineItem struct {
	catalog.Product
	Quantity int                     `json:"quantity"`
	Variant  *catalog.ProductVariant `json:"selectedVariant,omitempty"`
}

// LineKey is the identity of a line: the product id, or product:variant.
func LineKey(productID catalog.ID, variant *catalog.ProductVariant) string {
	if variant == nil {
		return productID.String()
	}
	return productID.String() + ":" + variant.ID.String()
}

func (li LineItem) Key() string {
	return LineKey(li.ID, li.Variant)
}

// EffectivePrice is the captured variant price when a variant was chosen,
// else the captured product price.
func (li LineItem) EffectivePrice() decimal.Decimal {
	if li.Variant != nil {
		return li.Variant.Price
	}
	return li.Price
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.EffectivePrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) clone() LineItem {
	if li.Variant != nil {
		v := *li.Variant
		li.Variant = &v
	}
	return li
}

// ErrPersist marks a failed slot write. The in-memory cart already holds the
// change when it is returned.
var ErrPersist = errors.New("cart not persisted")

type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrPersist }

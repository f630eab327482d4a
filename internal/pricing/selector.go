package pricing

import "storefront/internal/domain/catalog"

// Selector tracks the quantity picker on a product page. The quantity always
// stays within [1, MaxQuantity] and resets to 1 whenever the variant changes.
type Selector struct {
	product  catalog.Product
	variant  *catalog.ProductVariant
	quantity int
}

func NewSelector(p catalog.Product) *Selector {
	return &Selector{product: p, quantity: 1}
}

// SelectVariant switches the selected variant. An unknown id clears the
// selection and reports false.
func (s *Selector) SelectVariant(id catalog.ID) bool {
	s.quantity = 1
	v, ok := s.product.Variant(id)
	if !ok {
		s.variant = nil
		return false
	}
	s.variant = &v
	return true
}

func (s *Selector) Variant() *catalog.ProductVariant { return s.variant }

func (s *Selector) Quantity() int { return s.quantity }

func (s *Selector) Max() int { return MaxQuantity(s.product, s.variant) }

// SetQuantity clamps q into the allowed range and returns the stored value.
func (s *Selector) SetQuantity(q int) int {
	if limit := s.Max(); q > limit {
		q = limit
	}
	if q < 1 {
		q = 1
	}
	s.quantity = q
	return q
}

func (s *Selector) Increment() int { return s.SetQuantity(s.quantity + 1) }

func (s *Selector) Decrement() int { return s.SetQuantity(s.quantity - 1) }

// CanAdd is false when the product is out of stock, when a variant must be
// chosen first, or when the selected variant has no stock.
func (s *Selector) CanAdd() bool {
	if IsOutOfStock(s.product) {
		return false
	}
	if s.product.HasVariants() && s.variant == nil {
		return false
	}
	return s.Max() >= s.quantity
}

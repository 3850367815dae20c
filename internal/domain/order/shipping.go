package order

import "github.com/perfume/backend/internal/domain/shared/valueobject"

// ShippingPolicy computes the shipping fee of an order: a flat fee, waived when
// the subtotal reaches FreeThreshold. A zero threshold disables free shipping.
type ShippingPolicy struct {
	FlatFee       valueobject.Money
	FreeThreshold valueobject.Money
}

// FeeFor returns the shipping fee for the given subtotal
func (p ShippingPolicy) FeeFor(subtotal valueobject.Money) valueobject.Money {
	if !p.FreeThreshold.IsZero() {
		if ok, err := subtotal.GreaterThanOrEqual(p.FreeThreshold); err == nil && ok {
			return valueobject.Zero(subtotal.Currency())
		}
	}
	if p.FlatFee.Currency() == "" {
		return valueobject.Zero(subtotal.Currency())
	}
	return p.FlatFee
}

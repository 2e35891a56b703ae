// Package status derives an item's expiry and procurement status. These
// functions are the only place the classification rules live; the store
// calls them from every mutation path and from the batch recompute.
package status

import (
	"time"

	"github.com/erazemk/ambulanta/internal/dates"
	"github.com/erazemk/ambulanta/internal/model"
)

// ClassifyExpiry returns the expiry bucket for an item. The quantity check
// comes first, so an empty item is out of stock whatever its date. Items
// without a parseable expiry date are valid.
func ClassifyExpiry(expiryDate string, quantity int, now time.Time) string {
	if quantity <= 0 {
		return model.ExpiryOutOfStock
	}

	expiry, ok := dates.Parse(expiryDate)
	if !ok {
		return model.ExpiryValid
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case expiry.Before(today):
		return model.ExpiryExpired
	case !expiry.After(today.AddDate(0, 1, 0)):
		return model.ExpiryIn1Month
	case !expiry.After(today.AddDate(0, 3, 0)):
		return model.ExpiryIn3Months
	default:
		return model.ExpiryValid
	}
}

// Membership is an order that references an item.
type Membership struct {
	OrderID     int64
	OrderName   string
	OrderStatus string
}

// Input is everything ClassifyProcurement looks at.
type Input struct {
	Quantity     int
	Minimum      int
	ExpiryStatus string

	// Orders referencing the item, by ascending order id. Orders that are
	// received, completed or cancelled are ignored.
	Orders []Membership
}

// Procurement is a procurement status plus the order it refers to, if any.
type Procurement struct {
	Status string
	Order  string
}

// ClassifyProcurement applies the procurement rules in priority order.
func ClassifyProcurement(in Input) Procurement {
	for _, m := range in.Orders {
		if m.OrderStatus == model.OrderOrdered {
			return Procurement{Status: model.ProcurementOnOrder, Order: m.OrderName}
		}
	}
	for _, m := range in.Orders {
		if m.OrderStatus == model.OrderNew || m.OrderStatus == model.OrderInProgress {
			return Procurement{Status: model.ProcurementInOrder, Order: m.OrderName}
		}
	}

	fresh := in.ExpiryStatus == model.ExpiryValid
	switch {
	case in.Quantity <= 0:
		return Procurement{Status: model.ProcurementNeedsOrder}
	case in.Quantity < in.Minimum && !fresh:
		return Procurement{Status: model.ProcurementNeedsOrder}
	case in.Quantity < in.Minimum:
		return Procurement{Status: model.ProcurementQuantityWarning}
	case !fresh:
		return Procurement{Status: model.ProcurementNeedsOrder}
	default:
		return Procurement{Status: model.ProcurementOK}
	}
}

// ActiveOrderStatus reports whether an order in status s still holds its
// items for the purposes of ClassifyProcurement.
func ActiveOrderStatus(s string) bool {
	return s == model.OrderNew || s == model.OrderInProgress || s == model.OrderOrdered
}

package model

// Expiry statuses, derived from expiry date and quantity on hand.
const (
	ExpiryValid      = "valid"
	ExpiryIn3Months  = "expiring_3_months"
	ExpiryIn1Month   = "expiring_1_month"
	ExpiryExpired    = "expired"
	ExpiryOutOfStock = "out_of_stock"
)

// Procurement statuses. ProcurementOnOrder and ProcurementInOrder carry the
// name of the order in the item's procurement_order column.
const (
	ProcurementOnOrder         = "on_order"
	ProcurementInOrder         = "in_order"
	ProcurementNeedsOrder      = "needs_order"
	ProcurementQuantityWarning = "quantity_warning"
	ProcurementOK              = "ok"
)

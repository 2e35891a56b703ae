package status

import (
	"testing"
	"time"

	"github.com/erazemk/ambulanta/internal/model"
)

var refNow = time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)

func TestClassifyExpiry(t *testing.T) {
	tests := []struct {
		name     string
		expiry   string
		quantity int
		want     string
	}{
		{"zero quantity beats date", "01-01-2030", 0, model.ExpiryOutOfStock},
		{"negative quantity", "01-01-2030", -2, model.ExpiryOutOfStock},
		{"zero quantity and expired", "01-01-2020", 0, model.ExpiryOutOfStock},
		{"no date", "", 4, model.ExpiryValid},
		{"unparseable date", "soon", 4, model.ExpiryValid},
		{"yesterday", "14-01-2026", 4, model.ExpiryExpired},
		{"today", "15-01-2026", 4, model.ExpiryIn1Month},
		{"exactly one month", "15-02-2026", 4, model.ExpiryIn1Month},
		{"one month and a day", "16-02-2026", 4, model.ExpiryIn3Months},
		{"exactly three months", "15-04-2026", 4, model.ExpiryIn3Months},
		{"three months and a day", "16-04-2026", 4, model.ExpiryValid},
		{"iso input", "2027-01-01", 4, model.ExpiryValid},
	}

	for _, tt := range tests {
		got := ClassifyExpiry(tt.expiry, tt.quantity, refNow)
		if got != tt.want {
			t.Errorf("%s: ClassifyExpiry(%q, %d) = %q, want %q", tt.name, tt.expiry, tt.quantity, got, tt.want)
		}
	}
}

func TestClassifyExpiryMonotonic(t *testing.T) {
	rank := map[string]int{
		model.ExpiryValid:     0,
		model.ExpiryIn3Months: 1,
		model.ExpiryIn1Month:  2,
		model.ExpiryExpired:   3,
	}

	expiry := "30-06-2026"
	prev := -1
	for day := 0; day < 365; day++ {
		now := refNow.AddDate(0, 0, day)
		got := ClassifyExpiry(expiry, 5, now)
		r, ok := rank[got]
		if !ok {
			t.Fatalf("day %d: unexpected status %q", day, got)
		}
		if r < prev {
			t.Fatalf("day %d: status went back to %q", day, got)
		}
		prev = r
	}
	if prev != rank[model.ExpiryExpired] {
		t.Errorf("expected item to end expired, got rank %d", prev)
	}
}

func TestClassifyProcurement(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Procurement
	}{
		{
			name: "empty, no date, no order",
			in:   Input{Quantity: 0, Minimum: 5, ExpiryStatus: model.ExpiryOutOfStock},
			want: Procurement{Status: model.ProcurementNeedsOrder},
		},
		{
			name: "enough stock but expiring",
			in:   Input{Quantity: 10, Minimum: 5, ExpiryStatus: model.ExpiryIn1Month},
			want: Procurement{Status: model.ProcurementNeedsOrder},
		},
		{
			name: "below minimum and expiring",
			in:   Input{Quantity: 2, Minimum: 5, ExpiryStatus: model.ExpiryIn3Months},
			want: Procurement{Status: model.ProcurementNeedsOrder},
		},
		{
			name: "below minimum but fresh",
			in:   Input{Quantity: 2, Minimum: 5, ExpiryStatus: model.ExpiryValid},
			want: Procurement{Status: model.ProcurementQuantityWarning},
		},
		{
			name: "expired alone",
			in:   Input{Quantity: 8, Minimum: 5, ExpiryStatus: model.ExpiryExpired},
			want: Procurement{Status: model.ProcurementNeedsOrder},
		},
		{
			name: "all fine",
			in:   Input{Quantity: 5, Minimum: 5, ExpiryStatus: model.ExpiryValid},
			want: Procurement{Status: model.ProcurementOK},
		},
		{
			name: "ordered order wins over draft",
			in: Input{Quantity: 0, Minimum: 5, ExpiryStatus: model.ExpiryOutOfStock, Orders: []Membership{
				{OrderID: 1, OrderName: "Draft", OrderStatus: model.OrderNew},
				{OrderID: 2, OrderName: "Sent", OrderStatus: model.OrderOrdered},
			}},
			want: Procurement{Status: model.ProcurementOnOrder, Order: "Sent"},
		},
		{
			name: "first draft order named",
			in: Input{Quantity: 9, Minimum: 5, ExpiryStatus: model.ExpiryValid, Orders: []Membership{
				{OrderID: 3, OrderName: "Spring", OrderStatus: model.OrderInProgress},
				{OrderID: 4, OrderName: "Summer", OrderStatus: model.OrderNew},
			}},
			want: Procurement{Status: model.ProcurementInOrder, Order: "Spring"},
		},
		{
			name: "closed orders do not count",
			in: Input{Quantity: 9, Minimum: 5, ExpiryStatus: model.ExpiryValid, Orders: []Membership{
				{OrderID: 5, OrderName: "Old", OrderStatus: model.OrderCompleted},
				{OrderID: 6, OrderName: "Dropped", OrderStatus: model.OrderCancelled},
				{OrderID: 7, OrderName: "Arrived", OrderStatus: model.OrderReceived},
			}},
			want: Procurement{Status: model.ProcurementOK},
		},
	}

	for _, tt := range tests {
		got := ClassifyProcurement(tt.in)
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

package pricing

import (
	"net/http"
	"testing"

	"makeeasy/apperr"
	"makeeasy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func tenures(months ...int) []models.TenurePricing {
	out := make([]models.TenurePricing, 0, len(months))
	for _, m := range months {
		out = append(out, models.TenurePricing{Months: m, MonthlyRent: float64(1000 + m)})
	}
	return out
}

func TestResolveTenure(t *testing.T) {
	tests := []struct {
		name      string
		available []int
		requested int
		want      int
	}{
		{"exact", []int{3, 6, 12}, 6, 6},
		{"nearest below", []int{3, 6, 12}, 8, 6},
		{"nearest above", []int{3, 6, 12}, 11, 12},
		{"tie goes to first listed", []int{3, 9}, 6, 3},
		{"tie respects list order", []int{9, 3}, 6, 9},
		{"beyond range", []int{3, 6, 12}, 24, 12},
		{"single", []int{6}, 1, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTenure(tenures(tt.available...), tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Months)
		})
	}

	_, err := ResolveTenure(nil, 6)
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "6 months tenure not available", ae.Message)
}

func TestResolveCityPricing(t *testing.T) {
	p := &models.Product{CityPricing: []models.CityPricing{{City: "Bengaluru"}, {City: "Pune"}}}

	cp, err := ResolveCityPricing(p, "pune")
	require.NoError(t, err)
	assert.Equal(t, "Pune", cp.City)

	cp.Stock = 4
	assert.Equal(t, 4, p.CityPricing[1].Stock, "returns a pointer into the product")

	_, err = ResolveCityPricing(p, "Delhi")
	assert.EqualError(t, err, "Product not available in Delhi")
}

func TestCheckStock(t *testing.T) {
	assert.NoError(t, CheckStock(&models.CityPricing{Available: true, Stock: 1}))
	assert.EqualError(t, CheckStock(&models.CityPricing{Available: true, Stock: 0}), "Product is out of stock in this city")
	assert.Error(t, CheckStock(&models.CityPricing{Available: false, Stock: 5}))
}

func TestQuoteRental(t *testing.T) {
	cp := &models.CityPricing{City: "Pune", Deposit: 2000, DeliveryCharge: 100, Stock: 3, Available: true}
	tenure := models.TenurePricing{Months: 6, MonthlyRent: 1000}
	addOns := []models.SelectedAddOn{{Name: "Damage cover", MonthlyCharge: 50, OneTimeCharge: 20}}

	s := QuoteRental(cp, tenure, addOns)
	assert.Equal(t, Summary{
		MonthlyRent:    1000,
		Deposit:        2000,
		DeliveryCharge: 100,
		AddOnsMonthly:  50,
		AddOnsOneTime:  20,
		Subtotal:       3170,
		GST:            570.6,
		Total:          3740.6,
	}, s)

	bare := QuoteRental(cp, tenure, nil)
	assert.Equal(t, 3100.0, bare.Subtotal)
	assert.Equal(t, 558.0, bare.GST)
	assert.Equal(t, 3658.0, bare.Total)
}

func TestSnapshotFreezesCharges(t *testing.T) {
	a := models.AddOn{ID: primitive.NewObjectID(), Name: "Insurance", MonthlyCharge: 99, OneTimeCharge: 0}
	snap := Snapshot([]models.AddOn{a})
	a.MonthlyCharge = 149

	require.Len(t, snap, 1)
	assert.Equal(t, a.ID, snap[0].AddOn)
	assert.Equal(t, 99.0, snap[0].MonthlyCharge)
}

func TestEarlyClosureCharge(t *testing.T) {
	assert.Equal(t, 600.0, EarlyClosureCharge(&models.Product{}, 1200))
	fixed := 750.0
	assert.Equal(t, 750.0, EarlyClosureCharge(&models.Product{EarlyClosureCharge: &fixed}, 1200))
	assert.Equal(t, 500.0, EarlyClosureCharge(nil, 1000))
}

func TestBillMonth(t *testing.T) {
	b := &models.Booking{
		MonthlyRent: 1000,
		SelectedAddOns: []models.SelectedAddOn{
			{AddOn: primitive.NewObjectID(), Name: "Protect", MonthlyCharge: 50, OneTimeCharge: 20},
			{AddOn: primitive.NewObjectID(), Name: "Install", OneTimeCharge: 300},
		},
	}
	bill := BillMonth(b, 25)
	assert.Equal(t, 1000.0, bill.RentalAmount)
	require.Len(t, bill.AddOns, 1, "one-time add-ons are not billed monthly")
	assert.Equal(t, 50.0, bill.AddOnTotal)
	assert.Equal(t, 189.0, bill.GST)
	assert.Equal(t, 25.0, bill.LateFee)
	assert.Equal(t, 1264.0, bill.Total)
}

func TestGatewayAmount(t *testing.T) {
	assert.Equal(t, int64(374060), GatewayAmount(3740.6))
	assert.Equal(t, int64(100), GatewayAmount(0.999))
	assert.Equal(t, int64(0), GatewayAmount(0))
}

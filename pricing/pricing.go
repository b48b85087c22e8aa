// Package pricing resolves rental terms from a product's city pricing table
// and computes first-payment and monthly charges.
package pricing

import (
	"strings"

	"makeeasy/apperr"
	"makeeasy/globals"
	"makeeasy/models"

	"github.com/shopspring/decimal"
)

var gstRate = decimal.RequireFromString(globals.GSTRate)

// Summary is the cost breakdown returned with a new rental.
type Summary struct {
	MonthlyRent    float64 `json:"monthlyRent"`
	Deposit        float64 `json:"deposit"`
	DeliveryCharge float64 `json:"deliveryCharge"`
	AddOnsMonthly  float64 `json:"addOnsMonthly"`
	AddOnsOneTime  float64 `json:"addOnsOneTime"`
	Subtotal       float64 `json:"subtotal"`
	GST            float64 `json:"gst"`
	Total          float64 `json:"total"`
}

// ResolveCityPricing finds the product's pricing entry for city, ignoring case.
func ResolveCityPricing(p *models.Product, city string) (*models.CityPricing, error) {
	for i := range p.CityPricing {
		if strings.EqualFold(p.CityPricing[i].City, strings.TrimSpace(city)) {
			return &p.CityPricing[i], nil
		}
	}
	return nil, apperr.BadRequest("Product not available in %s", city)
}

// CheckStock fails when the city entry cannot be rented right now.
func CheckStock(cp *models.CityPricing) error {
	if !cp.Available || cp.Stock <= 0 {
		return apperr.BadRequest("Product is out of stock in this city")
	}
	return nil
}

// ResolveTenure returns the exact tenure when listed, otherwise the entry
// with the smallest month distance. Ties go to the earlier entry.
func ResolveTenure(tenures []models.TenurePricing, months int) (models.TenurePricing, error) {
	if len(tenures) == 0 {
		return models.TenurePricing{}, apperr.BadRequest("%d months tenure not available", months)
	}
	for _, t := range tenures {
		if t.Months == months {
			return t, nil
		}
	}
	best := 0
	for i := 1; i < len(tenures); i++ {
		if distance(tenures[i].Months, months) < distance(tenures[best].Months, months) {
			best = i
		}
	}
	return tenures[best], nil
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Snapshot freezes the add-ons' current names and charges.
func Snapshot(addOns []models.AddOn) []models.SelectedAddOn {
	out := make([]models.SelectedAddOn, 0, len(addOns))
	for _, a := range addOns {
		out = append(out, models.SelectedAddOn{
			AddOn:         a.ID,
			Name:          a.Name,
			MonthlyCharge: a.MonthlyCharge,
			OneTimeCharge: a.OneTimeCharge,
		})
	}
	return out
}

// QuoteRental computes the first payment for a rental:
// deposit, one month of rent and add-ons, delivery and one-time add-ons, plus GST.
func QuoteRental(cp *models.CityPricing, tenure models.TenurePricing, addOns []models.SelectedAddOn) Summary {
	monthly, oneTime := decimal.Zero, decimal.Zero
	for _, a := range addOns {
		monthly = monthly.Add(decimal.NewFromFloat(a.MonthlyCharge))
		oneTime = oneTime.Add(decimal.NewFromFloat(a.OneTimeCharge))
	}

	rent := decimal.NewFromFloat(tenure.MonthlyRent)
	deposit := decimal.NewFromFloat(cp.Deposit)
	delivery := decimal.NewFromFloat(cp.DeliveryCharge)

	subtotal := deposit.Add(rent).Add(monthly).Add(delivery).Add(oneTime)
	gst := GST(subtotal)

	return Summary{
		MonthlyRent:    tenure.MonthlyRent,
		Deposit:        cp.Deposit,
		DeliveryCharge: cp.DeliveryCharge,
		AddOnsMonthly:  monthly.InexactFloat64(),
		AddOnsOneTime:  oneTime.InexactFloat64(),
		Subtotal:       subtotal.InexactFloat64(),
		GST:            gst.InexactFloat64(),
		Total:          subtotal.Add(gst).InexactFloat64(),
	}
}

// GST is the tax on amount at the fixed rate.
func GST(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(gstRate)
}

// EarlyClosureCharge is the product's configured charge, or half a month's rent.
func EarlyClosureCharge(p *models.Product, monthlyRent float64) float64 {
	if p != nil && p.EarlyClosureCharge != nil && *p.EarlyClosureCharge > 0 {
		return *p.EarlyClosureCharge
	}
	return decimal.NewFromFloat(monthlyRent).Mul(decimal.NewFromFloat(0.5)).InexactFloat64()
}

// MonthlyBill is one month's charges for a running rental.
type MonthlyBill struct {
	RentalAmount float64
	AddOns       []models.BillAddOn
	AddOnTotal   float64
	GST          float64
	LateFee      float64
	Total        float64
}

// BillMonth computes a monthly bill from the rental's frozen prices.
// Tax applies to rent and add-ons; the late fee is added untaxed.
func BillMonth(b *models.Booking, lateFee float64) MonthlyBill {
	addOnTotal := decimal.Zero
	lines := make([]models.BillAddOn, 0, len(b.SelectedAddOns))
	for _, a := range b.SelectedAddOns {
		if a.MonthlyCharge <= 0 {
			continue
		}
		lines = append(lines, models.BillAddOn{AddOn: a.AddOn, Name: a.Name, Charge: a.MonthlyCharge})
		addOnTotal = addOnTotal.Add(decimal.NewFromFloat(a.MonthlyCharge))
	}

	rent := decimal.NewFromFloat(b.MonthlyRent)
	gst := GST(rent.Add(addOnTotal)).Round(2)
	late := decimal.NewFromFloat(lateFee)

	return MonthlyBill{
		RentalAmount: b.MonthlyRent,
		AddOns:       lines,
		AddOnTotal:   addOnTotal.InexactFloat64(),
		GST:          gst.InexactFloat64(),
		LateFee:      lateFee,
		Total:        rent.Add(addOnTotal).Add(gst).Add(late).InexactFloat64(),
	}
}

// GatewayAmount converts rupees to the smallest currency unit, rounded.
func GatewayAmount(total float64) int64 {
	return decimal.NewFromFloat(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

package billing

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"makeeasy/globals"
	"makeeasy/models"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// InvoiceRef is the signed reference printed as the invoice QR code:
// billID|period|total|signature.
func InvoiceRef(bill *models.MonthlyBilling) string {
	data := fmt.Sprintf("%s|%02d-%d|%s", bill.ID.Hex(), bill.BillingPeriod.Month, bill.BillingPeriod.Year, money(bill.TotalAmount))
	h := hmac.New(sha256.New, globals.JwtSecret)
	h.Write([]byte(data))
	return data + "|" + base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RenderInvoice lays out a single-page A4 invoice. rental may be nil when
// the booking has since been removed.
func RenderInvoice(bill *models.MonthlyBilling, rental *models.Booking, printed time.Time) ([]byte, error) {
	qrPNG, err := qrcode.Encode(InvoiceRef(bill), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("invoice qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "MakeEasy Rental Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	line := func(label, value string) {
		pdf.CellFormat(50, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}
	line("Invoice", bill.ID.Hex())
	line("Billing period", fmt.Sprintf("%s %d", time.Month(bill.BillingPeriod.Month), bill.BillingPeriod.Year))
	line("Due date", bill.DueDate.Format("02 Jan 2006"))
	line("Status", string(bill.PaymentStatus))
	if rental != nil {
		line("Customer", rental.CustomerName)
		line("Email", rental.CustomerEmail)
		if rental.SelectedCity != "" {
			line("City", rental.SelectedCity)
		}
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(130, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Amount (INR)", "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	row := func(label string, amount float64) {
		pdf.CellFormat(130, 8, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, money(amount), "1", 1, "R", false, 0, "")
	}
	row("Monthly rent", bill.RentalAmount)
	for _, a := range bill.AddOns {
		row("Add-on: "+a.Name, a.Charge)
	}
	row("GST (18%)", bill.GST)
	if bill.LateFee > 0 {
		row("Late fee", bill.LateFee)
	}
	pdf.SetFont("Arial", "B", 11)
	row("Total", bill.TotalAmount)

	if bill.PaidDate != nil {
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Paid on %s via %s %s", bill.PaidDate.Format("02 Jan 2006"), bill.PaymentMethod, bill.TransactionID))
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 20, 35, 35, false, opts, 0, "")

	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 6, "Generated "+printed.Format(time.RFC1123))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

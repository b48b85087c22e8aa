// Package pay talks to the payment gateway and guards order creation
// against client retries.
package pay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	razorpay "github.com/razorpay/razorpay-go"
)

// OrderRequest is a gateway order for amount in the smallest currency unit.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway creates payment orders that the client then pays against.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (map[string]interface{}, error)
}

type Razorpay struct {
	client *razorpay.Client
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder registers the order with Razorpay. The SDK has no context
// support, so ctx only short-circuits calls that are already cancelled.
func (g *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.client.Order.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}, nil)
}

// Sign is the gateway's checkout signature: hex HMAC-SHA256 of
// "orderID|paymentID" keyed with the account secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature to the expected one in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

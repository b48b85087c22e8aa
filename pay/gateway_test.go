package pay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignMatchesGatewayFormat(t *testing.T) {
	got := Sign("secret_key", "order_9A33XWu170gUtm", "pay_29QQoUBi66xm2f")
	assert.Equal(t, "689819be10e5694443822e3958ddf9ea28789f4c2c0b798e798adbb52ae550b2", got)
}

func TestVerifySignature(t *testing.T) {
	sig := Sign("secret_key", "order_1", "pay_1")

	assert.True(t, VerifySignature("secret_key", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("other_secret", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret_key", "order_1", "pay_2", sig))
	assert.False(t, VerifySignature("secret_key", "order_1", "pay_1", ""))
	assert.False(t, VerifySignature("secret_key", "order_1", "pay_1", sig[:len(sig)-1]+"0"))
}

package globals

// JwtSecret signs and verifies bearer tokens. Set once at startup from config.
var JwtSecret []byte

// Context keys
type ContextKey string

const (
	RoleKey   ContextKey = "role"
	UserIDKey ContextKey = "userId"
	EmailKey  ContextKey = "email"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// GST applied to every rental charge.
const GSTRate = "0.18"

// KYCRedirect is the client route a user without verified KYC is sent to.
const KYCRedirect = "/kyc-upload"

// DeliveryTimeSlots are the fixed delivery, pickup and visit windows.
var DeliveryTimeSlots = []string{"09:00-12:00", "12:00-15:00", "15:00-18:00", "18:00-21:00"}

// ValidTimeSlot reports whether slot is one of the fixed windows.
func ValidTimeSlot(slot string) bool {
	for _, s := range DeliveryTimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

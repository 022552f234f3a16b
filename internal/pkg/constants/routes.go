package constants

// Static route constants
const (
	PublicRoute       = "/"
	PricingRoute      = "/pricing"
	SubscriptionRoute = "/user/settings/subscription"
	CheckoutRoute     = "/payment/checkout"
	VNPayReturnRoute  = "/payment/vnpay-return"
)

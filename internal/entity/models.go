package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store.
type Product struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url"`
	Category     string          `json:"category"`
	Brand        string          `json:"brand"`
	Stock        int             `json:"stock"`
	SoldCount    int             `json:"sold_count"`
	IsActive     bool            `json:"is_active"`
	IsFeatured   bool            `json:"is_featured"`
	IsNew        bool            `json:"is_new"`
	IsBestseller bool            `json:"is_bestseller"`
	IsOnSale     bool            `json:"is_on_sale"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProductFilter narrows catalog listings. Zero values mean "any".
type ProductFilter struct {
	Category   string
	Brand      string
	Search     string
	Featured   bool
	OnSale     bool
	Bestseller bool
	Limit      int
	Offset     int
}

// Address is a shipping destination captured at checkout.
type Address struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	Ward       string `json:"ward,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
}

// ShippingMethod selects the carrier service level.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "STANDARD"
	ShippingExpress  ShippingMethod = "EXPRESS"
)

// PaymentMethod is recorded on the order; capture happens outside this service.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentEWallet      PaymentMethod = "E_WALLET"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentBankTransfer, PaymentCard, PaymentEWallet:
		return true
	}
	return false
}

// OrderItem is a line item snapshot. It is decoupled from the live product so
// historical orders never change when the catalog does.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StatusHistory is one row of an order's append-only audit trail.
type StatusHistory struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	ChangedBy string      `json:"changed_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Order represents a customer order.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          string          `json:"user_id"`
	Status          OrderStatus     `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	PointsDiscount  decimal.Decimal `json:"points_discount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PointsUsed      int64           `json:"points_used"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	ShippingMethod  ShippingMethod  `json:"shipping_method"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Notes           string          `json:"notes,omitempty"`
	ContactName     string          `json:"contact_name"`
	ContactEmail    string          `json:"contact_email"`
	ContactPhone    string          `json:"contact_phone,omitempty"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	ShippingZone    string          `json:"shipping_zone,omitempty"`
	Items           []OrderItem     `json:"items"`
	History         []StatusHistory `json:"history"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DiscountType is how a coupon reduces an order.
type DiscountType string

const (
	DiscountPercentage   DiscountType = "PERCENTAGE"
	DiscountFixedAmount  DiscountType = "FIXED_AMOUNT"
	DiscountFreeShipping DiscountType = "FREE_SHIPPING"
)

func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixedAmount, DiscountFreeShipping:
		return true
	}
	return false
}

// Coupon is a promotional code. Codes are stored upper-case and matched
// case-insensitively.
type Coupon struct {
	ID             string              `json:"id"`
	Code           string              `json:"code"`
	Description    string              `json:"description,omitempty"`
	Type           DiscountType        `json:"type"`
	Value          decimal.Decimal     `json:"value"`
	MinOrderAmount decimal.NullDecimal `json:"min_order_amount"`
	MaxDiscount    decimal.NullDecimal `json:"max_discount"`
	UsageLimit     *int                `json:"usage_limit"`
	PerUserLimit   int                 `json:"per_user_limit"` // 0 means unlimited
	UsedCount      int                 `json:"used_count"`
	IsActive       bool                `json:"is_active"`
	StartsAt       time.Time           `json:"starts_at"`
	EndsAt         time.Time           `json:"ends_at"`
	CreatedAt      time.Time           `json:"created_at"`
}

// RewardEntryType tags a ledger row.
type RewardEntryType string

const (
	RewardEarned   RewardEntryType = "EARNED"
	RewardRedeemed RewardEntryType = "REDEEMED"
	RewardRefunded RewardEntryType = "REFUNDED"
	RewardAdjusted RewardEntryType = "ADJUSTED"
	RewardReversed RewardEntryType = "REVERSED"
)

// RewardEntry is one signed row in a user's points ledger.
type RewardEntry struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Points      int64           `json:"points"`
	Type        RewardEntryType `json:"type"`
	OrderID     string          `json:"order_id,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RewardTier is a loyalty band. A user belongs to the highest band whose
// MinPoints does not exceed their balance.
type RewardTier struct {
	Name       string          `json:"name"`
	MinPoints  int64           `json:"min_points"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Benefits   []string        `json:"benefits"`
}

// Notification is an in-app alert shown to a user.
type Notification struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	OrderID     string      `json:"order_id,omitempty"`
	OrderNumber string      `json:"order_number,omitempty"`
	Status      OrderStatus `json:"status,omitempty"`
	IsRead      bool        `json:"is_read"`
	CreatedAt   time.Time   `json:"created_at"`
}

// --- Commands ---

// Checkout carries everything the checkout store commits in one transaction.
type Checkout struct {
	Order      *Order
	Coupon     *Coupon // nil when no coupon was applied
	PointsUsed int64
}

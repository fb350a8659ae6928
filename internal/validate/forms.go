package validate

import (
	"strings"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type LoginForm struct {
	Email    string `json:"email" validate:"notblank,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterForm struct {
	Email           string `json:"email" validate:"notblank,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	FirstName       string `json:"first_name" validate:"notblank"`
	LastName        string `json:"last_name" validate:"notblank"`
	Address         string `json:"address" validate:"notblank,min=5"`
}

func (f RegisterForm) Registration() shop.Registration {
	return shop.Registration{
		Email:     strings.TrimSpace(f.Email),
		Password:  f.Password,
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Address:   strings.TrimSpace(f.Address),
	}
}

type ProfileForm struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitnil,notblank"`
	LastName  *string `json:"last_name,omitempty" validate:"omitnil,notblank"`
	Address   *string `json:"address,omitempty" validate:"omitnil,notblank,min=5"`
}

func (f ProfileForm) Update() shop.ProfileUpdate {
	return shop.ProfileUpdate{FirstName: f.FirstName, LastName: f.LastName, Address: f.Address}
}

type CheckoutForm struct {
	ShippingAddress string `json:"shipping_address" validate:"notblank"`
}

// PaymentForm is what the customer types. Only the expiry and CVV reach the
// backend; the simulated gateway is always sent its test card.
type PaymentForm struct {
	OrderID    string `json:"order_id" validate:"required"`
	CardNumber string `json:"card_number" validate:"cardnumber"`
	CardHolder string `json:"card_holder" validate:"notblank"`
	ExpMonth   int    `json:"exp_month" validate:"min=1,max=12"`
	ExpYear    int    `json:"exp_year" validate:"expyear"`
	CVV        string `json:"cvv" validate:"len=3,numeric"`
}

type ThreadForm struct {
	Subject string  `json:"subject" validate:"notblank,min=3"`
	Message string  `json:"message" validate:"notblank"`
	OrderID *string `json:"order_id,omitempty"`
}

type MessageForm struct {
	Body string `json:"body" validate:"notblank"`
}

type ProductForm struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" validate:"gt=0"`
	StockQty    int    `json:"stock_qty" validate:"gte=0"`
}

func (f ProductForm) Draft() shop.ProductDraft {
	return shop.ProductDraft{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		PriceCents:  f.PriceCents,
		StockQty:    f.StockQty,
	}
}

type StockForm struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// Package validate checks form input before anything is sent to the backend.
package validate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldErrors maps a form field (its json name) to a human readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func New() *Validator { return NewAt(time.Now) }

// NewAt builds a validator whose card expiry window follows now.
func NewAt(now func() time.Time) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("cardnumber", cardNumber)
	_ = v.RegisterValidation("expyear", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		current := now().Year()
		return year >= current && year <= current+20
	})
	return &Validator{v: v, now: now}
}

// cardNumber accepts 16 digits, ignoring spaces.
func cardNumber(fl validator.FieldLevel) bool {
	n := strings.ReplaceAll(fl.Field().String(), " ", "")
	if len(n) != 16 {
		return false
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Check returns nil or FieldErrors.
func (v *Validator) Check(form any) error {
	err := v.v.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = v.message(fe)
		}
	}
	return out
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "eqfield":
		return "does not match"
	case "cardnumber":
		return "must be 16 digits"
	case "expyear":
		y := v.now().Year()
		return fmt.Sprintf("must be between %d and %d", y, y+20)
	default:
		return "is invalid"
	}
}

package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'.\-]{1,50}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, reQ.MatchString(s)
}

// ID validates a resource identifier (product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Text trims s and checks it is non-empty and at most max runes.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && utf8.RuneCountInString(s) <= max
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) { return Text(s, 50) }

// Password enforces length and character classes. The upper bound is
// bcrypt's input limit.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 72 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

func Quantity(n int) error {
	if n < 1 {
		return domain.Invalid("quantity must be at least 1")
	}
	return nil
}

func Price(p decimal.Decimal) error {
	if p.IsNegative() {
		return domain.Invalid("price must not be negative")
	}
	return nil
}

func Stock(n int) error {
	if n < 0 {
		return domain.Invalid("stock must not be negative")
	}
	return nil
}

// Page checks listing bounds. Callers substitute DefaultLimit when the
// client did not ask for a page size.
func Page(skip, limit int) (int, int, error) {
	if skip < 0 {
		return 0, 0, domain.Invalid("skip must not be negative")
	}
	if limit < 1 || limit > MaxLimit {
		return 0, 0, domain.Invalid("limit must be between 1 and %d", MaxLimit)
	}
	return skip, limit, nil
}

// ShippingAddress trims every field and requires all but the second line.
func ShippingAddress(a domain.ShippingAddress) (domain.ShippingAddress, error) {
	out := domain.ShippingAddress{AddressLine2: strings.TrimSpace(a.AddressLine2)}
	fields := []struct {
		name string
		in   string
		dst  *string
	}{
		{"address_line1", a.AddressLine1, &out.AddressLine1},
		{"city", a.City, &out.City},
		{"state", a.State, &out.State},
		{"postal_code", a.PostalCode, &out.PostalCode},
		{"country", a.Country, &out.Country},
	}
	for _, f := range fields {
		v, ok := Text(f.in, 200)
		if !ok {
			return domain.ShippingAddress{}, fmt.Errorf("%w: shipping address %s is required", domain.ErrInvalidInput, f.name)
		}
		*f.dst = v
	}
	if utf8.RuneCountInString(out.AddressLine2) > 200 {
		return domain.ShippingAddress{}, domain.Invalid("shipping address address_line2 is too long")
	}
	return out, nil
}

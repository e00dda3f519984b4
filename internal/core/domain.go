package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Food          Category = "food"
	Travel        Category = "travel"
	Groceries     Category = "groceries"
	Shopping      Category = "shopping"
	Entertainment Category = "entertainment"
	Stationary    Category = "stationary"
	Others        Category = "others"
)

type (
	// Category is one of the fixed expense categories.
	Category string

	// Record is one expense as delivered by a record store.
	Record struct {
		ID        string
		OwnerID   string
		Category  Category
		Amount    decimal.Decimal
		Note      string
		CreatedAt time.Time
		Issues    Issues // Malformations detected at the store boundary
	}

	// Draft is a record as submitted by a user, before the store assigns
	// an id and the service attaches the owner.
	Draft struct {
		Category Category
		Amount   decimal.Decimal
		Note     string
	}
)

var (
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoteTooLong     = errors.New("note too long (max 200 characters)")
	ErrMissingOwner    = errors.New("missing owner")
)

// categoryOrder is the enumeration order used to break ties between equal sums.
var categoryOrder = []Category{Food, Travel, Groceries, Shopping, Entertainment, Stationary, Others}

// Categories returns all categories in enumeration order.
func Categories() []Category {
	return append([]Category(nil), categoryOrder...)
}

// ParseCategory maps free text to a Category. Unrecognized values map to
// Others; ok reports whether the input was a known category.
func ParseCategory(s string) (c Category, ok bool) {
	c = Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, true
	}
	return Others, false
}

func (c Category) Valid() bool {
	return c.rank() >= 0
}

// Label returns the display name, e.g. "Groceries".
func (c Category) Label() string {
	if !c.Valid() {
		c = Others
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (c Category) rank() int {
	for i, v := range categoryOrder {
		if v == c {
			return i
		}
	}
	return -1
}

// HasNote reports whether the record carries a non-empty note.
func (r Record) HasNote() bool {
	return strings.TrimSpace(r.Note) != ""
}

func (d Draft) Validate() error {
	if !d.Category.Valid() {
		return ErrUnknownCategory
	}
	if d.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if len(d.Note) > 200 {
		return ErrNoteTooLong
	}
	return nil
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"seta/internal/core"
)

const maxBodyBytes = 1 << 16

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names in validation errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// createExpenseRequest is the body of POST /api/expenses. Amount accepts a
// JSON number or a string such as "₹ 1,250".
type createExpenseRequest struct {
	Category string `json:"category" validate:"required,oneof=food travel groceries shopping entertainment stationary others"`
	Amount   any    `json:"amount" validate:"required"`
	Note     string `json:"note" validate:"max=200"`
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"max=50"`
	AvatarRef   string `json:"avatar_ref" validate:"omitempty,max=2048"`
}

// WindowParams holds the window and theme query parameters.
type WindowParams struct {
	Selector core.Selector
	Theme    core.Theme
}

// ParseWindowParams reads ?window= and ?theme=. A missing window means the
// default one; an unknown window is an error.
func ParseWindowParams(query url.Values) (WindowParams, error) {
	p := WindowParams{Selector: core.DefaultSelector, Theme: core.ParseTheme(query.Get("theme"))}
	if v := strings.TrimSpace(query.Get("window")); v != "" {
		sel, err := core.ParseSelector(v)
		if err != nil {
			return p, err
		}
		p.Selector = sel
	}
	return p, nil
}

// decodeJSON decodes a size-limited JSON body into dst and validates it.
// Validation failures are returned as validator.ValidationErrors.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return validate.Struct(dst)
}

// toDraft converts a validated request into a core draft.
func (req createExpenseRequest) toDraft() (core.Draft, map[string]string) {
	amount, err := core.CoerceAmount(req.Amount)
	if err != nil {
		return core.Draft{}, map[string]string{"amount": amountProblem(err)}
	}
	cat, _ := core.ParseCategory(req.Category)
	return core.Draft{Category: cat, Amount: amount, Note: strings.TrimSpace(req.Note)}, nil
}

func amountProblem(err error) string {
	if errors.Is(err, core.ErrNegativeAmount) {
		return "negative"
	}
	return "number"
}

// ProcessValidationErrors maps each failing field to the rule it broke.
func ProcessValidationErrors(err error) (map[string]string, bool) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, false
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Tag()
	}
	return out, true
}

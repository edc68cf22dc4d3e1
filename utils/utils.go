package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var fold = cases.Fold()

// Answer checking utilities
func NormalizeAnswer(answer string) string {
	return fold.String(strings.Join(strings.Fields(answer), " "))
}

func SameAnswer(a, b string) bool {
	return NormalizeAnswer(a) == NormalizeAnswer(b)
}

// Truncate cuts s to at most max runes
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// ValidateStruct runs the validate tags on v and flattens the first failure
// into a message suitable for the client.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email address", field)
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}

// ParseInt converts a query or form value. Empty input yields def.
func ParseInt(value string, def int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	sign, digits := "", value
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if !isDigits(digits) {
		return 0, fmt.Errorf("invalid integer %q", value)
	}
	// cast would read a leading zero as octal
	if digits = strings.TrimLeft(digits, "0"); digits == "" {
		digits = "0"
	}
	n, err := cast.ToIntE(sign + digits)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", value)
	}
	return n, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseBool converts a query or form value. Empty input yields def.
func ParseBool(value string, def bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", value)
	}
	return b, nil
}

// WriteJSON encodes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		LogError("Failed to encode response: %v", err)
	}
}

// WriteError writes {"detail": msg}, the shape the web client reads
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"detail": msg})
}

// Package params decodes and validates the JSON parameters each operation
// reads from standard input.
package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultLimit is the number of entries get-expenses returns when no limit is given.
const DefaultLimit = 20

// ValidationError reports an unknown, missing or malformed parameter.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Object is a decoded JSON object whose keys were checked against the
// operation's recognized parameters.
type Object map[string]json.RawMessage

// Decode reads one JSON object from r and rejects any key outside known.
// Offending keys are reported sorted.
func Decode(r io.Reader, known ...string) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, invalid("Input must be a JSON object")
	}

	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, invalid("Invalid JSON input: %v", err)
	}

	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	var unknown []string
	for k := range obj {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, invalid("Unknown parameters: %s", strings.Join(unknown, ", "))
	}

	return obj, nil
}

// present reports whether key was supplied with a non-null value.
func (o Object) present(key string) bool {
	raw, ok := o[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// String returns the string value of key. Absent and null values yield "".
func (o Object) String(key string) (string, error) {
	if !o.present(key) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(o[key], &s); err != nil {
		return "", invalid("Parameter '%s' must be a string", key)
	}
	return s, nil
}

// RequiredString returns the non-empty string value of key.
func (o Object) RequiredString(key string) (string, error) {
	s, err := o.String(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", invalid("Missing required parameter: %s", key)
	}
	return s, nil
}

// PositiveAmount returns key as a decimal greater than zero. The value must
// be a JSON number.
func (o Object) PositiveAmount(key string) (decimal.Decimal, error) {
	if !o.present(key) {
		return decimal.Zero, invalid("Missing required parameter: %s", key)
	}
	raw := bytes.TrimSpace(o[key])
	if !isNumber(raw) {
		return decimal.Zero, invalid("Parameter '%s' must be a positive number", key)
	}
	amount, err := decimal.NewFromString(string(raw))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, invalid("Parameter '%s' must be a positive number", key)
	}
	return amount, nil
}

// Limit returns key as a positive integer, or fallback when it is absent or
// zero. Integral JSON numbers and numeric strings are accepted.
func (o Object) Limit(key string, fallback int) (int, error) {
	if !o.present(key) {
		return fallback, nil
	}
	raw := bytes.TrimSpace(o[key])
	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, invalid("Parameter '%s' must be a positive integer", key)
		}
		text = strings.TrimSpace(text)
	}

	n, err := decimal.NewFromString(text)
	if err != nil || !n.IsInteger() || n.IsNegative() || n.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, invalid("Parameter '%s' must be a positive integer", key)
	}
	if n.IsZero() {
		return fallback, nil
	}
	return int(n.IntPart()), nil
}

func isNumber(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	if c != '-' && (c < '0' || c > '9') {
		return false
	}
	_, err := strconv.ParseFloat(string(raw), 64)
	return err == nil
}

package validation

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"ttfs/internal/errors"
)

// DefaultCount is how many files a ranking returns when no count is given.
const DefaultCount = 10

type Validator interface {
	Validate() error
}

// DecodeRequest decodes a JSON body into v and validates it.
func DecodeRequest(r *http.Request, v Validator) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.ValidationError("invalid request body", err.Error())
	}
	return v.Validate()
}

// Filename accepts names the console can address: non-empty, no whitespace.
func Filename(name string) error {
	if name == "" {
		return errors.ValidationError("filename is required", nil)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return errors.ValidationError("filename must not contain whitespace", name)
	}
	return nil
}

// Count parses a ranking size. An empty value means DefaultCount.
func Count(raw string) (int, error) {
	if raw == "" {
		return DefaultCount, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.ValidationError("count must be an integer", raw)
	}
	return n, nil
}

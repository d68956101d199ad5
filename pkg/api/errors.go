package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Error is a non-2xx answer from the registry.
type Error struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// errorBody is the registry's error envelope. Detail is a string for
// handled errors and a list for request validation failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func newError(method, path string, status int, body errorBody, raw []byte) *Error {
	e := &Error{StatusCode: status, Method: method, Path: path}

	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			e.Detail = detail
		} else {
			e.Detail = string(body.Detail)
		}
		return e
	}

	e.Detail = truncate(strings.TrimSpace(string(raw)), maxRawDetail)
	return e
}

// maxRawDetail bounds the bytes kept from a body that is not the JSON
// envelope, such as a proxy's HTML error page.
const maxRawDetail = 200

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func decodeErrorBody(raw []byte) errorBody {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	return body
}

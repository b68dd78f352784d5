package invoke

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// errorPayload is the string-safe form of an error crossing a boundary.
type errorPayload struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
}

// SerializeError returns a JSON representation of err. Live error values
// never leave the engine; responses carry this string instead.
func SerializeError(err error) string {
	if err == nil {
		return "null"
	}
	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	b, merr := codec.Marshal(errorPayload{
		ErrorType:    fmt.Sprintf("%T", root),
		ErrorMessage: err.Error(),
	})
	if merr != nil {
		return fmt.Sprintf(`{"errorMessage":%q}`, err.Error())
	}
	return string(b)
}

// Marshal encodes a handler result for a response body. Strings are used
// verbatim; everything else is JSON encoded.
func Marshal(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	}
	b, err := codec.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsResponseShaped reports whether v already looks like an HTTP-style
// response: a numeric statusField and a string "body". Handlers return such
// values to opt out of automatic wrapping.
func IsResponseShaped(v any, statusField string) bool {
	if v == nil {
		return false
	}
	var raw []byte
	switch t := v.(type) {
	case Value:
		raw = t.Raw()
	default:
		b, err := codec.Marshal(v)
		if err != nil {
			return false
		}
		raw = b
	}
	if !gjson.ValidBytes(raw) {
		return false
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return false
	}
	return r.Get(statusField).Type == gjson.Number && r.Get("body").Type == gjson.String
}

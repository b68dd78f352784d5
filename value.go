package invoke

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

// codec matches encoding/json output byte for byte.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

type valueState uint8

const (
	stateUndefined valueState = iota
	stateJSON
	stateNative
)

// Value is the result of a property lookup. A Value is either undefined
// (the lookup found nothing), a JSON value read out of an envelope, or a
// native Go value such as an injected service instance.
//
// The zero Value is undefined.
type Value struct {
	res    gjson.Result
	native any
	state  valueState
}

// Undefined returns the absent marker.
func Undefined() Value {
	return Value{}
}

// Of wraps a native Go value. Of(nil) is defined and holds nil.
func Of(v any) Value {
	return Value{native: v, state: stateNative}
}

// JSON wraps raw JSON. Invalid or empty input yields Undefined.
func JSON(raw []byte) Value {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return Undefined()
	}
	return fromResult(gjson.ParseBytes(raw))
}

func fromResult(r gjson.Result) Value {
	if !r.Exists() {
		return Undefined()
	}
	return Value{res: r, state: stateJSON}
}

// Defined reports whether the lookup produced a value. JSON null is defined.
func (v Value) Defined() bool {
	return v.state != stateUndefined
}

// Get reads a dotted path below v. Numeric segments index arrays. An empty
// path returns v itself. Get never panics: missing segments, reads through
// scalars and undefined holders all yield Undefined.
func (v Value) Get(path string) Value {
	if path == "" {
		return v
	}
	j := v.asJSON()
	if j.state != stateJSON {
		return Undefined()
	}
	return fromResult(j.res.Get(escapePath(path)))
}

// Expand turns a JSON-encoded string holding an object or array into the
// structured value it encodes. Gateways deliver request bodies this way.
// Any other value is returned unchanged.
func (v Value) Expand() Value {
	if v.state != stateJSON || v.res.Type != gjson.String {
		return v
	}
	s := v.res.Str
	if !gjson.Valid(s) {
		return v
	}
	p := gjson.Parse(s)
	if !p.IsObject() && !p.IsArray() {
		return v
	}
	return fromResult(p)
}

// Interface returns the value as plain Go data. JSON objects decode to
// map[string]any and numbers to float64.
func (v Value) Interface() any {
	switch v.state {
	case stateJSON:
		return v.res.Value()
	case stateNative:
		return v.native
	}
	return nil
}

// String returns the string form of the value. Undefined yields "".
func (v Value) String() string {
	switch v.state {
	case stateJSON:
		return v.res.String()
	case stateNative:
		if s, ok := v.native.(string); ok {
			return s
		}
		return string(v.Raw())
	}
	return ""
}

// Raw returns the JSON encoding of the value, or nil if it is undefined or
// cannot be encoded.
func (v Value) Raw() []byte {
	switch v.state {
	case stateJSON:
		return []byte(v.res.Raw)
	case stateNative:
		b, err := codec.Marshal(v.native)
		if err != nil {
			return nil
		}
		return b
	}
	return nil
}

// Decode unmarshals the value into dst. Decoding an undefined value leaves
// dst untouched.
func (v Value) Decode(dst any) error {
	if !v.Defined() {
		return nil
	}
	if v.state == stateNative {
		b, err := codec.Marshal(v.native)
		if err != nil {
			return err
		}
		return codec.Unmarshal(b, dst)
	}
	return codec.Unmarshal([]byte(v.res.Raw), dst)
}

// IsObject reports whether the value is a JSON object.
func (v Value) IsObject() bool {
	j := v.asJSON()
	return j.state == stateJSON && j.res.IsObject()
}

// MarshalJSON encodes undefined as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Defined() {
		return []byte("null"), nil
	}
	if v.state == stateNative {
		return codec.Marshal(v.native)
	}
	return []byte(v.res.Raw), nil
}

func (v Value) asJSON() Value {
	if v.state != stateNative {
		return v
	}
	return JSON(v.Raw())
}

// pathSyntax lists the characters gjson treats as path operators.
const pathSyntax = `*?#@|\!`

// escapePath makes every path character literal except the dot separator.
func escapePath(path string) string {
	if !strings.ContainsAny(path, pathSyntax) {
		return path
	}
	var b strings.Builder
	for _, r := range path {
		if strings.ContainsRune(pathSyntax, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

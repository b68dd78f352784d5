package invoke

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSerializeError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		got := SerializeError(errors.New("boom"))

		require.True(t, gjson.Valid(got))
		assert.Equal(t, "boom", gjson.Get(got, "errorMessage").String())
		assert.Equal(t, "*errors.errorString", gjson.Get(got, "errorType").String())
	})

	t.Run("wrapped error reports root type and full message", func(t *testing.T) {
		got := SerializeError(fmt.Errorf("load user: %w", &ConfigurationError{Key: "K"}))

		assert.Equal(t, "*invoke.ConfigurationError", gjson.Get(got, "errorType").String())
		assert.Equal(t, "load user: configuration: K is required", gjson.Get(got, "errorMessage").String())
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "null", SerializeError(nil))
	})
}

func TestMarshal(t *testing.T) {
	tests := map[string]struct {
		in   any
		want string
	}{
		"nil":    {nil, ""},
		"string": {"ok", "ok"},
		"bytes":  {[]byte("raw"), "raw"},
		"map":    {map[string]any{"value": 42}, `{"value":42}`},
		"slice":  {[]int{1, 2}, `[1,2]`},
		"value":  {JSON([]byte(`{"a":1}`)), `{"a":1}`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsResponseShaped(t *testing.T) {
	tests := map[string]struct {
		in    any
		field string
		want  bool
	}{
		"status code and body":  {map[string]any{"statusCode": 201, "body": "ok"}, "statusCode", true},
		"wrong status field":    {map[string]any{"statusCode": 201, "body": "ok"}, "status", false},
		"string status":         {map[string]any{"statusCode": "201", "body": "ok"}, "statusCode", false},
		"object body":           {map[string]any{"statusCode": 201, "body": map[string]any{}}, "statusCode", false},
		"no body":               {map[string]any{"statusCode": 201}, "statusCode", false},
		"plain value":           {map[string]any{"value": 42}, "statusCode", false},
		"scalar":                {42, "statusCode", false},
		"nil":                   {nil, "statusCode", false},
		"value holding shape":   {JSON([]byte(`{"status": 204, "body": ""}`)), "status", true},
		"struct with json tags": {struct {
			Status int    `json:"status"`
			Body   string `json:"body"`
		}{200, "x"}, "status", true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsResponseShaped(tt.in, tt.field))
		})
	}
}

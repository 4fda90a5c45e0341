// internal/browser/js.go
package browser

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"
)

// JSValue renders v as a JavaScript literal for embedding in script source.
func JSValue(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `null`
	}
	return string(b)
}

// Decode unmarshals a script result into v.
func Decode(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		raw = []byte("null")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding script result: %w", err)
	}
	return nil
}

// CallAs runs fn on el and decodes its result as T.
func CallAs[T any](ctx context.Context, el Element, fn string) (T, error) {
	var out T
	raw, err := el.Call(ctx, fn)
	if err != nil {
		return out, err
	}
	err = Decode(raw, &out)
	return out, err
}

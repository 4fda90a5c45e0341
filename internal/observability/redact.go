// File: internal/observability/redact.go
package observability

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap/zapcore"
)

// RedactionMask replaces every occurrence of a secret in log output.
const RedactionMask = "***"

// redactingCore scrubs secrets out of messages and fields before they reach
// the wrapped core. Structured fields that render a secret are replaced by
// their scrubbed JSON text.
type redactingCore struct {
	zapcore.Core
	replacer *strings.Replacer
}

// NewRedactingCore wraps core so that every secret in secrets is replaced with
// RedactionMask. Empty secrets are ignored; with none left the core is
// returned unchanged.
func NewRedactingCore(core zapcore.Core, secrets []string) zapcore.Core {
	var pairs []string
	for _, s := range secrets {
		if s == "" {
			continue
		}
		pairs = append(pairs, s, RedactionMask)
	}
	if len(pairs) == 0 {
		return core
	}
	return &redactingCore{Core: core, replacer: strings.NewReplacer(pairs...)}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.scrubFields(fields)), replacer: c.replacer}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = c.replacer.Replace(ent.Message)
	ent.Stack = c.replacer.Replace(ent.Stack)
	return c.Core.Write(ent, c.scrubFields(fields))
}

func (c *redactingCore) scrubFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case zapcore.StringType:
			f.String = c.replacer.Replace(f.String)
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok && err != nil {
				f = zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: c.replacer.Replace(err.Error())}
			}
		case zapcore.StringerType:
			if s, ok := f.Interface.(interface{ String() string }); ok && s != nil {
				f = zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: c.replacer.Replace(s.String())}
			}
		case zapcore.ByteStringType, zapcore.BinaryType:
			if b, ok := f.Interface.([]byte); ok {
				if scrubbed := c.replacer.Replace(string(b)); scrubbed != string(b) {
					f = zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: scrubbed}
				}
			}
		case zapcore.ReflectType, zapcore.ArrayMarshalerType, zapcore.ObjectMarshalerType, zapcore.InlineMarshalerType:
			f = c.scrubRendered(f)
		}
		out[i] = f
	}
	return out
}

// scrubRendered encodes f on its own and swaps it for a string field when
// the rendering holds a secret.
func (c *redactingCore) scrubRendered(f zapcore.Field) zapcore.Field {
	enc := zapcore.NewMapObjectEncoder()
	f.AddTo(enc)

	var value interface{} = enc.Fields
	if v, ok := enc.Fields[f.Key]; ok && f.Type != zapcore.InlineMarshalerType {
		value = v
	}
	raw, err := json.ConfigCompatibleWithStandardLibrary.MarshalToString(value)
	if err != nil {
		raw = fmt.Sprint(value)
	}
	scrubbed := c.replacer.Replace(raw)
	if scrubbed == raw {
		return f
	}
	return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: scrubbed}
}

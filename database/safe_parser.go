package database

import (
	"strings"

	"github.com/tidwall/gjson"
)

// corruptedObjectSentinel is what a JS front end writes when an object was
// accidentally stringified with toString(). It shows up in historical rows
// and must be treated as corrupted, not as data.
const corruptedObjectSentinel = "[object Object]"

// ParseMaybeJSON decodes a possibly-serialized column value. It is total:
// for any input it either returns a valid parsed result or ok=false, and it
// never panics. Empty payloads, the corrupted-object sentinel, malformed
// text, JSON null and the empty object all count as absent.
func ParseMaybeJSON(value string) (gjson.Result, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return gjson.Result{}, false
	}
	if trimmed == corruptedObjectSentinel {
		return gjson.Result{}, false
	}
	if !gjson.Valid(trimmed) {
		return gjson.Result{}, false
	}

	parsed := gjson.Parse(trimmed)

	// A double-encoded payload ("\"{...}\"") unwraps one level.
	if parsed.Type == gjson.String {
		return ParseMaybeJSON(parsed.String())
	}

	if parsed.Type == gjson.Null {
		return gjson.Result{}, false
	}
	if parsed.IsObject() && len(parsed.Map()) == 0 {
		return gjson.Result{}, false
	}
	return parsed, true
}

// ParseJSONArray returns the raw JSON of value only if it decodes to a
// non-empty array; anything else is discarded.
func ParseJSONArray(value string) (string, bool) {
	parsed, ok := ParseMaybeJSON(value)
	if !ok || !parsed.IsArray() {
		return "", false
	}
	if len(parsed.Array()) == 0 {
		return "", false
	}
	return parsed.Raw, true
}

// ParseJSONObject returns the raw JSON of value only if it decodes to an
// object.
func ParseJSONObject(value string) (string, bool) {
	parsed, ok := ParseMaybeJSON(value)
	if !ok || !parsed.IsObject() {
		return "", false
	}
	return parsed.Raw, true
}

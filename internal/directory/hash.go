package directory

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// HashRow computes a deterministic SHA-256 fingerprint of one raw upstream
// record. The record is re-serialised canonically before hashing: object keys
// sorted lexicographically at every nesting level, arrays kept in original
// order, numbers in their literal textual form and null as the literal null.
// Two structurally equal records therefore hash identically regardless of key
// order. The fingerprint is stored alongside each cache row as a change
// marker; it is never used as a lookup key.
func HashRow(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return "", fmt.Errorf("directory: decode row for hashing: %w", err)
	}

	var b strings.Builder
	if err := writeCanonical(&b, value); err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}

func writeCanonical(b *strings.Builder, v any) error {
	switch value := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(value))
	case json.Number:
		b.WriteString(value.String())
	case string:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("directory: canonicalise string: %w", err)
		}
		b.Write(encoded)
	case []any:
		b.WriteByte('[')
		for i, elem := range value {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCanonical(b, elem); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return fmt.Errorf("directory: canonicalise key: %w", err)
			}
			b.Write(encodedKey)
			b.WriteByte(':')
			if err := writeCanonical(b, value[key]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("directory: unsupported value %T in row", v)
	}

	return nil
}

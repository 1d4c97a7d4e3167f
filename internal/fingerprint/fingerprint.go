// Package fingerprint produces deterministic, order-independent hashes of
// arbitrary values, used to build the Query Key pair  that keys
// the Result Cache and Embedding Cache.
package fingerprint

import (
	"encoding/hex"
	"encoding/json"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Of hashes v's canonical JSON form with blake2b-256 and returns the
// hex-encoded digest. Two values that are struct-field-order or
// map-key-order permutations of each other produce the same fingerprint,
// since canonicalize re-marshals through a sorted-key representation before
// hashing.
func Of(v any) (string, error) {
	canonical, err := canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// MustOf is Of, panicking on error. Reserved for values whose JSON
// marshaling cannot fail (plain structs with no custom MarshalJSON).
func MustOf(v any) string {
	fp, err := Of(v)
	if err != nil {
		panic(err)
	}
	return fp
}

// canonicalize round-trips v through json.Marshal/Unmarshal into a
// generic any tree, then re-marshals with sorted map keys (the default
// behavior of encoding/json for map[string]any), yielding a byte-stable
// representation regardless of the original struct's field order.
func canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v any) ([]byte, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			out = append(out, kb...)
			out = append(out, ':')
			vb, err := marshalSorted(t[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		out = append(out, '}')
		return out, nil
	case []any:
		out := []byte{'['}
		for i, item := range t {
			if i > 0 {
				out = append(out, ',')
			}
			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ib...)
		}
		out = append(out, ']')
		return out, nil
	default:
		return json.Marshal(t)
	}
}

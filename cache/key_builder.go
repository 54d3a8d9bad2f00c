package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator delimits the segments of a storage key.
const KeySeparator = "::"

// ReservedPrefix marks storage keys created by this module. Bulk clear
// removes all and only keys carrying this prefix, so unrelated state held in
// the same backend survives.
const ReservedPrefix = "__callcache"

// maxKeyLen bounds storage key length. Longer keys are shortened with an
// xxhash digest; some backends reject or truncate long keys, which would
// break prefix-based invalidation.
const maxKeyLen = 256

// KeyFunc derives the argument hash segment of a cache key from the call's
// arguments. Implementations must be deterministic: every caller that should
// coalesce on the same key must produce the same string. A KeyFunc error
// aborts the call before any cache or in-flight state is touched.
type KeyFunc func(args ...any) (string, error)

// KeyBuilder builds a full storage key from an operation name and arguments.
// Implementations must be pure: same inputs, same key.
type KeyBuilder interface {
	BuildKey(op string, args ...any) (string, error)
}

// defaultKeyBuilder derives the argument hash from the first argument's
// exported fields, or delegates to a user-supplied KeyFunc.
type defaultKeyBuilder struct {
	keyFn KeyFunc
}

// NewKeyBuilder creates a key builder that uses keyFn for argument hashing.
// A nil keyFn selects field-based derivation from the first argument.
func NewKeyBuilder(keyFn KeyFunc) KeyBuilder {
	return &defaultKeyBuilder{keyFn: keyFn}
}

// NewDefaultKeyBuilder creates a key builder using field-based derivation.
func NewDefaultKeyBuilder() KeyBuilder {
	return NewKeyBuilder(nil)
}

// BuildKey assembles ReservedPrefix :: op :: hash, where hash comes from the
// KeyFunc if one is configured, else from the first argument's exported
// fields joined by "_", else is empty (the operation caches in a single
// slot, independent of arguments). Whitespace runs inside the hash collapse
// to a single underscore.
func (b *defaultKeyBuilder) BuildKey(op string, args ...any) (string, error) {
	hash, err := b.hashArgs(args...)
	if err != nil {
		return "", err
	}
	return StorageKey(op, hash), nil
}

func (b *defaultKeyBuilder) hashArgs(args ...any) (string, error) {
	if b.keyFn != nil {
		s, err := b.keyFn(args...)
		if err != nil {
			return "", err
		}
		return collapseWhitespace(s), nil
	}
	if len(args) == 0 {
		return "", nil
	}
	return collapseWhitespace(deriveHash(args[0])), nil
}

// StorageKey joins the reserved prefix, the normalized operation name, and
// the argument hash. Keys exceeding maxKeyLen are shortened by replacing the
// hash segment with its xxhash digest.
func StorageKey(op, hash string) string {
	key := ReservedPrefix + KeySeparator + NormalizeOp(op)
	if hash != "" {
		key += KeySeparator + hash
	}
	if len(key) > maxKeyLen {
		key = ReservedPrefix + KeySeparator + NormalizeOp(op) +
			KeySeparator + "x" + strconv.FormatUint(xxhash.Sum64String(hash), 16)
	}
	return key
}

// NormalizeOp lowercases an operation name and maps every non-alphanumeric
// run to a single underscore, so reflected method names and free-form
// registration ids produce keys safe for prefix matching.
func NormalizeOp(op string) string {
	var b strings.Builder
	b.Grow(len(op))
	pendingSep := false
	for _, r := range op {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// collapseWhitespace maps every internal whitespace run to one underscore
// and trims the edges.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

// deriveHash turns the first call argument into a hash string. Structs
// contribute their exported fields in declaration order, joined by "_";
// anything else contributes its serialized value directly.
func deriveHash(arg any) string {
	if arg == nil {
		return "nil"
	}

	rv := reflect.ValueOf(arg)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "nil"
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		rt := rv.Type()
		parts := make([]string, 0, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			parts = append(parts, serializeValue(rv.Field(i).Interface()))
		}
		return strings.Join(parts, "_")
	}
	return serializeValue(rv.Interface())
}

// serializeValue renders a single value deterministically. It mirrors the
// rules the key derivation relies on: pointers dereference, collections
// recurse, maps sort their keys, funcs and channels fall back to identity.
func serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return serializeValue(rv.Elem().Interface())

	case reflect.Func, reflect.Chan:
		// Identity only; stable within a single process lifetime.
		return fmt.Sprintf("%s@%p", rv.Kind(), v)

	case reflect.Slice:
		if rv.IsNil() {
			return "nil"
		}
		fallthrough
	case reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = serializeValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ",") + "]"

	case reflect.Map:
		if rv.IsNil() {
			return "nil"
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs,
				serializeValue(iter.Key().Interface())+"="+serializeValue(iter.Value().Interface()))
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ",") + "}"

	case reflect.Struct:
		rt := rv.Type()
		parts := make([]string, 0, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				continue
			}
			parts = append(parts, rt.Field(i).Name+":"+serializeValue(rv.Field(i).Interface()))
		}
		return "(" + strings.Join(parts, ",") + ")"

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return fmt.Sprintf("%v", v)

	default:
		return jsonFallback(v)
	}
}

// jsonFallback keeps key generation total: values that defeat the rules
// above still produce a stable string instead of panicking.
func jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "opaque:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}

package cache

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/goliatone/go-call-cache/pkg/testsupport"
)

type getUserParams struct {
	ID     string
	Region string
	note   string // unexported, must not contribute
}

func TestBuildKey_DerivesFromFirstArgumentFields(t *testing.T) {
	kb := NewDefaultKeyBuilder()

	key, err := kb.BuildKey("GetUser", getUserParams{ID: "42", Region: "eu", note: "x"})
	if err != nil {
		t.Fatal(err)
	}
	want := ReservedPrefix + KeySeparator + "getuser" + KeySeparator + "42_eu"
	if key != want {
		t.Fatalf("got %q, want %q", key, want)
	}
}

func TestBuildKey_CollapsesWhitespaceInFieldValues(t *testing.T) {
	kb := NewDefaultKeyBuilder()

	key, err := kb.BuildKey("GetUser", getUserParams{ID: "john  doe", Region: "us east"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(key, KeySeparator+"john_doe_us_east") {
		t.Fatalf("expected collapsed whitespace, got %q", key)
	}
}

func TestBuildKey_NoArgsYieldsSingleSlotKey(t *testing.T) {
	kb := NewDefaultKeyBuilder()

	key, err := kb.BuildKey("ListAll")
	if err != nil {
		t.Fatal(err)
	}
	want := ReservedPrefix + KeySeparator + "listall"
	if key != want {
		t.Fatalf("got %q, want %q", key, want)
	}
}

func TestBuildKey_SameInputsSameKey(t *testing.T) {
	kb := NewDefaultKeyBuilder()

	a, _ := kb.BuildKey("GetUser", getUserParams{ID: "1"})
	b, _ := kb.BuildKey("GetUser", getUserParams{ID: "1"})
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}

	c, _ := kb.BuildKey("GetUser", getUserParams{ID: "2"})
	if a == c {
		t.Fatal("expected distinct arguments to produce distinct keys")
	}
}

func TestBuildKey_KeyFuncFixtureCases(t *testing.T) {
	var cases []struct {
		Name   string `json:"name"`
		Op     string `json:"op"`
		Result string `json:"result"`
		Want   string `json:"want"`
	}
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("keyfn_cases.json"), &cases)

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			kb := NewKeyBuilder(func(args ...any) (string, error) {
				return tc.Result, nil
			})
			key, err := kb.BuildKey(tc.Op)
			if err != nil {
				t.Fatal(err)
			}
			if key != tc.Want {
				t.Errorf("got %q, want %q", key, tc.Want)
			}
		})
	}
}

func TestBuildKey_KeyFuncReceivesArguments(t *testing.T) {
	kb := NewKeyBuilder(func(args ...any) (string, error) {
		if len(args) != 2 {
			return "", fmt.Errorf("got %d args, want 2", len(args))
		}
		return fmt.Sprintf("%v-%v", args[0], args[1]), nil
	})

	key, err := kb.BuildKey("Pair", "a", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(key, KeySeparator+"a-1") {
		t.Fatalf("expected key from both args, got %q", key)
	}
}

func TestBuildKey_KeyFuncErrorPropagates(t *testing.T) {
	errHash := errors.New("bad hash input")
	kb := NewKeyBuilder(func(args ...any) (string, error) {
		return "", errHash
	})

	_, err := kb.BuildKey("GetUser", getUserParams{ID: "1"})
	if !errors.Is(err, errHash) {
		t.Fatalf("expected hash error to propagate, got %v", err)
	}
}

func TestBuildKey_NonStructFirstArgument(t *testing.T) {
	kb := NewDefaultKeyBuilder()

	tests := []struct {
		name string
		arg  any
		want string
	}{
		{"string", "abc", "abc"},
		{"int", 42, "42"},
		{"nil", nil, "nil"},
		{"pointer to struct", &getUserParams{ID: "9"}, "9_"},
		{"slice", []int{1, 2}, "[1,2]"},
		{"map", map[string]int{"b": 2, "a": 1}, "{a=1,b=2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := kb.BuildKey("Op", tt.arg)
			if err != nil {
				t.Fatal(err)
			}
			want := ReservedPrefix + KeySeparator + "op" + KeySeparator + tt.want
			if key != want {
				t.Errorf("got %q, want %q", key, want)
			}
		})
	}
}

func TestStorageKey_LongKeysAreDigested(t *testing.T) {
	longHash := strings.Repeat("a", 500)
	key := StorageKey("GetUser", longHash)

	if len(key) > maxKeyLen {
		t.Fatalf("expected digested key under %d chars, got %d", maxKeyLen, len(key))
	}
	if !strings.HasPrefix(key, ReservedPrefix+KeySeparator+"getuser"+KeySeparator+"x") {
		t.Fatalf("expected digest segment, got %q", key)
	}

	// The digest must still be deterministic and collision-averse.
	if key != StorageKey("GetUser", longHash) {
		t.Fatal("expected stable digested key")
	}
	if key == StorageKey("GetUser", strings.Repeat("b", 500)) {
		t.Fatal("expected different long hashes to digest differently")
	}
}

func TestNormalizeOp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GetByID", "getbyid"},
		{"get user", "get_user"},
		{"Get::User", "get_user"},
		{"  spaced  ", "spaced"},
		{"v2Lookup", "v2lookup"},
	}
	for _, tt := range tests {
		if got := NormalizeOp(tt.in); got != tt.want {
			t.Errorf("NormalizeOp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package core

import (
	"testing"

	"github.com/JonMunkholm/csvcast/internal/field"
)

func TestCategoryCodes(t *testing.T) {
	buf := []byte("red\r\n\n \"red\" \nblue")
	codes := CategoryCodes(buf, field.DefaultParseOptions())

	if len(codes) != 3 {
		t.Fatalf("CategoryCodes() = %v, want 3 codes", codes)
	}
	wantValues := []string{"red", "red", "blue"}
	for i, w := range wantValues {
		if codes[i].Value != w {
			t.Errorf("code %d value = %q, want %q", i, codes[i].Value, w)
		}
	}
	if codes[0].Code != codes[1].Code {
		t.Errorf("red codes differ: %#08x vs %#08x", codes[0].Code, codes[1].Code)
	}

	r := field.Range{Start: 0, End: 3}
	if want := field.ParseCategory([]byte("blue"), r); codes[2].Code != want {
		t.Errorf("blue code = %#08x, want %#08x", codes[2].Code, want)
	}
}

func TestCategoryCodes_Empty(t *testing.T) {
	if got := CategoryCodes(nil, field.DefaultParseOptions()); len(got) != 0 {
		t.Errorf("CategoryCodes(nil) = %v, want none", got)
	}
}

package util

import (
	"encoding/json"
	"testing"
)

func TestCoerceInt(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int
	}{
		{nil, 0},
		{float64(42), 42},
		{int(7), 7},
		{int64(9), 9},
		{"15", 15},
		{"abc", 0},
		{json.Number("33"), 33},
		{true, 0},
		{map[string]interface{}{}, 0},
	}
	for _, c := range cases {
		if got := CoerceInt(c.in); got != c.want {
			t.Errorf("CoerceInt(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestCoerceFloatDefault(t *testing.T) {
	if got := CoerceFloat(nil, 100.0); got != 100.0 {
		t.Fatalf("expected default 100.0, got %v", got)
	}
	if got := CoerceFloat("12.5", 0); got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
	if got := CoerceFloat([]string{"x"}, 1.5); got != 1.5 {
		t.Fatalf("expected default for non-numeric, got %v", got)
	}
}

func TestCoerceString(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{"j-42", "j-42"},
		{float64(123), "123"},
		{float64(12.5), "12.5"},
		{int(7), "7"},
		{int64(9), "9"},
		{json.Number("33"), "33"},
		{nil, ""},
		{true, ""},
	}
	for _, c := range cases {
		if got := CoerceString(c.in); got != c.want {
			t.Errorf("CoerceString(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2024-03-08")
	if !ok {
		t.Fatalf("expected ok")
	}
	if d.Format(DateLayout) != "2024-03-08" {
		t.Fatalf("unexpected date %v", d)
	}
	if _, ok := ParseDate("08.03.2024"); ok {
		t.Fatalf("expected mismatch for non YYYY-MM-DD input")
	}
	if _, ok := ParseDate(""); ok {
		t.Fatalf("expected failure for empty input")
	}
}

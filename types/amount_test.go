package types

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestWad(t *testing.T) {
	tests := []struct {
		name   string
		tokens int64
		want   string
	}{
		{"zero", 0, "0"},
		{"one token", 1, "1000000000000000000"},
		{"hundred thousand", 100000, "100000000000000000000000"},
		{"negative", -5, "-5000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wad(tt.tokens).String(); got != tt.want {
				t.Errorf("Wad(%d) = %s, want %s", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := Wad(10)
	b := Wad(3)

	if got := a.Add(b); !got.Equal(Wad(13)) {
		t.Errorf("Add: got %s, want %s", got, Wad(13))
	}
	if got := a.Sub(b); !got.Equal(Wad(7)) {
		t.Errorf("Sub: got %s, want %s", got, Wad(7))
	}
	if got := b.Sub(a); !got.Equal(Wad(-7)) {
		t.Errorf("Sub negative: got %s, want %s", got, Wad(-7))
	}
	if got := a.Min(b); !got.Equal(b) {
		t.Errorf("Min: got %s, want %s", got, b)
	}
	if got := a.Max(b); !got.Equal(a) {
		t.Errorf("Max: got %s, want %s", got, a)
	}
	if got := Wad(-7).Abs(); !got.Equal(Wad(7)) {
		t.Errorf("Abs: got %s, want %s", got, Wad(7))
	}
}

func TestAmountImmutability(t *testing.T) {
	a := Wad(10)
	_ = a.Add(Wad(5))
	_ = a.Neg()
	_ = a.MulDiv(997, 1000)

	if !a.Equal(Wad(10)) {
		t.Errorf("operations mutated receiver: got %s", a)
	}
}

func TestAmountMulDiv(t *testing.T) {
	// 0.3% protocol fee leaves 997/1000 of the input.
	fee := Wad(1000).MulDiv(997, 1000)
	if !fee.Equal(Wad(997)) {
		t.Errorf("MulDiv(997, 1000) = %s, want %s", fee, Wad(997))
	}

	// Truncating division.
	got := FromUnits(10).MulDiv(1, 3)
	if !got.Equal(FromUnits(3)) {
		t.Errorf("MulDiv(1, 3) = %s, want 3", got)
	}
}

func TestAmountZeroValue(t *testing.T) {
	var a Amount
	if !a.IsZero() {
		t.Error("zero value should be zero")
	}
	if got := a.Add(Wad(1)); !got.Equal(Wad(1)) {
		t.Errorf("zero value Add: got %s", got)
	}
	if a.String() != "0" {
		t.Errorf("zero value String: got %s", a.String())
	}
}

func TestAmountComparisons(t *testing.T) {
	tests := []struct {
		name string
		a, b Amount
		cmp  int
	}{
		{"less", Wad(1), Wad(2), -1},
		{"equal", Wad(5), Wad(5), 0},
		{"greater", Wad(9), Wad(2), 1},
		{"negative vs zero", Wad(-1), Amount{}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cmp(tt.b); got != tt.cmp {
				t.Errorf("Cmp = %d, want %d", got, tt.cmp)
			}
			if got := tt.a.LessThan(tt.b); got != (tt.cmp < 0) {
				t.Errorf("LessThan = %v", got)
			}
			if got := tt.a.GreaterThan(tt.b); got != (tt.cmp > 0) {
				t.Errorf("GreaterThan = %v", got)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount("100000000000000000000000")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	if !a.Equal(Wad(100000)) {
		t.Errorf("parsed %s, want %s", a, Wad(100000))
	}

	if _, err := ParseAmount("not-a-number"); err == nil {
		t.Error("expected error for invalid input")
	}

	empty, err := ParseAmount("")
	if err != nil || !empty.IsZero() {
		t.Errorf("empty string should parse to zero, got %s, %v", empty, err)
	}
}

func TestAmountJSON(t *testing.T) {
	a := Wad(42)
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"42000000000000000000"` {
		t.Errorf("Marshal = %s", data)
	}

	var back Amount
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Equal(a) {
		t.Errorf("roundtrip: got %s, want %s", back, a)
	}
}

func TestAmountScan(t *testing.T) {
	var a Amount
	if err := a.Scan("7000000000000000000"); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if !a.Equal(Wad(7)) {
		t.Errorf("Scan string: got %s", a)
	}

	if err := a.Scan([]byte("-3")); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if !a.Equal(FromUnits(-3)) {
		t.Errorf("Scan bytes: got %s", a)
	}

	if err := a.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if !a.IsZero() {
		t.Errorf("Scan nil: got %s", a)
	}

	if err := a.Scan(3.14); err == nil {
		t.Error("expected error scanning float64")
	}
}

func TestFromBigCopies(t *testing.T) {
	v := big.NewInt(100)
	a := FromBig(v)
	v.SetInt64(999)
	if !a.Equal(FromUnits(100)) {
		t.Errorf("FromBig aliased its input: got %s", a)
	}
}

func TestSumAmounts(t *testing.T) {
	got := SumAmounts(Wad(1), Wad(2), Wad(3))
	if !got.Equal(Wad(6)) {
		t.Errorf("SumAmounts = %s, want %s", got, Wad(6))
	}
	if !SumAmounts().IsZero() {
		t.Error("empty sum should be zero")
	}
}

package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/treasury/id"
)

func TestNewClaimID(t *testing.T) {
	i := id.NewClaimID()
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixClaim {
		t.Errorf("expected prefix %q, got %q", id.PrefixClaim, i.Prefix())
	}
	if !strings.HasPrefix(i.String(), "clm_") {
		t.Errorf("expected clm_ prefix, got %q", i.String())
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewClaimID()
	parsed, err := id.ParseClaimID(original.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestCrossPrefixRejection(t *testing.T) {
	foreign := id.New("plan")
	if _, err := id.ParseClaimID(foreign.String()); err == nil {
		t.Errorf("expected error for cross-prefix parse of %q, got nil", foreign.String())
	}
}

func TestParseAny(t *testing.T) {
	i := id.NewClaimID()
	parsed, err := id.ParseAny(i.String())
	if err != nil {
		t.Fatalf("ParseAny(%q) failed: %v", i.String(), err)
	}
	if parsed.String() != i.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), i.String())
	}
}

func TestParseWithPrefix(t *testing.T) {
	i := id.NewClaimID()
	parsed, err := id.ParseWithPrefix(i.String(), id.PrefixClaim)
	if err != nil {
		t.Fatalf("ParseWithPrefix failed: %v", err)
	}
	if parsed.String() != i.String() {
		t.Errorf("mismatch: %q != %q", parsed.String(), i.String())
	}

	_, err = id.ParseWithPrefix(i.String(), "plan")
	if err == nil {
		t.Error("expected error for wrong prefix")
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	if err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewClaimID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if unmarshalErr := restored.UnmarshalText(data); unmarshalErr != nil {
		t.Fatalf("UnmarshalText failed: %v", unmarshalErr)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	data, err = nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText(nil) failed: %v", err)
	}
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewClaimID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	// Nil round-trip.
	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !scanned2.IsNil() {
		t.Error("expected nil after scan of nil")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewClaimID()
	b := id.NewClaimID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewClaimID() calls returned the same ID: %q", a.String())
	}
}

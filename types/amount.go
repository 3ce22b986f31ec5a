// Package types provides common types used across Treasury.
package types

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

var wadUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Amount represents a token quantity in the asset's smallest unit (wad,
// 18 decimals). All arithmetic is integer-only — no floating point.
// Values are arbitrary precision: an 18-decimal token balance does not
// fit in int64.
//
// Amount is immutable. Every operation returns a new value; the zero
// value is a valid zero amount.
type Amount struct {
	v *big.Int
}

// Wad creates an Amount of whole tokens (tokens * 10^18).
func Wad(tokens int64) Amount {
	return Amount{v: new(big.Int).Mul(big.NewInt(tokens), wadUnit)}
}

// FromUnits creates an Amount from a raw smallest-unit count.
func FromUnits(units int64) Amount {
	return Amount{v: big.NewInt(units)}
}

// FromBig creates an Amount from a big.Int, copying the value.
func FromBig(v *big.Int) Amount {
	if v == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(v)}
}

// ParseAmount parses a base-10 integer string into an Amount.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("types: invalid amount %q", s)
	}
	return Amount{v: v}, nil
}

// MustAmount parses a base-10 integer string, panicking on failure.
// Intended for constants and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// big returns the underlying value for read-only use.
func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// BigInt returns a copy of the underlying value.
func (a Amount) BigInt() *big.Int {
	return new(big.Int).Set(a.big())
}

// Arithmetic operations

// Add returns a + other.
func (a Amount) Add(other Amount) Amount {
	return Amount{v: new(big.Int).Add(a.big(), other.big())}
}

// Sub returns a - other.
func (a Amount) Sub(other Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.big(), other.big())}
}

// Neg returns the negative of the amount.
func (a Amount) Neg() Amount {
	return Amount{v: new(big.Int).Neg(a.big())}
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	return Amount{v: new(big.Int).Abs(a.big())}
}

// MulDiv returns a * num / den using integer division.
func (a Amount) MulDiv(num, den int64) Amount {
	if den == 0 {
		panic("types: amount division by zero")
	}
	v := new(big.Int).Mul(a.big(), big.NewInt(num))
	return Amount{v: v.Quo(v, big.NewInt(den))}
}

// Min returns the smaller of two amounts.
func (a Amount) Min(other Amount) Amount {
	if a.Cmp(other) < 0 {
		return a
	}
	return other
}

// Max returns the larger of two amounts.
func (a Amount) Max(other Amount) Amount {
	if a.Cmp(other) > 0 {
		return a
	}
	return other
}

// Comparison methods

// Cmp compares two amounts: -1 if a < other, 0 if equal, +1 if a > other.
func (a Amount) Cmp(other Amount) int {
	return a.big().Cmp(other.big())
}

// Equal returns true if both amounts are equal.
func (a Amount) Equal(other Amount) bool { return a.Cmp(other) == 0 }

// LessThan returns true if a < other.
func (a Amount) LessThan(other Amount) bool { return a.Cmp(other) < 0 }

// GreaterThan returns true if a > other.
func (a Amount) GreaterThan(other Amount) bool { return a.Cmp(other) > 0 }

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.big().Sign() == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.big().Sign() > 0 }

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool { return a.big().Sign() < 0 }

// String returns the base-10 integer representation.
func (a Amount) String() string {
	return a.big().String()
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. Amounts serialize as decimal
// strings: JSON numbers lose precision past 2^53.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		*a = Amount{}
		return nil
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for database storage.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		parsed, err := ParseAmount(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		parsed, err := ParseAmount(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case int64:
		*a = FromUnits(v)
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Amount", src)
	}
}

// SumAmounts calculates the sum of multiple amounts.
func SumAmounts(values ...Amount) Amount {
	result := Amount{}
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

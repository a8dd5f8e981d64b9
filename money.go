// Copyright (c) 2025 Neomantra Corp
//
// Money is a fixed-point decimal for prices and strikes. Spec §3
// requires scale >= 4 and forbids binary floats on the quote path; we
// store an int64 of scale-4 ticks (i.e. 1/10000ths of a unit), which
// covers SPX-style strikes and sub-penny option prices without the
// rounding drift of float64.

package alphastore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MoneyScale is the number of fractional decimal digits Money carries.
const MoneyScale = 4

var moneyScaleFactor = int64(math.Pow10(MoneyScale))

// Money is a fixed-point decimal amount at MoneyScale fractional digits,
// represented internally as an integer count of 1/10^MoneyScale units.
type Money struct {
	ticks int64
}

// ZeroMoney is the additive identity.
var ZeroMoney = Money{}

// MoneyFromTicks constructs a Money directly from its scale-4 integer
// representation. Used by storage readers that persist the scaled
// integer column directly.
func MoneyFromTicks(ticks int64) Money {
	return Money{ticks: ticks}
}

// MoneyFromFloat converts a float64 to Money, rounding half-away-from-zero
// at MoneyScale digits. Only intended for ingesting vendor data that
// arrives as floats; internal arithmetic never round-trips through float64.
func MoneyFromFloat(f float64) Money {
	scaled := f * float64(moneyScaleFactor)
	if scaled >= 0 {
		return Money{ticks: int64(math.Floor(scaled + 0.5))}
	}
	return Money{ticks: int64(math.Ceil(scaled - 0.5))}
}

// ParseMoney parses a decimal string ("4755.00", "-1.5") into Money.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroMoney, invalidArgumentf("empty money literal")
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	} else if s[0] == '+' {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	intVal, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return ZeroMoney, invalidArgumentf("invalid money literal %q: %s", s, err)
	}
	fracVal := int64(0)
	if hasFrac {
		if len(fracPart) > MoneyScale {
			fracPart = fracPart[:MoneyScale]
		}
		for len(fracPart) < MoneyScale {
			fracPart += "0"
		}
		fracVal, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return ZeroMoney, invalidArgumentf("invalid money literal %q: %s", s, err)
		}
	}
	ticks := intVal*moneyScaleFactor + fracVal
	if neg {
		ticks = -ticks
	}
	return Money{ticks: ticks}, nil
}

// Ticks returns the raw scale-4 integer representation, as stored on disk.
func (m Money) Ticks() int64 {
	return m.ticks
}

// Float64 converts to a float64. Use only at presentation boundaries
// (JSON output, TUI rendering) — never feed the result back into
// arithmetic that must stay exact.
func (m Money) Float64() float64 {
	return float64(m.ticks) / float64(moneyScaleFactor)
}

func (m Money) String() string {
	neg := m.ticks < 0
	ticks := m.ticks
	if neg {
		ticks = -ticks
	}
	intPart := ticks / moneyScaleFactor
	fracPart := ticks % moneyScaleFactor
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%0*d", sign, intPart, MoneyScale, fracPart)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) Add(other Money) Money {
	return Money{ticks: m.ticks + other.ticks}
}

func (m Money) Sub(other Money) Money {
	return Money{ticks: m.ticks - other.ticks}
}

// DivInt64 divides by a small integer divisor, rounding half-away-from-zero.
func (m Money) DivInt64(divisor int64) Money {
	if divisor == 0 {
		return ZeroMoney
	}
	num := m.ticks
	neg := (num < 0) != (divisor < 0)
	if num < 0 {
		num = -num
	}
	d := divisor
	if d < 0 {
		d = -d
	}
	q := (num + d/2) / d
	if neg {
		q = -q
	}
	return Money{ticks: q}
}

// Mid returns (bid+ask)/2, rounded per the fixed-point rounding rule
// (spec §3 invariant 3, §9 open question 4).
func Mid(bid, ask Money) Money {
	return bid.Add(ask).DivInt64(2)
}

// LessThan, LessOrEqual, GreaterOrEqual support ordering comparisons
// needed throughout the query engine (Bid <= Ask, strike ordering, ...).
func (m Money) LessThan(other Money) bool      { return m.ticks < other.ticks }
func (m Money) LessOrEqual(other Money) bool    { return m.ticks <= other.ticks }
func (m Money) GreaterOrEqual(other Money) bool { return m.ticks >= other.ticks }
func (m Money) Equal(other Money) bool          { return m.ticks == other.ticks }
func (m Money) IsZero() bool                    { return m.ticks == 0 }

// Moneyness computes Strike/Spot - 1 as a float64. The division is
// inherently non-fixed-point (spec leaves the persisted-moneyness
// rounding rule as an open question, §9.4); this is the single
// recomputation path both the write-time filter and the read-time
// column use, so they agree by construction.
func Moneyness(strike, spot Money) float64 {
	if spot.ticks == 0 {
		return math.Inf(1)
	}
	return float64(strike.ticks)/float64(spot.ticks) - 1.0
}

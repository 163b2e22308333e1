package currency

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func mustParts(t *testing.T, whole, fraction uint64) Value {
	t.Helper()
	v, err := FromParts(whole, fraction)
	if err != nil {
		t.Fatalf("FromParts(%d, %d): %v", whole, fraction, err)
	}
	return v
}

// --- Construction ---

func TestFromParts_OK(t *testing.T) {
	v := mustParts(t, 2, 1)
	if v.Units() != 2*10000+1 {
		t.Errorf("expected 20001 units, got %d", v.Units())
	}
}

func TestFromParts_Overflow(t *testing.T) {
	_, err := FromParts(10_000_000_000_000_000, 9999)
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestFromParts_FractionOverflowsTopUnit(t *testing.T) {
	whole := uint64(math.MaxUint64) / Scale
	if _, err := FromParts(whole, 0); err != nil {
		t.Fatalf("largest whole part should fit: %v", err)
	}
	_, err := FromParts(whole, 9999)
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestFromParts_DecimalError(t *testing.T) {
	_, err := FromParts(0, 10000)
	if !errors.Is(err, ErrDecimal) {
		t.Errorf("expected ErrDecimal, got %v", err)
	}
}

// --- Parsing ---

func TestParse(t *testing.T) {
	tests := []struct {
		in          string
		whole, frac uint64
	}{
		{"1234", 1234, 0},
		{"1234.1", 1234, 1000},
		{"1234.01", 1234, 100},
		{"1234.", 1234, 0},
		{"01234", 1234, 0},
		{"1234.00000", 1234, 0},
		{"1234.00001", 1234, 0},
		{"1234.00011", 1234, 1},
		{"1234.9876", 1234, 9876},
		{"1234.0806", 1234, 806},
		{"0.0001", 0, 1},
		{"1.99999999", 1, 9999},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tc.in, err)
			continue
		}
		want := mustParts(t, tc.whole, tc.frac)
		if got != want {
			t.Errorf("Parse(%q) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestParse_Truncates(t *testing.T) {
	if MustParse("1234.00001") != MustParse("1234.0000") {
		t.Error("digits past the fourth should be dropped")
	}
	if MustParse("1234.00011") != MustParse("1234.0001") {
		t.Error("truncation must not round")
	}
	if MustParse("0.99999") != MustParse("0.9999") {
		t.Error("truncation must not round up into the unit")
	}
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{
		"",
		".",
		".5",
		"123a",
		"1235.000a",
		"1235.0000a",
		"1235.0000.00",
		"a1235.",
		"-1.0",
		"+1.0",
		" 1.0",
		"1,0",
		"99999999999999999999",
		"1844674407370955.1616",
	}
	for _, in := range inputs {
		_, err := Parse(in)
		if !errors.Is(err, ErrInvalidRepresentation) {
			t.Errorf("Parse(%q): expected ErrInvalidRepresentation, got %v", in, err)
		}
	}
}

// --- Formatting ---

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{mustParts(t, 1, 0), "1.0000"},
		{mustParts(t, 1, 1), "1.0001"},
		{mustParts(t, 1234, 9999), "1234.9999"},
		{mustParts(t, 0, 1000), "0.1000"},
		{Zero, "0.0000"},
		{Max, "1844674407370955.1615"},
	}
	for _, tc := range tests {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		Zero,
		Max,
		FromUnits(1),
		FromUnits(9999),
		FromUnits(10000),
		mustParts(t, 42, 4200),
		MustParse("1234.00011"),
		MustParse("7."),
	}
	for _, v := range values {
		got, err := Parse(v.String())
		if err != nil {
			t.Errorf("Parse(%q): %v", v.String(), err)
			continue
		}
		if got != v {
			t.Errorf("round trip of %s produced %s", v, got)
		}
	}
}

// --- Arithmetic ---

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"1", "1", "2"},
		{"0.01", "0.02", "0.03"},
		{"0.1", "0.9", "1"},
	}
	for _, tc := range tests {
		got, ok := CheckedAdd(MustParse(tc.a), MustParse(tc.b))
		if !ok {
			t.Errorf("%s + %s: unexpected overflow", tc.a, tc.b)
			continue
		}
		if got != MustParse(tc.want) {
			t.Errorf("%s + %s = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCheckedAdd_Overflow(t *testing.T) {
	if _, ok := CheckedAdd(Max, FromUnits(1)); ok {
		t.Error("expected overflow")
	}
	if _, err := Add(Max, FromUnits(1)); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestCheckedSub(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"2", "1", "1"},
		{"1", "0.0001", "0.9999"},
		{"1000", "0.0001", "999.9999"},
		{"5", "5", "0"},
	}
	for _, tc := range tests {
		got, ok := CheckedSub(MustParse(tc.a), MustParse(tc.b))
		if !ok {
			t.Errorf("%s - %s: unexpected underflow", tc.a, tc.b)
			continue
		}
		if got != MustParse(tc.want) {
			t.Errorf("%s - %s = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCheckedSub_Underflow(t *testing.T) {
	if _, ok := CheckedSub(MustParse("1"), MustParse("1.0001")); ok {
		t.Error("expected underflow")
	}
	_, err := Sub(Zero, FromUnits(1))
	if !errors.Is(err, ErrUnderflow) {
		t.Errorf("expected ErrUnderflow, got %v", err)
	}
	if errors.Is(err, ErrOverflow) {
		t.Error("underflow must be distinguishable from overflow")
	}
}

func TestCmp(t *testing.T) {
	a, b := MustParse("1.0001"), MustParse("1.0002")
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Errorf("unexpected ordering between %s and %s", a, b)
	}
}

// --- Decimal and JSON ---

func TestDecimal(t *testing.T) {
	v := MustParse("1234.5678")
	if !v.Decimal().Equal(decimal.RequireFromString("1234.5678")) {
		t.Errorf("Decimal() = %s", v.Decimal())
	}
	back, err := FromDecimal(v.Decimal())
	if err != nil {
		t.Fatalf("FromDecimal: %v", err)
	}
	if back != v {
		t.Errorf("FromDecimal(Decimal()) = %s, want %s", back, v)
	}
	if got := Max.Decimal().String(); got != "1844674407370955.1615" {
		t.Errorf("Max.Decimal() = %s", got)
	}
}

func TestFromDecimal_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"-1", ErrInvalidRepresentation},
		{"0.00001", ErrDecimal},
		{"1844674407370956", ErrOverflow},
	}
	for _, tc := range tests {
		_, err := FromDecimal(decimal.RequireFromString(tc.in))
		if !errors.Is(err, tc.want) {
			t.Errorf("FromDecimal(%s): expected %v, got %v", tc.in, tc.want, err)
		}
	}
}

func TestJSON(t *testing.T) {
	type doc struct {
		Amount Value `json:"amount"`
	}
	data, err := json.Marshal(doc{Amount: MustParse("1.5")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"amount":"1.5000"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var out doc
	if err := json.Unmarshal([]byte(`{"amount":"2.00019"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Amount != MustParse("2.0001") {
		t.Errorf("unexpected amount %s", out.Amount)
	}
	if err := json.Unmarshal([]byte(`{"amount":"x"}`), &out); err == nil {
		t.Error("expected error for invalid amount")
	}
}

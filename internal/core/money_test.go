package core

import (
	"encoding/json"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in    string
		units int64
		ok    bool
	}{
		{"1", 10000, true},
		{"1.0", 10000, true},
		{"1.23", 12300, true},
		{"1,23", 12300, true},
		{"0.01", 100, true},
		{"10.005", 100050, true},
		{"1.23456", 12346, true},
		{" 2.50 ", 25000, true},
		{"-1", -10000, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			units, uerr := got.Units()
			if err != nil || uerr != nil || units != tc.units {
				t.Fatalf("%q expected %d units, got %d (err=%v, %v)", tc.in, tc.units, units, err, uerr)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneySumIsExact(t *testing.T) {
	a, err := MustMoney("10.005").Units()
	if err != nil {
		t.Fatalf("units: %v", err)
	}
	sum := MoneyFromUnits(a + a)
	if sum.String() != "20.01" {
		t.Fatalf("expected 20.01, got %s", sum.String())
	}

	var total Money
	for i := 0; i < 10; i++ {
		total = total.Add(MustMoney("0.1"))
	}
	if !total.Equal(MustMoney("1")) {
		t.Fatalf("expected 1.00, got %s", total)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{MustMoney("250")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":250.00}` {
		t.Fatalf("unexpected json %s", b)
	}

	for _, raw := range []string{`{"amount":12.5}`, `{"amount":"12.5"}`, `{"amount":"12,5"}`} {
		var in struct {
			Amount Money `json:"amount"`
		}
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if units, _ := in.Amount.Units(); units != 125000 {
			t.Fatalf("%s: got %d units", raw, units)
		}
	}

	var bad struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":"ten"}`), &bad); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestMoneyScan(t *testing.T) {
	var m Money
	if err := m.Scan(int64(100050)); err != nil || m.String() != "10.01" {
		t.Fatalf("scan int64: %v %s", err, m)
	}
	if err := m.Scan(nil); err != nil || !m.IsZero() {
		t.Fatalf("scan nil: %v %s", err, m)
	}
	if err := m.Scan("25000"); err != nil || m.String() != "2.50" {
		t.Fatalf("scan string: %v %s", err, m)
	}
	if err := m.Scan(struct{}{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestMoneyUnitsOverflow(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"922337203685477.5807", false},
		{"-922337203685477.5808", false},
		{"922337203685477.5808", true},
		{"1000000000000000", true},
		{"-1000000000000000", true},
	}
	for _, tt := range tests {
		m := MustMoney(tt.in)
		_, err := m.Units()
		if (err != nil) != tt.wantErr {
			t.Errorf("Units(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if _, verr := m.Value(); (verr != nil) != tt.wantErr {
			t.Errorf("Value(%s) error = %v, wantErr %v", tt.in, verr, tt.wantErr)
		}
	}
}

func TestMoneyDivInt(t *testing.T) {
	if got, _ := MustMoney("10").DivInt(3).Units(); got != 33333 {
		t.Fatalf("10/3 expected 33333 units, got %d", got)
	}
	if got := MustMoney("10").DivInt(0); !got.IsZero() {
		t.Fatalf("division by zero should be zero, got %s", got)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		part, whole string
		places      int32
		want        float64
	}{
		{"50", "200", 0, 25},
		{"1", "3", 1, 33.3},
		{"300", "200", 0, 100},
		{"10", "0", 0, 0},
	}
	for _, tc := range cases {
		if got := Percent(MustMoney(tc.part), MustMoney(tc.whole), tc.places); got != tc.want {
			t.Fatalf("Percent(%s,%s)=%v want %v", tc.part, tc.whole, got, tc.want)
		}
	}
}

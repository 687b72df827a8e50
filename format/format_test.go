package format

import "testing"

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0\u00a0₫"},
		{1, "1.000.000\u00a0₫"},
		{1.5, "1.500.000\u00a0₫"},
		{120.25, "120.250.000\u00a0₫"},
		{0.0005, "500\u00a0₫"},
	}
	for _, tt := range tests {
		if got := Money(tt.in); got != tt.want {
			t.Errorf("Money(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in, date, text string
	}{
		{"2024-03-01", "01/03/2024", "March 1, 2024"},
		{"2024-12-25T10:30:00Z", "25/12/2024", "December 25, 2024"},
		{"2024-07-04T08:00:00", "04/07/2024", "July 4, 2024"},
		{"", Undefined, Undefined},
		{"not a date", Undefined, Undefined},
	}
	for _, tt := range tests {
		if got := Date(tt.in); got != tt.date {
			t.Errorf("Date(%q) = %q, want %q", tt.in, got, tt.date)
		}
		if got := DateWithText(tt.in); got != tt.text {
			t.Errorf("DateWithText(%q) = %q, want %q", tt.in, got, tt.text)
		}
	}
}

package usecase

import "testing"

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Water Pump X1", "Water Pump X1", 100},
		{"word order ignored", "Water Pump X1", "X1 pump WATER", 100},
		{"punctuation ignored", "Water-Pump (X1)", "water pump x1", 100},
		{"one char differs", "Widget X", "Widget Y", 87.5},
		{"extra token", "Widget X Max", "Widget X", 80},
		{"empty side", "", "Widget", 0},
		{"both empty", "", "", 0},
		{"full width digits", "Pump １２", "pump 12", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenSortRatio(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("TokenSortRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTokenSortRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Samsung Galaxy A15", "Galaxy A15 Samsung 128GB"},
		{"Generic Pump", "Water Pump X1"},
	}
	for _, p := range pairs {
		if a, b := TokenSortRatio(p[0], p[1]), TokenSortRatio(p[1], p[0]); a != b {
			t.Errorf("asymmetric score for %q/%q: %v vs %v", p[0], p[1], a, b)
		}
	}
}

func TestCodeRatio(t *testing.T) {
	tests := []struct {
		name       string
		raw, normd string
		want       float64
	}{
		{"case only", "X1", "x1", 100},
		{"surrounding space", " x1 ", "x1", 100},
		{"separator costs", "X-1", "x1", 80},
		{"empty raw", "", "x1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeRatio(tt.raw, tt.normd); got != tt.want {
				t.Errorf("CodeRatio(%q, %q) = %v, want %v", tt.raw, tt.normd, got, tt.want)
			}
		})
	}
}

func TestIndelRatio_Rounding(t *testing.T) {
	// LCS("abc", "abd") = 2, 200*2/6 = 66.666...
	if got := indelRatio("abc", "abd"); got != 66.67 {
		t.Errorf("indelRatio = %v, want 66.67", got)
	}
}

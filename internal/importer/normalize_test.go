package importer

import "testing"

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain integer", "25000", 25000},
		{"decimal point", "12500.50", 12500.50},
		{"decimal comma", "12500,50", 12500.50},
		{"currency symbol", "$25000", 25000},
		{"thousands dot", "$12.000", 12000},
		{"thousands dot with decimals", "$ 12.500,50", 12500.50},
		{"double thousands dot", "1.234.567", 1234567},
		{"spaces around", "  9.990  ", 9990},
		{"empty", "", 0},
		{"letters only", "gratis", 0},
		{"negative", "-100", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePrice(tt.input); got != tt.want {
				t.Errorf("NormalizePrice(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePriceIsFixedPoint(t *testing.T) {
	inputs := []string{"$12.000", "25000", "12.500,50"}
	for _, input := range inputs {
		once := NormalizePrice(input)
		// Re-normalizing the already clean representation must not change it
		twice := NormalizePrice(formatFloat(once))
		if once != twice {
			t.Errorf("normalization of %q is not idempotent: %v then %v", input, once, twice)
		}
	}
}

func formatFloat(f float64) string {
	return stringify(f)
}

func TestNormalizeStock(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"10", 10},
		{" 42 ", 42},
		{"10 unidades", 10},
		{"-5", 0},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := NormalizeStock(tt.input); got != tt.want {
			t.Errorf("NormalizeStock(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"black shirt", "Black Shirt"},
		{"  remera   oversize  ", "Remera Oversize"},
		{"JEAN MOM FIT", "Jean Mom Fit"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	// fixed point
	normalized := NormalizeName("black shirt")
	if again := NormalizeName(normalized); again != normalized {
		t.Errorf("NormalizeName is not idempotent: %q then %q", normalized, again)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("S, M / L;XL")
	want := []string{"S", "M", "L", "XL"}
	if len(got) != len(want) {
		t.Fatalf("SplitList returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDedupeList(t *testing.T) {
	got := DedupeList([]string{"S", "S", "M", "L", "M"})
	want := []string{"S", "M", "L"}
	if len(got) != len(want) {
		t.Fatalf("DedupeList returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DedupeList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

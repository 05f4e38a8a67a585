package importer

import (
	"testing"
	"time"

	"github.com/ormside/listflow/internal/store"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		valid bool
	}{
		{"9.99", 9.99, true},
		{"$1,234.56", 1234.56, true},
		{"€99", 99, true},
		{"£0.50", 0.50, true},
		{"(12.34)", -12.34, true},
		{"  $ 5.00 ", 5, true},
		{"1,000,000", 1000000, true},
		{"", 0, false},
		{"free", 0, false},
		{"12.34.56", 0, false},
		{"$", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseMoney(tt.input)
			if ok != tt.valid {
				t.Fatalf("parseMoney(%q) valid = %v, want %v", tt.input, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("parseMoney(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input string
		want  int
		valid bool
	}{
		{"5", 5, true},
		{"0", 0, true},
		{"1,200", 1200, true},
		{" 42 ", 42, true},
		{"-3", -3, true},
		{"", 0, false},
		{"2.5", 0, false},
		{"many", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseQuantity(tt.input)
			if ok != tt.valid {
				t.Fatalf("parseQuantity(%q) valid = %v, want %v", tt.input, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("parseQuantity(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string // YYYY-MM-DD, empty for invalid
	}{
		{"2024-03-15", "2024-03-15"},
		{"3/15/2024", "2024-03-15"},
		{"15 Mar 2024", "2024-03-15"},
		{"Mar 15, 2024", "2024-03-15"},
		{"20240315", "2024-03-15"},
		{"3/15/24", "2024-03-15"},
		{"", ""},
		{"soon", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			if tt.want == "" {
				if ok {
					t.Fatalf("parseDate(%q) = %v, want invalid", tt.input, got)
				}
				return
			}
			if !ok {
				t.Fatalf("parseDate(%q) invalid, want %s", tt.input, tt.want)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("parseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseDateTwoDigitYearPivot(t *testing.T) {
	// A 2-digit year far past the pivot window lands in the previous century.
	future := (time.Now().Year() + twoDigitYearPivot + 5) % 100
	input := time.Date(2000+future, 6, 1, 0, 0, 0, 0, time.UTC).Format("1/2/06")

	got, ok := parseDate(input)
	if !ok {
		t.Fatalf("parseDate(%q) invalid", input)
	}
	if got.Year() != 1900+future {
		t.Errorf("parseDate(%q).Year() = %d, want %d", input, got.Year(), 1900+future)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  store.ListingStatus
		valid bool
	}{
		{"Active", store.StatusActive, true},
		{"live", store.StatusActive, true},
		{"ENDED", store.StatusEnded, true},
		{"sold", store.StatusEnded, true},
		{"Out of Stock", store.StatusOutOfStock, true},
		{"out_of_stock", store.StatusOutOfStock, true},
		{"hidden", store.StatusHidden, true},
		{"unlisted", store.StatusHidden, true},
		{"archived", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseStatus(tt.input)
			if ok != tt.valid {
				t.Fatalf("parseStatus(%q) valid = %v, want %v", tt.input, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("parseStatus(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseItemID(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"1234567890", true},
		{"123456789012345", true},
		{"123456789", false},       // 9 digits
		{"1234567890123456", false}, // 16 digits
		{"12345abcde", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if _, ok := parseItemID(tt.input); ok != tt.valid {
				t.Errorf("parseItemID(%q) = %v, want %v", tt.input, ok, tt.valid)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  plain  ", "plain"},
		{`="1234567890"`, "1234567890"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := cleanCell(tt.input); got != tt.want {
			t.Errorf("cleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

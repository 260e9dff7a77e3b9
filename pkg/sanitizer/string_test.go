package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already clean", "Cordless drill", "Cordless drill"},
		{"leading and trailing spaces", "  Cordless drill  ", "Cordless drill"},
		{"multiple inner spaces", "Cordless    drill", "Cordless drill"},
		{"tabs and newlines", "Cordless\t\ndrill", "Cordless drill"},
		{"control characters dropped", "Cordless\x00 drill", "Cordless drill"},
		{"unicode preserved", "  Décor   lamp ", "Décor lamp"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Asha.Rao@Example.COM "); got != "asha.rao@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestNormalizeAddress(t *testing.T) {
	if got := NormalizeAddress(" 12  MG Road,\n Bengaluru "); got != "12 MG Road, Bengaluru" {
		t.Errorf("NormalizeAddress() = %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("  Heavy duty   drill \r\n\r\n  Comes with   bits  ")
	want := "Heavy duty drill\n\nComes with bits"
	if got != want {
		t.Errorf("NormalizeText() = %q, want %q", got, want)
	}
}

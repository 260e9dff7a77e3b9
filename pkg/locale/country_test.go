package locale

import (
	"testing"
)

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantNil  bool
	}{
		{
			name:     "India phone",
			phone:    "+919876543210",
			wantCode: "IN",
		},
		{
			name:     "US phone",
			phone:    "+12125551234",
			wantCode: "US",
		},
		{
			name:     "Israel phone",
			phone:    "+972541234567",
			wantCode: "IL",
		},
		{
			name:     "UK phone",
			phone:    " +442071234567 ",
			wantCode: "GB",
		},
		{
			name:    "unknown country",
			phone:   "+4930123456",
			wantNil: true,
		},
		{
			name:    "not E.164",
			phone:   "919876543210",
			wantNil: true,
		},
		{
			name:    "empty phone",
			phone:   "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantNil {
				if got != nil {
					t.Errorf("InferCountryFromPhone(%q) = %v, want nil", tt.phone, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("InferCountryFromPhone(%q) = nil, want %q", tt.phone, tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("InferCountryFromPhone(%q).Code = %q, want %q", tt.phone, got.Code, tt.wantCode)
			}
		})
	}
}

func TestInferTimezoneFromPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{"+919876543210", "Asia/Kolkata"},
		{"+12125551234", "America/New_York"},
		{"+4930123456", "UTC"},
		{"", "UTC"},
	}

	for _, tt := range tests {
		if got := InferTimezoneFromPhone(tt.phone); got != tt.want {
			t.Errorf("InferTimezoneFromPhone(%q) = %q, want %q", tt.phone, got, tt.want)
		}
	}
}

func TestPhoneRegions(t *testing.T) {
	got := PhoneRegions("il")
	want := []string{"IL", "IN", "US", "GB"}
	if len(got) != len(want) {
		t.Fatalf("PhoneRegions(il) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PhoneRegions(il)[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := PhoneRegions(""); len(got) != len(Countries) || got[0] != "IN" {
		t.Errorf("PhoneRegions(\"\") = %v", got)
	}
}

func TestLookupCountry(t *testing.T) {
	c, ok := LookupCountry("us")
	if !ok || c.Name != "United States" {
		t.Errorf("LookupCountry(us) = %v, %v", c, ok)
	}
	if _, ok := LookupCountry("ZZ"); ok {
		t.Error("LookupCountry(ZZ) should not be found")
	}
}

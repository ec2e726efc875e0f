package compliance

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABC, LLC.", "abc llc"},
		{"abc llc", "abc llc"},
		{"  Acme   Holdings  ", "acme holdings"},
		{"O'Brien & Sons, Inc.", "obrien sons inc"},
		{"ACME-WEST (region #4)", "acmewest region 4"},
		{"", ""},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"ABC, LLC.", "  Mixed   Case/Name  ", "plain name"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestNameSatisfies(t *testing.T) {
	tests := []struct {
		name      string
		required  string
		extracted string
		want      bool
	}{
		{"exact", "Acme Properties", "Acme Properties", true},
		{"suffix", "Acme Properties", "Acme Properties, LLC and its subsidiaries", true},
		{"case and punctuation", "ACME, Properties.", "acme properties llc", true},
		{"not contained", "Acme Properties", "Bright Line Holdings", false},
		{"one direction only", "Acme Properties and affiliates", "Acme Properties", false},
		{"empty required always satisfied", "", "anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NameSatisfies(tt.required, tt.extracted); got != tt.want {
				t.Errorf("NameSatisfies(%q, %q) = %v, want %v", tt.required, tt.extracted, got, tt.want)
			}
		})
	}
}

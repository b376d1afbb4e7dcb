package normalize

import "testing"

func TestRepair_CleanPassthrough(t *testing.T) {
	inputs := []string{"", "plain ascii", "café déjà vu", "日本語のテキスト", "naïve — dash"}
	for _, s := range inputs {
		if got := Repair(s); got != s {
			t.Errorf("Repair(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestRepair_Latin1Misdecode(t *testing.T) {
	// "café" encoded as UTF-8, decoded as Latin-1.
	if got := Repair("cafÃ©"); got != "café" {
		t.Errorf("Repair: got %q, want %q", got, "café")
	}
	if got := Repair("MÃ¼ller and GÃ³mez"); got != "Müller and Gómez" {
		t.Errorf("Repair: got %q, want %q", got, "Müller and Gómez")
	}
}

func TestRepair_CP1252Misdecode(t *testing.T) {
	// Curly apostrophe (U+2019) misdecoded as CP1252 renders as "â€™".
	if got := Repair("Donâ€™t Panic"); got != "Don’t Panic" {
		t.Errorf("Repair: got %q, want %q", got, "Don’t Panic")
	}
	if got := Repair("rangeâ€“based"); got != "range–based" {
		t.Errorf("Repair: got %q, want %q", got, "range–based")
	}
}

func TestRepair_DoubleEncoded(t *testing.T) {
	// "café" misdecoded twice: the first pass only peels one layer, so
	// repair must keep going until no marker is left.
	if got := Repair("cafÃƒÂ©"); got != "café" {
		t.Errorf("Repair: got %q, want %q", got, "café")
	}
	if got := Repair("GÃƒÂ³mez"); got != "Gómez" {
		t.Errorf("Repair: got %q, want %q", got, "Gómez")
	}
}

func TestRepair_ResidualTable(t *testing.T) {
	// Copyright artifact plus a non-breaking space.
	if got := Repair("Â© 2019\u00a0Press"); got != "© 2019 Press" {
		t.Errorf("Repair: got %q, want %q", got, "© 2019 Press")
	}
}

func TestRepair_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain ascii",
		"cafÃ©",
		"cafÃƒÂ©",
		"Donâ€™t Panic",
		"MÃ¼ller Â© â€¦",
		"already clean — café",
		"� broken �",
	}
	for _, s := range inputs {
		once := Repair(s)
		if twice := Repair(once); twice != once {
			t.Errorf("Repair not idempotent for %q: first %q, second %q", s, once, twice)
		}
	}
}

func TestRepair_KeepsOriginalWhenNoImprovement(t *testing.T) {
	// A lone replacement character cannot be improved by recoding.
	s := "bad � char"
	if got := Repair(s); got != s {
		t.Errorf("Repair(%q) = %q, want unchanged", s, got)
	}
}

func TestHasMojibake(t *testing.T) {
	if HasMojibake("clean text") {
		t.Error("clean text flagged as mojibake")
	}
	if !HasMojibake("cafÃ©") {
		t.Error("mojibake not detected")
	}
	if !HasMojibake("�") {
		t.Error("replacement character not detected")
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Published 1998, revised 2004", "1998"},
		{"2023-05-01", "2023"},
		{"circa 1850", ""},
		{"20190", ""},
		{"no year here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractYear(tt.in); got != tt.want {
			t.Errorf("ExtractYear(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

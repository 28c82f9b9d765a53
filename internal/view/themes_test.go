package view

import "testing"

func TestThemeColorsForFallsBackToDefault(t *testing.T) {
	def := ThemeColorsFor("default")
	if got := ThemeColorsFor("no-such-theme"); got != def {
		t.Fatalf("expected default fallback, got %+v", got)
	}
	if got := ThemeColorsFor("  Ocean "); got == def {
		t.Fatal("expected trimmed case-insensitive lookup to resolve ocean")
	}
}

func TestIsValidTheme(t *testing.T) {
	for _, key := range []string{"default", "ocean", "sunset", "forest", "midnight", "rose"} {
		if !IsValidTheme(key) {
			t.Fatalf("catalog theme %q rejected", key)
		}
	}
	if IsValidTheme("neon") {
		t.Fatal("unknown theme accepted")
	}
}

func TestIsValidDesignValue(t *testing.T) {
	if !IsValidDesignValue("buttonStyle", "pill") {
		t.Fatal("valid value rejected")
	}
	if IsValidDesignValue("buttonStyle", "triangle") {
		t.Fatal("invalid value accepted")
	}
	if IsValidDesignValue("noSuchField", "pill") {
		t.Fatal("unknown field accepted")
	}
}

func TestDesignFieldOptionsReturnsCopy(t *testing.T) {
	options := DesignFieldOptions()
	options["buttonStyle"][0] = "mutated"
	if designFieldOptions["buttonStyle"][0] == "mutated" {
		t.Fatal("catalog leaked mutable backing array")
	}
}

package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "zh-Hant", want: "zh-Hant"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("native name and flag", func(t *testing.T) {
		got := Resolve("de")
		if got.Code != "de" || got.DisplayName != "Deutsch" || got.Flag != "🇩🇪" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("capitalized", func(t *testing.T) {
		got := Resolve("ru")
		if got.DisplayName != "Русский" {
			t.Fatalf("Resolve(ru).DisplayName = %q", got.DisplayName)
		}
	})

	t.Run("explicit region", func(t *testing.T) {
		got := Resolve("pt_BR")
		if got.Code != "pt_BR" || got.Flag != "🇧🇷" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("e!n")
		if got.DisplayName != "e!n" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestFlag(t *testing.T) {
	cases := map[string]string{
		"FR":  "🇫🇷",
		"gb":  "🇬🇧",
		"419": "",
		"":    "",
		"1A":  "",
	}
	for in, want := range cases {
		if got := Flag(in); got != want {
			t.Fatalf("Flag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveAllKeepsOrder(t *testing.T) {
	got := ResolveAll([]string{"fr", "en"})
	if len(got) != 2 || got[0].Code != "fr" || got[1].Code != "en" {
		t.Fatalf("ResolveAll() = %#v", got)
	}
}

package menu

import (
	"os"
	"testing"
)

func TestApply(t *testing.T) {
	th := DarkTheme()
	if got := th.ErrorText("boom"); got != "\x1b[31mboom\x1b[0m" {
		t.Fatalf("unexpected styled text: %q", got)
	}

	// Disabled themes and empty sequences pass text through untouched.
	if got := NoTheme().ErrorText("boom"); got != "boom" {
		t.Fatalf("expected passthrough when disabled, got %q", got)
	}
	if got := th.apply("", "boom"); got != "boom" {
		t.Fatalf("expected passthrough for empty sequence, got %q", got)
	}
	if got := th.apply("31", ""); got != "" {
		t.Fatalf("expected empty text to stay empty, got %q", got)
	}
}

func TestCursorMark(t *testing.T) {
	th := NoTheme()
	if got := th.CursorMark(true); got != "→ " {
		t.Fatalf("unexpected active mark: %q", got)
	}
	if got := th.CursorMark(false); got != "  " {
		t.Fatalf("unexpected inactive mark: %q", got)
	}
}

func TestThemeByName(t *testing.T) {
	for _, name := range []string{"none", "off", "disabled"} {
		th, ok := themeByName(name)
		if !ok || th.Enabled {
			t.Fatalf("expected %q to disable styling", name)
		}
	}

	th, ok := themeByName("catppuccin")
	if !ok || th.Header != CatppuccinMochaTheme().Header {
		t.Fatalf("expected catppuccin palette, got %+v", th)
	}
	th, ok = themeByName("Mocha")
	if !ok || th.Header != CatppuccinMochaTheme().Header {
		t.Fatalf("expected case-insensitive names, got %+v", th)
	}

	th, ok = themeByName("dark")
	if !ok || th.Error != "31" {
		t.Fatalf("expected the fallback palette, got %+v", th)
	}

	if _, ok := themeByName("solarized"); ok {
		t.Fatalf("expected unknown names to miss")
	}
}

func TestLoadTheme_EnvFallback(t *testing.T) {
	t.Setenv("SSHMENU_THEME", "dark")

	th := LoadTheme("")
	if !th.Enabled || th.Error != "31" {
		t.Fatalf("expected the env-selected palette, got %+v", th)
	}
}

func TestLoadTheme_ExplicitBeatsEnv(t *testing.T) {
	t.Setenv("SSHMENU_THEME", "dark")

	th := LoadTheme("none")
	if th.Enabled {
		t.Fatalf("expected the explicit name to win, got %+v", th)
	}
}

func TestTerminalSupportsColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if terminalSupportsColor() {
		t.Fatalf("expected NO_COLOR to disable color")
	}

	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")
	t.Setenv("TERM", "dumb")
	if terminalSupportsColor() {
		t.Fatalf("expected TERM=dumb to disable color")
	}

	t.Setenv("TERM", "xterm-256color")
	if !terminalSupportsColor() {
		t.Fatalf("expected xterm-256color to support color")
	}
}

func TestAutoTheme_RespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if th := AutoTheme(); th.Enabled {
		t.Fatalf("expected no styling under NO_COLOR, got %+v", th)
	}
}

func TestParseStyleSequence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"bold", "1"},
		{"red", "31"},
		{"bold red", "1;31"},
		{"bold blue underline", "1;34;4"},
		{"mauve", "38;2;203;166;247"},
		{"color214", "38;5;214"},
		{"rgb(255,0,0)", "38;2;255;0;0"},
		{"38;5;214", "38;5;214"},
		{"1;30;44", "1;30;44"},
		{"", ""},
		{"   ", ""},
		{"sparkles", ""},
		{"bold sparkles", "1"},
		{"color999", ""},
	}
	for _, tc := range cases {
		if got := parseStyleSequence(tc.in); got != tc.want {
			t.Fatalf("parseStyleSequence(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestLoadThemeFromFile_Overrides(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "theme.json", `{
  "enabled": true,
  "name": "dark",
  "colors": {
    "header": "bold mauve",
    "error": "rgb(255,0,0)",
    "cursor": "38;5;214"
  }
}`)

	th, err := loadThemeFromFile(p)
	if err != nil {
		t.Fatalf("loadThemeFromFile: %v", err)
	}
	if !th.Enabled {
		t.Fatalf("expected theme enabled")
	}
	if th.Header != "1;38;2;203;166;247" {
		t.Fatalf("unexpected header override: %q", th.Header)
	}
	if th.Error != "38;2;255;0;0" {
		t.Fatalf("unexpected error override: %q", th.Error)
	}
	if th.Cursor != "38;5;214" {
		t.Fatalf("unexpected cursor override: %q", th.Cursor)
	}
	// Roles without overrides keep the base palette.
	if th.Success != DarkTheme().Success {
		t.Fatalf("expected base success sequence, got %q", th.Success)
	}
}

func TestLoadThemeFromFile_DisabledOverride(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "theme.json", `{"enabled": false, "name": "catppuccin"}`)

	th, err := loadThemeFromFile(p)
	if err != nil {
		t.Fatalf("loadThemeFromFile: %v", err)
	}
	if th.Enabled {
		t.Fatalf("expected the file to disable styling")
	}
}

func TestLoadThemeFromFile_MissingFile(t *testing.T) {
	if _, err := loadThemeFromFile("/nonexistent/theme.json"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

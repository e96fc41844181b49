package menu

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Theme provides optional colorized rendering for the menu and the
// connection summary. It is a flat set of ANSI SGR sequences; all hooks
// are safe to call when theming is disabled and fall back to plain text.
//
// Configuration sources (in priority order):
// 1) -theme flag: a built-in name or a JSON file path
// 2) Env var SSHMENU_THEME = none | dark | catppuccin | catppuccin-mocha | auto (or a JSON path)
// 3) ~/.config/sshmenu/theme.json (or $XDG_CONFIG_HOME/sshmenu/theme.json)
// 4) Auto-defaults (Catppuccin on truecolor terminals, basic colors otherwise)
//
// JSON structure (all fields optional):
//
//	{
//	  "enabled": true,
//	  "name": "catppuccin-mocha",
//	  "colors": {
//	    "header": "bold mauve",
//	    "border": "bold mauve",
//	    "selected": "reverse",
//	    "cursor": "bold peach",
//	    "label": "blue",
//	    "info": "lavender",
//	    "accent": "teal",
//	    "highlight": "peach",
//	    "success": "green",
//	    "warning": "yellow",
//	    "error": "red"
//	  }
//	}
type Theme struct {
	Enabled bool

	Header    string // screen title
	Border    string // ═ border lines
	Selected  string // the row under the cursor
	Cursor    string // the → marker
	Text      string // normal rows and summary values
	Subtext   string // descriptions, key paths, prompts
	Label     string // summary labels, unselected ip/username rows
	Info      string // footer key hints
	Accent    string // multi-user availability note
	Highlight string // the summary's target address
	Success   string // key-based auth
	Warning   string // password auth, interrupted sessions
	Error     string // failures and the empty-network notice
}

// ThemeFile is the on-disk JSON representation.
type ThemeFile struct {
	Enabled *bool             `json:"enabled,omitempty"`
	Name    string            `json:"name,omitempty"`
	Colors  map[string]string `json:"colors,omitempty"`
}

// LoadTheme resolves theming from the explicit flag value, then the
// SSHMENU_THEME environment variable, then the default theme.json, and
// finally automatic detection. Anything that fails falls through.
func LoadTheme(explicit string) Theme {
	if v := strings.TrimSpace(explicit); v != "" {
		if t, ok := themeByName(v); ok {
			return t
		}
		if t, err := loadThemeFromFile(v); err == nil {
			return t
		}
	}
	if v := strings.TrimSpace(os.Getenv("SSHMENU_THEME")); v != "" {
		if t, ok := themeByName(v); ok {
			return t
		}
		if t, err := loadThemeFromFile(v); err == nil {
			return t
		}
	}
	if p, err := defaultThemePath(); err == nil {
		if t, err := loadThemeFromFile(p); err == nil {
			return t
		}
	}
	return AutoTheme()
}

func themeByName(name string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off", "disabled":
		return NoTheme(), true
	case "catppuccin", "catppuccin-mocha", "mocha":
		return CatppuccinMochaTheme(), true
	case "dark", "fallback":
		return DarkTheme(), true
	case "auto":
		return AutoTheme(), true
	}
	return Theme{}, false
}

// NoTheme disables all ANSI styling.
func NoTheme() Theme {
	return Theme{Enabled: false}
}

// AutoTheme picks a palette for the current terminal: no styling when
// color is unsupported or stdout is not a terminal, the full Catppuccin
// palette on truecolor terminals, and basic colors otherwise.
func AutoTheme() Theme {
	if !terminalSupportsColor() || !term.IsTerminal(int(os.Stdout.Fd())) {
		return NoTheme()
	}
	if truecolorCapable() {
		return CatppuccinMochaTheme()
	}
	return DarkTheme()
}

// DarkTheme maps every role onto the basic 8/16-color palette for
// terminals that cannot render truecolor.
func DarkTheme() Theme {
	return Theme{
		Enabled:   true,
		Header:    seq("1;35"),   // bold magenta
		Border:    seq("1;35"),   // bold magenta
		Selected:  seq("1;30;44"), // bold black on blue
		Cursor:    seq("1;33"),   // bold yellow
		Text:      seq(""),       // terminal default
		Subtext:   seq("36"),     // cyan
		Label:     seq("34"),     // blue
		Info:      seq("34"),     // blue
		Accent:    seq("36"),     // cyan
		Highlight: seq("33"),     // yellow
		Success:   seq("32"),     // green
		Warning:   seq("33"),     // yellow
		Error:     seq("31"),     // red
	}
}

// CatppuccinMochaTheme is the default palette, in truecolor.
func CatppuccinMochaTheme() Theme {
	return Theme{
		Enabled:   true,
		Header:    seq("1;38;2;203;166;247"),             // bold mauve
		Border:    seq("1;38;2;203;166;247"),             // bold mauve
		Selected:  seq("1;38;2;30;30;46;48;2;137;180;250"), // bold base on blue
		Cursor:    seq("1;38;2;250;179;135"),             // bold peach
		Text:      seq("38;2;205;214;244"),               // text
		Subtext:   seq("38;2;186;194;222"),               // subtext
		Label:     seq("38;2;137;180;250"),               // blue
		Info:      seq("38;2;180;190;254"),               // lavender
		Accent:    seq("38;2;148;226;213"),               // teal
		Highlight: seq("38;2;250;179;135"),               // peach
		Success:   seq("38;2;166;227;161"),               // green
		Warning:   seq("38;2;249;226;175"),               // yellow
		Error:     seq("38;2;243;139;168"),               // red
	}
}

func (t Theme) HeaderLine(s string) string   { return t.apply(t.Header, s) }
func (t Theme) BorderLine(s string) string   { return t.apply(t.Border, s) }
func (t Theme) SelectedText(s string) string { return t.apply(t.Selected, s) }
func (t Theme) LabelText(s string) string    { return t.apply(t.Label, s) }
func (t Theme) SubText(s string) string      { return t.apply(t.Subtext, s) }
func (t Theme) InfoText(s string) string     { return t.apply(t.Info, s) }
func (t Theme) AccentText(s string) string   { return t.apply(t.Accent, s) }
func (t Theme) SuccessText(s string) string  { return t.apply(t.Success, s) }
func (t Theme) WarnText(s string) string     { return t.apply(t.Warning, s) }
func (t Theme) ErrorText(s string) string    { return t.apply(t.Error, s) }

// CursorMark returns the colored "→ " marker or matching padding.
func (t Theme) CursorMark(on bool) string {
	if !on {
		return "  "
	}
	return t.apply(t.Cursor, "→") + " "
}

// ---------- Implementation ----------

func (t Theme) apply(seqCode, s string) string {
	if !t.Enabled || strings.TrimSpace(seqCode) == "" || s == "" {
		return s
	}
	return "\x1b[" + seqCode + "m" + s + "\x1b[0m"
}

func terminalSupportsColor() bool {
	// Respect NO_COLOR https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	termEnv := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	if termEnv == "" || termEnv == "dumb" {
		return false
	}
	for _, token := range []string{"color", "ansi", "xterm", "screen", "tmux", "rxvt"} {
		if strings.Contains(termEnv, token) {
			return true
		}
	}
	// Default to true in interactive contexts
	return true
}

func truecolorCapable() bool {
	ct := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	return ct == "truecolor" || ct == "24bit"
}

func defaultThemePath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme.json"), nil
}

// DefaultConfigDir returns the sshmenu configuration directory:
// $XDG_CONFIG_HOME/sshmenu when XDG_CONFIG_HOME is set, otherwise
// ~/.config/sshmenu.
func DefaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sshmenu"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sshmenu"), nil
}

func loadThemeFromFile(path string) (Theme, error) {
	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		return Theme{}, err
	}
	var tf ThemeFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return Theme{}, err
	}
	base, ok := themeByName(tf.Name)
	if !ok {
		base = AutoTheme()
	}
	if tf.Enabled != nil {
		base.Enabled = *tf.Enabled
	}
	if tf.Colors != nil {
		override := func(key string, dst *string) {
			if v, ok := tf.Colors[key]; ok {
				if s := parseStyleSequence(v); s != "" {
					*dst = s
				}
			}
		}
		override("header", &base.Header)
		override("border", &base.Border)
		override("selected", &base.Selected)
		override("cursor", &base.Cursor)
		override("text", &base.Text)
		override("subtext", &base.Subtext)
		override("label", &base.Label)
		override("info", &base.Info)
		override("accent", &base.Accent)
		override("highlight", &base.Highlight)
		override("success", &base.Success)
		override("warning", &base.Warning)
		override("error", &base.Error)
	}
	return base, nil
}

// parseStyleSequence converts a user-friendly description into an ANSI SGR sequence.
// Examples:
//
//	"bold red"      -> "1;31"
//	"38;5;214"      -> "38;5;214" (raw sequence passthrough)
//	"color214"      -> "38;5;214"
//	"rgb(255,0,0)"  -> "38;2;255;0;0"
//	"mauve"         -> Catppuccin mauve in truecolor
func parseStyleSequence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if isRawSeq(s) {
		return s
	}

	var codes []string
	for _, p := range strings.Fields(s) {
		p = strings.ToLower(p)
		switch p {
		case "bold":
			codes = append(codes, "1")
		case "faint", "dim":
			codes = append(codes, "2")
		case "italic":
			codes = append(codes, "3")
		case "underline", "ul":
			codes = append(codes, "4")
		case "reverse":
			codes = append(codes, "7")
		case "black":
			codes = append(codes, "30")
		case "red":
			codes = append(codes, "31")
		case "green":
			codes = append(codes, "32")
		case "yellow":
			codes = append(codes, "33")
		case "blue":
			codes = append(codes, "34")
		case "magenta":
			codes = append(codes, "35")
		case "cyan":
			codes = append(codes, "36")
		case "white":
			codes = append(codes, "37")
		case "gray", "grey":
			codes = append(codes, "90")
		case "bright-red":
			codes = append(codes, "91")
		case "bright-green":
			codes = append(codes, "92")
		case "bright-yellow":
			codes = append(codes, "93")
		case "bright-blue":
			codes = append(codes, "94")
		case "bright-magenta":
			codes = append(codes, "95")
		case "bright-cyan":
			codes = append(codes, "96")
		case "bright-white":
			codes = append(codes, "97")
		case "mauve":
			codes = append(codes, "38;2;203;166;247")
		case "lavender":
			codes = append(codes, "38;2;180;190;254")
		case "peach":
			codes = append(codes, "38;2;250;179;135")
		case "teal":
			codes = append(codes, "38;2;148;226;213")
		case "sapphire":
			codes = append(codes, "38;2;116;199;236")
		default:
			// color214 / colorNN -> 256-color FG
			if strings.HasPrefix(p, "color") {
				if n, err := strconv.Atoi(strings.TrimPrefix(p, "color")); err == nil && n >= 0 && n <= 255 {
					codes = append(codes, fmt.Sprintf("38;5;%d", n))
					continue
				}
			}
			// rgb(r,g,b)
			if strings.HasPrefix(p, "rgb(") && strings.HasSuffix(p, ")") {
				body := strings.TrimSuffix(strings.TrimPrefix(p, "rgb("), ")")
				nums := strings.Split(body, ",")
				if len(nums) == 3 {
					r, rErr := strconv.Atoi(strings.TrimSpace(nums[0]))
					g, gErr := strconv.Atoi(strings.TrimSpace(nums[1]))
					b, bErr := strconv.Atoi(strings.TrimSpace(nums[2]))
					if rErr == nil && gErr == nil && bErr == nil &&
						r >= 0 && r <= 255 && g >= 0 && g <= 255 && b >= 0 && b <= 255 {
						codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", r, g, b))
						continue
					}
				}
			}
			// Unknown token; ignore
		}
	}
	return strings.Join(codes, ";")
}

func isRawSeq(s string) bool {
	// allow "38;5;214", "1;31", etc.
	for _, r := range s {
		if (r < '0' || r > '9') && r != ';' {
			return false
		}
	}
	return strings.ContainsRune(s, ';') || isAllDigits(s)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func seq(code string) string { return code }

// Command sshmenu is an interactive ssh launcher: pick a network zone,
// then a server, then a login, and the terminal is handed to ssh until
// the session ends.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"sshmenu/pkg/menu"
)

const version = "1.0.0"

var (
	flagConfig  string
	flagTheme   string
	flagNoColor bool
	flagCheck   bool
	flagVersion bool
)

func init() {
	flag.StringVar(&flagConfig, "config", "", "Path to config.json/config.yaml (defaults to standard locations if empty)")
	flag.StringVar(&flagTheme, "theme", "", "Theme: auto|dark|catppuccin|none, or a path to a theme JSON file")
	flag.BoolVar(&flagNoColor, "no-color", false, "Disable colors (same effect as NO_COLOR)")
	flag.BoolVar(&flagCheck, "check", false, "Load and validate the configuration, then exit")
	flag.BoolVar(&flagVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sshmenu\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  sshmenu [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Configuration is read from the first existing candidate:
  $SSHMENU_CONFIG
  ./config.json, ./config.yaml, ./config.yml
  ~/.config/sshmenu/config.json (.yaml, .yml)

Examples:
  sshmenu
  sshmenu -config ./config.yaml
  sshmenu -check -config /etc/sshmenu/config.json
  sshmenu -theme catppuccin
  sshmenu -theme ~/.config/sshmenu/theme.json
`)
	}
}

func main() {
	flag.Parse()

	if flagVersion {
		fmt.Printf("sshmenu %s\n", version)
		return
	}

	cfg, path, err := menu.LoadConfig(flagConfig)
	if err != nil {
		reportLoadError(err)
		os.Exit(1)
	}

	if flagCheck {
		fmt.Printf("%s: OK\n", path)
		return
	}

	theme := menu.LoadTheme(flagTheme)
	if flagNoColor {
		theme = menu.NoTheme()
	}

	err = menu.RunTUI(cfg, menu.UIOptions{Theme: theme})
	switch {
	case err == nil:
	case errors.Is(err, menu.ErrInterrupted):
		fmt.Println("\nGoodbye!")
	default:
		fmt.Fprintf(os.Stderr, "sshmenu: %v\n", err)
		os.Exit(1)
	}
}

// reportLoadError prints load failures the way operators read them: the
// not-found/parse wording on one line, validation findings as a bullet
// list under a header.
func reportLoadError(err error) {
	var verr *menu.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(os.Stderr, "Configuration validation failed:")
		fmt.Fprintln(os.Stderr)
		for _, f := range verr.Findings {
			fmt.Fprintf(os.Stderr, "  • %s\n", f)
		}
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

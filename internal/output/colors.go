package output

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for the different output elements.
type ColorScheme struct {
	Method      *color.Color
	URL         *color.Color
	StatusOK    *color.Color
	StatusWarn  *color.Color
	StatusError *color.Color
	HeaderKey   *color.Color
	HeaderValue *color.Color
	Success     *color.Color
	Error       *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Method:      color.New(color.FgBlue, color.Bold),
		URL:         color.New(color.FgCyan),
		StatusOK:    color.New(color.FgGreen, color.Bold),
		StatusWarn:  color.New(color.FgYellow, color.Bold),
		StatusError: color.New(color.FgRed, color.Bold),
		HeaderKey:   color.New(color.FgYellow),
		HeaderValue: color.New(color.FgWhite),
		Success:     color.New(color.FgGreen),
		Error:       color.New(color.FgRed),
	}
}

// NoColorScheme returns a scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range []*color.Color{
		scheme.Method, scheme.URL,
		scheme.StatusOK, scheme.StatusWarn, scheme.StatusError,
		scheme.HeaderKey, scheme.HeaderValue,
		scheme.Success, scheme.Error,
	} {
		c.DisableColor()
	}
	return scheme
}

// IsTerminal reports whether stdout is an interactive terminal; color is
// disabled automatically when it is not.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

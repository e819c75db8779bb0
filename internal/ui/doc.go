// Package ui holds the shared color themes for imgcache's presentation
// layers. It exposes ANSI escape code accessors used by the CLI tables and
// spinner, and lipgloss palettes used by the cache monitor TUI, so both
// surfaces honor the same dark and no-color schemes.
//
// The active theme is process-wide and selected once at startup from the
// -no-color flag and the NO_COLOR environment variable.
package ui

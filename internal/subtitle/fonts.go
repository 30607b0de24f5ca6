package subtitle

import "strings"

// fontFallback maps private or platform-unavailable font family names to a
// portable equivalent bundled with the render environment.
var fontFallback = map[string]string{
	"-apple-system":       "Helvetica",
	"BlinkMacSystemFont":  "Helvetica",
	"Segoe UI":            "Arial",
	"SF Pro Text":         "Helvetica",
	"San Francisco":       "Helvetica",
	"Roboto":              "Arial",
}

// mapFontName resolves a requested font family to one known to be
// installed. Names beginning with "." (macOS private system font family
// names, e.g. ".SF NS Text") fall back to the platform default outright.
func mapFontName(name string) string {
	if name == "" {
		return "Arial"
	}
	if strings.HasPrefix(name, ".") {
		return "Arial"
	}
	if mapped, ok := fontFallback[name]; ok {
		return mapped
	}
	return name
}

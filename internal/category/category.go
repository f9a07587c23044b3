// Package category defines the closed set of activity labels a timer can be
// started in.
package category

// Unrecorded is a synthetic label used only in aggregated output for the
// portion of a window not covered by any session. It is never persisted.
const Unrecorded = "unrecorded"

// All is the label a statistics request uses to ask for every category.
const All = "all"

// Names lists the known activity categories.
var Names = []string{
	"work",
	"study",
	"leisure",
	"rest",
	"reading",
	"exercise",
	"meal",
	"walk",
}

var known = func() map[string]bool {
	m := make(map[string]bool, len(Names))
	for _, n := range Names {
		m[n] = true
	}
	return m
}()

// Valid reports whether name is a known activity category.
func Valid(name string) bool {
	return known[name]
}

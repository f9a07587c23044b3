package category

import "testing"

func TestValid(t *testing.T) {
	for _, name := range Names {
		if !Valid(name) {
			t.Errorf("%q must be valid", name)
		}
	}
	for _, name := range []string{"", "napping", "Work", "all", Unrecorded} {
		if Valid(name) {
			t.Errorf("%q must not be a recordable category", name)
		}
	}
}

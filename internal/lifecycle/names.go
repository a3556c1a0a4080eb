package lifecycle

import (
	"strings"
	"unicode"
)

// deriveNameFromEmail guesses a display name from the address's local part
// when the upstream payload carries none. "jane.doe@x.org" becomes
// ("Jane", "Doe"); a single token yields it as the first name with a
// placeholder surname.
func deriveNameFromEmail(email string) (string, string) {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "Donor", "Donor"
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		switch r {
		case '.', '_', '-', '+':
			return true
		}
		return false
	})
	if len(parts) == 0 {
		return "Donor", "Donor"
	}

	first := titleCase(parts[0])
	last := "Donor"
	if len(parts) > 1 {
		last = titleCase(parts[len(parts)-1])
	}
	return first, last
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

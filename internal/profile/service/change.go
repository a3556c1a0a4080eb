package service

import "donorhub/internal/profile/models"

// addressChanged reports whether the proposed address constitutes a material
// change against the original.
//
// An empty proposed address is never a change: a payload that omits the
// address means "no address change", even if the original had one. The
// comparison is asymmetric: only fields present in the proposed address are
// checked, so fields dropped from the payload do not count as changes. A
// proposed field the original lacks is a change even when its value is
// empty, hence the explicit presence check.
func addressChanged(original, proposed models.Address) bool {
	if len(proposed) == 0 {
		return false
	}
	if len(original) == 0 {
		return true
	}
	for key, value := range proposed {
		existing, ok := original[key]
		if !ok || existing != value {
			return true
		}
	}
	return false
}

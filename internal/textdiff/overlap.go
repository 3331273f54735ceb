package textdiff

// Overlaps reports whether any interval in a intersects any interval in b.
// It returns on the first hit. Empty sets never overlap.
func Overlaps(a, b []Interval) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Overlaps(y) {
				return true
			}
		}
	}
	return false
}

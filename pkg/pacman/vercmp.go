package pacman

import "strings"

// Vercmp compares two pacman versions ([epoch:]version[-release]) and
// returns -1, 0 or 1. Alphabetic segments sort before numeric ones, so
// 1.0a < 1.0 < 1.0.1.
func Vercmp(a, b string) int {
	if a == b {
		return 0
	}

	e1, v1, r1 := parseEVR(a)
	e2, v2, r2 := parseEVR(b)

	ret := rpmvercmp(e1, e2)
	if ret == 0 {
		ret = rpmvercmp(v1, v2)
		if ret == 0 && r1 != "" && r2 != "" {
			ret = rpmvercmp(r1, r2)
		}
	}
	return ret
}

// parseEVR splits epoch, version and release; the epoch defaults to "0"
func parseEVR(evr string) (epoch, version, release string) {
	i := 0
	for i < len(evr) && isDigit(evr[i]) {
		i++
	}

	epoch, version = "0", evr
	if i < len(evr) && evr[i] == ':' {
		if i > 0 {
			epoch = evr[:i]
		}
		version = evr[i+1:]
	}

	if j := strings.LastIndexByte(version, '-'); j >= 0 {
		release = version[j+1:]
		version = version[:j]
	}
	return epoch, version, release
}

func rpmvercmp(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		p1, p2 := i, j

		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i >= len(a) || j >= len(b) {
			break
		}

		// More separators means a newer version
		if i-p1 != j-p2 {
			if i-p1 < j-p2 {
				return -1
			}
			return 1
		}

		p1, p2 = i, j
		isNum := isDigit(a[p1])
		if isNum {
			for p1 < len(a) && isDigit(a[p1]) {
				p1++
			}
			for p2 < len(b) && isDigit(b[p2]) {
				p2++
			}
		} else {
			for p1 < len(a) && isAlpha(a[p1]) {
				p1++
			}
			for p2 < len(b) && isAlpha(b[p2]) {
				p2++
			}
		}

		// Segments of different types: numeric wins
		if j == p2 {
			if isNum {
				return 1
			}
			return -1
		}

		s1, s2 := a[i:p1], b[j:p2]
		if isNum {
			s1 = strings.TrimLeft(s1, "0")
			s2 = strings.TrimLeft(s2, "0")
			if len(s1) != len(s2) {
				if len(s1) > len(s2) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(s1, s2); c != 0 {
			return c
		}

		i, j = p1, p2
	}

	end1, end2 := i >= len(a), j >= len(b)
	if end1 && end2 {
		return 0
	}
	if (end1 && !isAlpha(b[j])) || (!end1 && isAlpha(a[i])) {
		return -1
	}
	return 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }

package common

func ContainsString(a []string, s string) bool {
	return FindString(a, s) >= 0
}

func FindString(a []string, s string) int {
	for i, z := range a {
		if z == s {
			return i
		}
	}
	return -1
}

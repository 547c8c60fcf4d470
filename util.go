package filewatch

import "os"

const sep = string(os.PathSeparator)

// split breaks a path into its parent directory and base name. It gives
// ("", s) for a bare name and keeps the root separator for top-level paths.
func split(s string) (string, string) {
	if i := lastIndexSep(s); i != -1 {
		if i == 0 {
			return sep, s[1:]
		}
		return s[:i], s[i+1:]
	}
	return "", s
}

func lastIndexSep(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == os.PathSeparator {
			return i
		}
	}
	return -1
}

package helpers

import "strings"

// LastSplitPart returns the final segment of target after splitting on separate.
func LastSplitPart(target string, separate string) string {
	parts := strings.Split(target, separate)
	return parts[len(parts)-1]
}

package meta

import (
	"os"
	"strings"
)

const envPrefix = "${env."

// Expand replaces ${env.KEY} with the KEY environment variable, empty when
// unset. Expressions with a key other than letters, digits and '_' are kept
// literally; an unterminated expression ends the scan.
func Expand(text string) string {
	var b strings.Builder
	for {
		start := strings.Index(text, envPrefix)
		if start < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:start])
		rest := text[start+len(envPrefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString(text[start:])
			return b.String()
		}
		key := rest[:end]
		if !isEnvKey(key) {
			b.WriteString(envPrefix)
			text = rest
			continue
		}
		b.WriteString(os.Getenv(key))
		text = rest[end+1:]
	}
}

func isEnvKey(key string) bool {
	for _, r := range key {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

package artifact

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Naming selects how final summaries are named.
type Naming string

const (
	// NamingWords uses the first words of the input text.
	NamingWords Naming = "words"
	// NamingHash uses a short MD5 prefix of the input text.
	NamingHash Naming = "hash"
)

// Valid returns true if the naming scheme is known.
func (n Naming) Valid() bool {
	return n == NamingWords || n == NamingHash
}

// DefaultSummaryWords is how many words of the input a summary name keeps.
const DefaultSummaryWords = 5

// maxConciseBytes keeps a word-based prefix short enough that the summary
// suffix, a pass suffix and the temp-file extension still fit in 255 bytes.
const maxConciseBytes = 150

// SummaryTimeLayout stamps final summary names.
const SummaryTimeLayout = "20060102_150405"

// ConciseName joins the first k whitespace-separated words of text with
// underscores. Characters that are unsafe in file names are replaced.
func ConciseName(text string, k int) string {
	if k <= 0 {
		k = DefaultSummaryWords
	}
	words := strings.Fields(text)
	if len(words) > k {
		words = words[:k]
	}
	return truncateBytes(sanitize(strings.Join(words, "_")), maxConciseBytes)
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// HashedName returns the first 8 hex characters of the MD5 of text.
func HashedName(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:8]
}

// WorkerName names a worker's response by its step identity.
func WorkerName(step int) string {
	return fmt.Sprintf("Agent_%d_Response", step)
}

// PlanName names the CEO's plan for a pass started at t.
func PlanName(t time.Time) string {
	return "Initial_Plan_" + t.Format(SummaryTimeLayout)
}

// SummaryName names a final summary: a truncated or hashed form of text,
// then a timestamp.
func SummaryName(text string, naming Naming, words int, t time.Time) string {
	var prefix string
	if naming == NamingHash {
		prefix = HashedName(text)
	} else {
		prefix = ConciseName(text, words)
	}
	if prefix == "" {
		prefix = "untitled"
	}
	return prefix + "_Final_Summary_" + t.Format(SummaryTimeLayout)
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|' || r == 0:
			b.WriteRune('-')
		case r < 0x20:
			// control characters are dropped
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	// A leading dot would hide the file.
	return strings.TrimLeft(out, ".")
}

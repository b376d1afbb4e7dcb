// Package normalize repairs mojibake in upstream text and extracts year tokens.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// markers are byte sequences typical of UTF-8 text that was decoded as
// Latin-1 or CP1252. The replacement character counts as a marker too so
// that scoring penalizes lossy recodes.
var markers = []string{"Ã", "Â", "â€", "�"}

// residual maps artifact sequences that survive a failed recode to their
// intended characters.
var residual = [][2]string{
	{"â€™", "’"},
	{"â€˜", "‘"},
	{"â€œ", "“"},
	{"â€" + "\u009d", "”"},
	{"â€“", "–"},
	{"â€”", "—"},
	{"â€¦", "…"},
	{"Â©", "©"},
	{"Â§", "§"},
	{"Â°", "°"},
	{"Â" + "\u00a0", " "},
	{"\u00a0", " "},
}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// HasMojibake reports whether s contains any known mojibake marker.
func HasMojibake(s string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// countMarkers scores a candidate by how many marker sequences remain.
func countMarkers(s string) int {
	n := 0
	for _, m := range markers {
		n += strings.Count(s, m)
	}
	return n
}

// maxRepairPasses bounds the repair loop. Each productive pass strips one
// layer of misdecoding, so double- and triple-encoded text lands well
// inside the bound.
const maxRepairPasses = 4

// Repair fixes text whose UTF-8 bytes were misdecoded as Latin-1 or CP1252,
// repeating until no marker remains or a pass stops improving, so that
// multiply-encoded text is unwound layer by layer. Repair never fails; on
// any recode problem the input is kept. Repair(Repair(s)) == Repair(s).
func Repair(s string) string {
	out := s
	for pass := 0; pass < maxRepairPasses; pass++ {
		if !HasMojibake(out) {
			return out
		}
		next := repairOnce(out)
		if next == out {
			return out
		}
		out = next
	}
	return out
}

// repairOnce strips one layer: it tries both recodes, keeps the candidate
// with strictly fewer marker sequences than the input, then applies literal
// replacements for residual artifacts.
func repairOnce(s string) string {
	best := s
	bestScore := countMarkers(s)
	for _, recode := range []func(string) (string, bool){recodeLatin1, recodeCP1252} {
		candidate, ok := recode(s)
		if !ok {
			continue
		}
		if score := countMarkers(candidate); score < bestScore {
			best = candidate
			bestScore = score
		}
	}

	for _, r := range residual {
		best = strings.ReplaceAll(best, r[0], r[1])
	}
	return best
}

// recodeLatin1 re-encodes s as Latin-1 bytes and reinterprets them as UTF-8.
// Fails when s has runes outside Latin-1 or the bytes are not valid UTF-8.
func recodeLatin1(s string) (string, bool) {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return "", false
		}
		b = append(b, byte(r))
	}
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// recodeCP1252 re-encodes s as CP1252 bytes and reinterprets them as UTF-8.
func recodeCP1252(s string) (string, bool) {
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return "", false
	}
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// ExtractYear returns the first plausible 4-digit year in s, or "".
func ExtractYear(s string) string {
	return yearRe.FindString(s)
}

package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	lyricsPath = regexp.MustCompile(`/([-a-zA-Z0-9]+)-lyrics$`)
	bracketed  = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]`)
	dashSuffix = regexp.MustCompile(`\s+-\s+.*$`)
	separators = regexp.MustCompile(`[\s-]+`)
)

// StripperFromPath extracts the stripper from a lyrics page path such as "/Artist-song-lyrics".
func StripperFromPath(path string) (string, bool) {
	m := lyricsPath.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// GuessStripper builds the stripper a client would derive locally for song and artist.
//
// Bracketed text and " - " suffixes (remaster, live, feat. credits) are dropped from the song, accents are folded,
// punctuation is removed and words are joined with hyphens.
func GuessStripper(song, artist string) string {
	song = bracketed.ReplaceAllString(song, "")
	song = dashSuffix.ReplaceAllString(song, "")

	s := strings.TrimSpace(artist) + " " + strings.TrimSpace(song)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "/", " ")
	s = foldAccents(s)

	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r), r == '-':
			return r
		}
		return -1
	}, s)
	s = strings.Trim(separators.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return ""
	}

	rs := []rune(strings.ToLower(s))
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

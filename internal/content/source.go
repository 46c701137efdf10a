// Package content supplies the text the bot sends: translation questions and
// generic confirmation replies. Both come from line-oriented sources that are
// re-read on every pick, so editing the files takes effect without a restart.
//
//   - No logging in the library (callers decide how/what to log)
//   - Never fails: an empty or unreadable source yields a fixed fallback
//   - Safe for concurrent use
package content

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Source yields raw lines.
type Source interface {
	Lines() ([]string, error)
}

// FileSource reads lines from a file on each call. A read error, such as a
// line longer than 1 MiB, ends the read; the lines before it are returned
// together with the error.
type FileSource string

// Lines implements Source.
func (p FileSource) Lines() ([]string, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// StaticSource serves a fixed set of lines.
type StaticSource []string

// Lines implements Source.
func (s StaticSource) Lines() ([]string, error) { return []string(s), nil }

// eligible returns trimmed, NFC-normalized lines that are neither blank nor
// '#' comments. Lines returned alongside a read error are still used.
func eligible(src Source) []string {
	if src == nil {
		return nil
	}
	lines, _ := src.Lines()
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(strings.TrimPrefix(l, "\ufeff"))
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		out = append(out, norm.NFC.String(l))
	}
	return out
}

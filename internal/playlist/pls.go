// SPDX-License-Identifier: MIT

// Package playlist reads and writes the appliance's PLS station list.
package playlist

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Firmware limits. Title and URL limits are in bytes.
const (
	MaxEntries = 20
	MaxTitle   = 63
	MaxURL     = 255
)

// Entry is one station of the list.
type Entry struct {
	Title string
	URL   string
}

// Parse reads PLS content the way the appliance does: a Title line names the
// entry that the next File line completes, and the number suffixes are
// ignored. Anything past MaxEntries is dropped.
func Parse(r io.Reader) ([]Entry, error) {
	entries := make([]Entry, 0, MaxEntries)
	var pending Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 512), 64*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		eq := strings.IndexByte(line, '=')
		if eq < 0 || len(entries) >= MaxEntries {
			continue
		}
		value := line[eq+1:]

		switch {
		case strings.HasPrefix(line, "Title"):
			pending.Title = Clamp(value, MaxTitle)
		case strings.HasPrefix(line, "File"):
			pending.URL = Clamp(value, MaxURL)
			entries = append(entries, pending)
			pending = Entry{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	return entries, nil
}

// Write renders entries as PLS version 2. Title lines precede File lines so
// Parse reads the file back unchanged.
func Write(w io.Writer, entries []Entry) error {
	buf := &bytes.Buffer{}
	buf.WriteString("[playlist]\n")
	for i, e := range entries {
		n := i + 1
		fmt.Fprintf(buf, "Title%d=%s\n", n, singleLine(e.Title))
		fmt.Fprintf(buf, "File%d=%s\n", n, singleLine(e.URL))
		fmt.Fprintf(buf, "Length%d=-1\n", n)
	}
	fmt.Fprintf(buf, "NumberOfEntries=%d\n", len(entries))
	buf.WriteString("Version=2\n")
	_, err := io.Copy(w, buf)
	return err
}

// Clamp cuts s to at most n bytes without splitting a UTF-8 sequence.
func Clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func singleLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// Package ingest turns uploaded CSV text into header-keyed records.
//
// The format is deliberately simple: one record per line, fields separated by
// a bare comma. Quoting is not understood, so a field containing a comma is
// split in two. Header rows are optional and detected heuristically:
//
//  1. the first line equals the expected headers: it is the header;
//  2. the first line mentions song_name or artist_name: it is the header;
//  3. expected headers were given: there is no header row;
//  4. otherwise headers are guessed from the column count
//     (2 → song_name,song_link; 1 → artist_name).
//
// A two-column file whose first data row happens to read "song_name,…" is
// indistinguishable from a headed file; that ambiguity is inherent.
package ingest

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Column names shared by the catalog files and uploads.
const (
	SongNameHeader   = "song_name"
	SongLinkHeader   = "song_link"
	ArtistNameHeader = "artist_name"
)

var (
	// SongHeaders is the layout of an artist's song file.
	SongHeaders = []string{SongNameHeader, SongLinkHeader}

	// ArtistHeaders is the layout of the master artist list.
	ArtistHeaders = []string{ArtistNameHeader}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Record maps a header name to the trimmed field value of one line.
type Record map[string]string

// Get returns the value for header, or "" when absent.
func (r Record) Get(header string) string {
	return r[header]
}

// Line is a parsed record together with its 1-based line number in the
// original content, header and blank lines included.
type Line struct {
	Number int
	Record Record
}

// ParseBytes sanitizes raw upload bytes (invalid UTF-8, leading BOM) and
// parses them with Parse.
func ParseBytes(data []byte, expected []string) []Record {
	return records(ParseBytesLines(data, expected))
}

// ParseBytesLines is ParseBytes keeping the file line of every record.
func ParseBytesLines(data []byte, expected []string) []Line {
	data = bytes.TrimPrefix(sanitizeUTF8(data), utf8BOM)
	return ParseLines(string(data), expected)
}

// Parse splits content into records. expected may be nil.
func Parse(content string, expected []string) []Record {
	return records(ParseLines(content, expected))
}

// ParseLines is Parse keeping the file line of every record.
func ParseLines(content string, expected []string) []Line {
	// Blank lines trimmed from the top still count towards line numbers.
	trimmed := strings.TrimLeft(content, " \t\r\n")
	offset := strings.Count(content[:len(content)-len(trimmed)], "\n")

	content = strings.TrimSpace(trimmed)
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	first := splitLine(lines[0])

	headers, start := detectHeaders(first, expected)
	if headers == nil {
		return nil
	}

	var out []Line
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		values := splitLine(lines[i])
		rec := make(Record, len(headers))
		for j, h := range headers {
			if j < len(values) {
				rec[h] = values[j]
			} else {
				rec[h] = ""
			}
		}
		out = append(out, Line{Number: offset + i + 1, Record: rec})
	}
	return out
}

func records(lines []Line) []Record {
	if lines == nil {
		return nil
	}
	recs := make([]Record, len(lines))
	for i, l := range lines {
		recs[i] = l.Record
	}
	return recs
}

// detectHeaders returns the header names and the index of the first data line.
func detectHeaders(first, expected []string) ([]string, int) {
	if len(expected) > 0 && hasPrefix(first, expected) {
		return expected, 1
	}
	if contains(first, SongNameHeader) || contains(first, ArtistNameHeader) {
		return first, 1
	}
	if len(expected) > 0 {
		return expected, 0
	}

	switch len(first) {
	case 2:
		return SongHeaders, 0
	case 1:
		return ArtistHeaders, 0
	default:
		return nil, 0
	}
}

func splitLine(line string) []string {
	parts := strings.Split(strings.TrimSpace(line), ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func hasPrefix(values, prefix []string) bool {
	if len(values) < len(prefix) {
		return false
	}
	for i := range prefix {
		if values[i] != prefix[i] {
			return false
		}
	}
	return true
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

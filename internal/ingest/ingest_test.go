package ingest

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
		want     []Record
	}{
		{
			name:     "empty content",
			content:  "",
			expected: SongHeaders,
			want:     nil,
		},
		{
			name:     "whitespace only",
			content:  "  \n\n ",
			expected: SongHeaders,
			want:     nil,
		},
		{
			name:     "expected header consumed",
			content:  "song_name,song_link\nA,http://x\nB,http://y",
			expected: SongHeaders,
			want: []Record{
				{"song_name": "A", "song_link": "http://x"},
				{"song_name": "B", "song_link": "http://y"},
			},
		},
		{
			name:     "headerless file with expected headers treats every line as data",
			content:  "A,http://x\nB,http://y",
			expected: SongHeaders,
			want: []Record{
				{"song_name": "A", "song_link": "http://x"},
				{"song_name": "B", "song_link": "http://y"},
			},
		},
		{
			name:     "headerless two-column file infers song headers",
			content:  "A,http://x\nB,http://y\n",
			expected: nil,
			want: []Record{
				{"song_name": "A", "song_link": "http://x"},
				{"song_name": "B", "song_link": "http://y"},
			},
		},
		{
			name:     "headerless one-column file infers artist header",
			content:  "Foo\nBar",
			expected: nil,
			want: []Record{
				{"artist_name": "Foo"},
				{"artist_name": "Bar"},
			},
		},
		{
			name:     "three unnamed columns without expectations yields nothing",
			content:  "a,b,c\nd,e,f",
			expected: nil,
			want:     nil,
		},
		{
			name:     "self-describing header in other order",
			content:  "song_link,song_name\nhttp://x,A",
			expected: SongHeaders,
			want: []Record{
				{"song_link": "http://x", "song_name": "A"},
			},
		},
		{
			name:     "artist list header detected without expectations",
			content:  "artist_name\nFoo\n",
			expected: nil,
			want: []Record{
				{"artist_name": "Foo"},
			},
		},
		{
			name:     "blank lines skipped and values trimmed",
			content:  "song_name,song_link\n\n  A , http://x \n   \nB,http://y",
			expected: SongHeaders,
			want: []Record{
				{"song_name": "A", "song_link": "http://x"},
				{"song_name": "B", "song_link": "http://y"},
			},
		},
		{
			name:     "CRLF line endings",
			content:  "song_name,song_link\r\nA,http://x\r\n",
			expected: SongHeaders,
			want: []Record{
				{"song_name": "A", "song_link": "http://x"},
			},
		},
		{
			name:     "missing trailing value becomes empty",
			content:  "song_name,song_link\nA",
			expected: SongHeaders,
			want: []Record{
				{"song_name": "A", "song_link": ""},
			},
		},
		{
			name:     "extra values dropped",
			content:  "song_name,song_link\nA,http://x,extra",
			expected: SongHeaders,
			want: []Record{
				{"song_name": "A", "song_link": "http://x"},
			},
		},
		{
			name:     "header only",
			content:  "song_name,song_link\n",
			expected: SongHeaders,
			want:     nil,
		},
		{
			// Naive splitting: quotes are not interpreted and a comma inside
			// a quoted field starts a new field.
			name:     "quoted comma is split naively",
			content:  "song_name,song_link\n\"Hello, World\",http://x",
			expected: SongHeaders,
			want: []Record{
				{"song_name": "\"Hello", "song_link": "World\""},
			},
		},
		{
			// Two rows, two columns, no keyword: with expectations the first
			// row is data, never a header.
			name:     "ambiguous two-row file keeps first row as data",
			content:  "title,url\nA,http://x",
			expected: SongHeaders,
			want: []Record{
				{"song_name": "title", "song_link": "url"},
				{"song_name": "A", "song_link": "http://x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.content, tt.expected)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []Record
	}{
		{
			name:  "leading BOM stripped so header matches",
			input: append([]byte{0xEF, 0xBB, 0xBF}, []byte("song_name,song_link\nA,http://x")...),
			want:  []Record{{"song_name": "A", "song_link": "http://x"}},
		},
		{
			name:  "invalid UTF-8 replaced",
			input: []byte("song_name,song_link\nA\x80,http://x"),
			want:  []Record{{"song_name": "A\uFFFD", "song_link": "http://x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBytes(tt.input, SongHeaders)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBytes() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRecordGet(t *testing.T) {
	r := Record{"song_name": "A"}
	if r.Get("song_name") != "A" {
		t.Errorf("Get(song_name) = %q", r.Get("song_name"))
	}
	if r.Get("song_link") != "" {
		t.Errorf("Get(song_link) = %q, want empty", r.Get("song_link"))
	}
}

func BenchmarkParse(b *testing.B) {
	content := "song_name,song_link\n"
	for i := 0; i < 1000; i++ {
		content += "Song,http://example.com/song\n"
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(content, SongHeaders)
	}
}

func TestParseLines_Numbers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []int
	}{
		{"header counts as line 1", "song_name,song_link\nA,http://a\nB,http://b", []int{2, 3}},
		{"headerless", "A,http://a\nB,http://b", []int{1, 2}},
		{"blank lines skipped but counted", "song_name,song_link\n\nA,http://a\n\n\nB,http://b\n", []int{3, 6}},
		{"leading blank lines counted", "\n\nA,http://a", []int{3}},
		{"crlf", "A,http://a\r\nB,http://b\r\n", []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := ParseLines(tt.content, SongHeaders)
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d", len(lines), len(tt.want))
			}
			for i, l := range lines {
				if l.Number != tt.want[i] {
					t.Errorf("record %d: line = %d, want %d", i, l.Number, tt.want[i])
				}
			}
		})
	}
}

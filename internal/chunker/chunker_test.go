package chunker

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func mustNew(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := New(size, overlap)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", size, overlap, err)
	}
	return c
}

func TestNewValidatesBounds(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{{0, 0}, {-1, 0}, {10, -1}, {10, 10}, {10, 11}} {
		if _, err := New(tc.size, tc.overlap); err == nil {
			t.Errorf("New(%d, %d): expected error", tc.size, tc.overlap)
		}
	}
	if _, err := New(DefaultSize, DefaultOverlap); err != nil {
		t.Errorf("defaults rejected: %v", err)
	}
}

func TestSplit(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
		text    string
		want    []string
	}{
		{
			name: "fits in one chunk",
			size: 700, overlap: 100,
			text: "Para one.\n\nPara two.",
			want: []string{"Para one.\n\nPara two."},
		},
		{
			name: "blank paragraphs are skipped",
			size: 700, overlap: 100,
			text: "a\n\n\n\n  \n\nb",
			want: []string{"a\n\nb"},
		},
		{
			name: "overlap carries the tail of the previous chunk",
			size: 10, overlap: 3,
			text: "aaaa\n\nbbbb\n\ncccc",
			want: []string{"aaaa", "a\n\n\n\nbbbb", "b\n\n\n\ncccc"},
		},
		{
			name: "overlap tail is joined to the paragraph by a blank line",
			size: 10, overlap: 3,
			text: "aaaa\n\nbbbb",
			want: []string{"aaaa", "a\n\n\n\nbbbb"},
		},
		{
			name: "overlap made only of the separator is trimmed away",
			size: 12, overlap: 2,
			text: "xyzaaaa\n\nbbbbbbbb",
			want: []string{"xyzaaaa", "bbbbbbbb"},
		},
		{
			name: "long paragraph is cut into windows",
			size: 10, overlap: 3,
			text: "abcdefghijklmnopqrstu",
			want: []string{"abcdefghij", "hijklmnopq", "opqrstu", "stu"},
		},
		{
			name: "long paragraph after buffered text",
			size: 10, overlap: 3,
			text: "ab\n\nabcdefghijklmnopqrstu\n\nxy",
			want: []string{"ab", "abcdefghij", "hijklmnopq", "opqrstu", "stu\n\nxy"},
		},
		{
			name: "empty input",
			size: 10, overlap: 3,
			text: "\n\n   \n\n",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := contents(mustNew(t, tc.size, tc.overlap).Split(tc.text, "doc.md"))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Split() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSplitCountsCodePoints(t *testing.T) {
	got := contents(mustNew(t, 5, 1).Split("ééééééé", "doc.md"))
	want := []string{"ééééé", "ééé", "é"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split() = %q, want %q", got, want)
	}
	for _, c := range got {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %q is not valid UTF-8", c)
		}
	}
}

func TestSplitInvariants(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString(strings.Repeat("word ", 10+i%40))
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Repeat("x", 2000))

	c := mustNew(t, DefaultSize, DefaultOverlap)
	path := "docs/Part-II-Digital-Twins/gazebo-basics.md"
	chunks := c.Split(b.String(), path)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Content == "" || strings.TrimSpace(ch.Content) != ch.Content {
			t.Errorf("chunk %d is empty or untrimmed", i)
		}
		if n := utf8.RuneCountInString(ch.Content); n > DefaultSize+DefaultOverlap {
			t.Errorf("chunk %d has %d runes", i, n)
		}
		if ch.SourceFile != path || ch.BookPart != "Part II: Digital Twins" || ch.ChapterTitle != "Gazebo Basics" {
			t.Errorf("chunk %d has metadata %+v", i, ch)
		}
	}
}

func TestExtractMetadata(t *testing.T) {
	cases := []struct {
		path, part, title string
	}{
		{"docs/Part-I-Foundations/week-1-introduction-to-physical-ai.md", "Part I: Foundations", "Week 1: Introduction to Physical Ai"},
		{"docs/01-Part-I-Foundations/01-Chapter-Physical-AI/01-Intro.md", "Part I: Foundations", "01 Intro"},
		{"docs/Part-III-NVIDIA-Isaac/week-3-ros-2-nodes.md", "Part III: NVIDIA Isaac", "Week 3: ROS 2 Nodes"},
		{"Part-IV-VLA-Humanoid/vla-models.mdx", "Part IV: VLA & Humanoid", "Vla Models"},
		{"docs/appendix/glossary.md", "", "Glossary"},
		{"docs/Part-I-Foundations-extra/intro.md", "", "Intro"},
	}
	for _, tc := range cases {
		part, title := ExtractMetadata(tc.path)
		if part != tc.part || title != tc.title {
			t.Errorf("ExtractMetadata(%q) = (%q, %q), want (%q, %q)", tc.path, part, title, tc.part, tc.title)
		}
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"nvidia isaac 2nd": "Nvidia Isaac 2Nd",
		"ROS BASICS":       "Ros Basics",
		"":                 "",
		"écoles d'été":     "Écoles D'Été",
	}
	for in, want := range cases {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

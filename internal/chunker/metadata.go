package chunker

import (
	"path"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// bookParts maps directory names to the display name of the book part.
var bookParts = []struct {
	dir  string
	name string
}{
	{"Part-I-Foundations", "Part I: Foundations"},
	{"Part-II-Digital-Twins", "Part II: Digital Twins"},
	{"Part-III-NVIDIA-Isaac", "Part III: NVIDIA Isaac"},
	{"Part-IV-VLA-Humanoid", "Part IV: VLA & Humanoid"},
}

// ExtractMetadata derives the book part and a readable chapter title from a
// document path. bookPart is empty when no path segment names a known part.
// A numeric ordering prefix on the part directory ("01-Part-I-Foundations")
// is ignored. Both "/" and the OS separator are accepted, so object keys work
// as well as file paths.
func ExtractMetadata(p string) (bookPart, chapterTitle string) {
	segments := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})

	for _, part := range bookParts {
		if slices.ContainsFunc(segments, func(seg string) bool {
			return trimOrderPrefix(seg) == part.dir
		}) {
			bookPart = part.name
			break
		}
	}

	base := path.Base(filepath.ToSlash(p))
	for _, ext := range []string{".mdx", ".md"} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}

	return bookPart, ChapterTitle(base)
}

// ChapterTitle turns a file or directory id into a display title:
// "week-1-introduction-to-physical-ai" becomes
// "Week 1: Introduction to Physical Ai" and "week-3-ros-2-nodes" becomes
// "Week 3: ROS 2 Nodes".
func ChapterTitle(id string) string {
	title := TitleCase(strings.ReplaceAll(id, "-", " "))
	if strings.HasPrefix(title, "Week ") {
		title = strings.ReplaceAll(title, " Introduction To ", ": Introduction to ")
		title = strings.ReplaceAll(title, " Ros 2 ", ": ROS 2 ")
	}
	return title
}

// TitleCase uppercases every letter that follows a non-letter and
// lowercases all other letters, so "nvidia isaac 2nd" becomes
// "Nvidia Isaac 2Nd".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// trimOrderPrefix drops a leading "NN-" ordering prefix.
func trimOrderPrefix(seg string) string {
	i := 0
	for i < len(seg) && seg[i] >= '0' && seg[i] <= '9' {
		i++
	}
	if i > 0 && i < len(seg) && seg[i] == '-' {
		return seg[i+1:]
	}
	return seg
}

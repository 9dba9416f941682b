package minio

import "testing"

func TestHasAnySuffix(t *testing.T) {
	suffixes := []string{".md", ".mdx"}
	cases := map[string]bool{
		"docs/a.md":    true,
		"docs/b.mdx":   true,
		"docs/c.txt":   false,
		"docs/md":      false,
		"docs/d.md.gz": false,
	}
	for key, want := range cases {
		if got := hasAnySuffix(key, suffixes); got != want {
			t.Errorf("hasAnySuffix(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestBufferPoolResets(t *testing.T) {
	bp := NewBufferPool()
	b := bp.Get()
	b.WriteString("leftover")
	bp.Put(b)
	if got := bp.Get(); got.Len() != 0 {
		t.Errorf("pooled buffer not reset, len=%d", got.Len())
	}
}

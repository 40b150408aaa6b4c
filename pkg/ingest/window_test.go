package ingest

import (
	"strings"
	"testing"

	"github.com/conformitas/veridoc/pkg/corpus"
)

func wordCounter(text string) int {
	return len(strings.Fields(text))
}

func chunk(id, section, part, clause, content string) corpus.Chunk {
	return corpus.Chunk{ID: id, Section: section, Part: part, Clause: clause, Content: content}
}

func TestBuildWindowsMergesSameSectionAndPart(t *testing.T) {
	chunks := []corpus.Chunk{
		chunk("c1", "S1", "1", "1.1", "one two three."),
		chunk("c2", "S1", "1", "1.2", "four five six."),
	}

	windows, err := BuildWindows(chunks, 100, wordCounter)
	if err != nil {
		t.Fatalf("BuildWindows() error = %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("BuildWindows() produced %d windows, want 1", len(windows))
	}
	if len(windows[0].ChunkIDs) != 2 {
		t.Errorf("window chunk ids = %v, want [c1 c2]", windows[0].ChunkIDs)
	}
	if windows[0].ID == "" {
		t.Error("window id is empty")
	}
}

func TestBuildWindowsSplitsOnTokenBudget(t *testing.T) {
	chunks := []corpus.Chunk{
		chunk("c1", "S1", "1", "1.1", "one two three four."),
		chunk("c2", "S1", "1", "1.2", "five six seven eight."),
	}

	windows, err := BuildWindows(chunks, 5, wordCounter)
	if err != nil {
		t.Fatalf("BuildWindows() error = %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("BuildWindows() produced %d windows, want 2", len(windows))
	}
}

func TestBuildWindowsSplitsOnSectionChange(t *testing.T) {
	chunks := []corpus.Chunk{
		chunk("c1", "S1", "1", "1.1", "first section content."),
		chunk("c2", "S2", "1", "1.1", "second section content."),
	}

	windows, err := BuildWindows(chunks, 100, wordCounter)
	if err != nil {
		t.Fatalf("BuildWindows() error = %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("BuildWindows() produced %d windows, want 2", len(windows))
	}
	// The overlap resets across the section boundary.
	if strings.Contains(windows[1].Text, "first section") {
		t.Errorf("window 2 carries overlap across a section change: %q", windows[1].Text)
	}
}

func TestBuildWindowsCarriesOverlapWithinSection(t *testing.T) {
	chunks := []corpus.Chunk{
		chunk("c1", "S1", "1", "1.1", "Sentence alpha. Sentence beta. Sentence gamma."),
		chunk("c2", "S1", "1", "1.2", "Sentence delta continues the part."),
	}

	windows, err := BuildWindows(chunks, 8, wordCounter)
	if err != nil {
		t.Fatalf("BuildWindows() error = %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("BuildWindows() produced %d windows, want 2", len(windows))
	}
	if !strings.Contains(windows[1].Text, "Sentence beta. Sentence gamma.") {
		t.Errorf("window 2 missing sentence overlap: %q", windows[1].Text)
	}
	if len(windows[1].ChunkIDs) != 1 || windows[1].ChunkIDs[0] != "c2" {
		t.Errorf("overlap text must not add chunk ids: %v", windows[1].ChunkIDs)
	}
}

func TestBuildWindowsSortsInput(t *testing.T) {
	chunks := []corpus.Chunk{
		chunk("c2", "S1", "1", "1.2", "later clause."),
		chunk("c1", "S1", "1", "1.1", "earlier clause."),
	}

	windows, err := BuildWindows(chunks, 100, wordCounter)
	if err != nil {
		t.Fatalf("BuildWindows() error = %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("BuildWindows() produced %d windows, want 1", len(windows))
	}
	want := []string{"c1", "c2"}
	for i, id := range want {
		if windows[0].ChunkIDs[i] != id {
			t.Errorf("chunk order = %v, want %v", windows[0].ChunkIDs, want)
			break
		}
	}
}

func TestSentenceTail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "last two sentences", in: "One. Two. Three. Four.", n: 2, want: "Three. Four."},
		{name: "fewer sentences than asked", in: "Only one.", n: 2, want: "Only one."},
		{name: "empty", in: "", n: 2, want: ""},
		{name: "zero", in: "One. Two.", n: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sentenceTail(tt.in, tt.n); got != tt.want {
				t.Errorf("sentenceTail(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

package catalog

import (
	"reflect"
	"testing"
)

func TestCleanNames(t *testing.T) {
	got := CleanNames([]string{" Alice", "", "Bob", "Alice", "alice"})
	want := []string{"Alice", "Bob", "alice"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CleanNames: want=%v got=%v", want, got)
	}
}

func TestFeedTrackValidate(t *testing.T) {
	base := FeedTrack{
		Name:            "Song1",
		Artists:         []string{"Alice"},
		Album:           "Alpha",
		DurationSeconds: 200,
		AudioURL:        "https://cdn.example/a.mp3",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := map[string]func(*FeedTrack){
		"no name":    func(f *FeedTrack) { f.Name = " " },
		"no artists": func(f *FeedTrack) { f.Artists = []string{"", " "} },
		"no album":   func(f *FeedTrack) { f.Album = "" },
		"negative":   func(f *FeedTrack) { f.DurationSeconds = -1 },
		"no audio":   func(f *FeedTrack) { f.AudioURL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := base
			mutate(&rec)
			err := rec.Validate()
			if !IsCode(err, CodeValidation) {
				t.Fatalf("Validate: want validation error got=%v", err)
			}
		})
	}
}

func TestFeedPageExhausted(t *testing.T) {
	full := FeedPage{Offset: 0, Limit: 2, Total: 10, Records: make([]FeedTrack, 2)}
	if full.Exhausted() {
		t.Fatalf("full page with more remaining should not be exhausted")
	}
	if full.NextOffset() != 2 {
		t.Fatalf("NextOffset: want=2 got=%d", full.NextOffset())
	}
	short := FeedPage{Offset: 4, Limit: 5, Records: make([]FeedTrack, 3)}
	if !short.Exhausted() {
		t.Fatalf("short page should be exhausted")
	}
	last := FeedPage{Offset: 8, Limit: 2, Total: 10, Records: make([]FeedTrack, 2)}
	if !last.Exhausted() {
		t.Fatalf("page reaching total should be exhausted")
	}
}

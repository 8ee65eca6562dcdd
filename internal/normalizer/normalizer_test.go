package normalizer

import (
	"testing"

	"github.com/desertthunder/trackdown/internal/models"
)

func TestParse(t *testing.T) {
	tc := []struct {
		name  string
		title string
		want  *models.TrackInfo
	}{
		{
			name:  "plain artist and song",
			title: "Daft Punk - One More Time",
			want:  &models.TrackInfo{Artist: "Daft Punk", Song: "One More Time"},
		},
		{
			name:  "ft credit standardized in artist",
			title: "Major Lazer ft. DJ Snake - Lean On",
			want:  &models.TrackInfo{Artist: "Major Lazer feat. DJ Snake", Song: "Lean On"},
		},
		{
			name:  "featuring spelled out",
			title: "Major Lazer featuring DJ Snake - Lean On",
			want:  &models.TrackInfo{Artist: "Major Lazer feat. DJ Snake", Song: "Lean On"},
		},
		{
			name:  "bare feat relocated into parens",
			title: "Calvin Harris - This Is What You Came For ft. Rihanna",
			want:  &models.TrackInfo{Artist: "Calvin Harris", Song: "This Is What You Came For (feat. Rihanna)"},
		},
		{
			name:  "existing feat group untouched",
			title: "Calvin Harris - This Is What You Came For (feat. Rihanna)",
			want:  &models.TrackInfo{Artist: "Calvin Harris", Song: "This Is What You Came For (feat. Rihanna)"},
		},
		{
			name:  "noise brackets stripped and remix preserved",
			title: "Justice - D.A.N.C.E. (Live Remix) (Official Video) 2018",
			want:  &models.TrackInfo{Artist: "Justice", Song: "D.A.N.C.E. (Live Remix)"},
		},
		{
			name:  "square bracket noise stripped",
			title: "Aphex Twin - Windowlicker [HD]",
			want:  &models.TrackInfo{Artist: "Aphex Twin", Song: "Windowlicker"},
		},
		{
			name:  "pipe suffix truncated",
			title: "LCD Soundsystem - All My Friends | Pitchfork Music Festival",
			want:  &models.TrackInfo{Artist: "LCD Soundsystem", Song: "All My Friends"},
		},
		{
			name:  "en dash treated as separator",
			title: "Daft Punk – Harder Better Faster Stronger",
			want:  &models.TrackInfo{Artist: "Daft Punk", Song: "Harder Better Faster Stronger"},
		},
		{
			name:  "interior hyphens rejoined into song",
			title: "Pink Floyd - Another Brick in the Wall - Part 2",
			want:  &models.TrackInfo{Artist: "Pink Floyd", Song: "Another Brick in the Wall - Part 2"},
		},
		{
			name:  "trailing year without brackets",
			title: "New Order - Blue Monday 1983",
			want:  &models.TrackInfo{Artist: "New Order", Song: "Blue Monday"},
		},
		{
			name:  "song that is only a year survives",
			title: "Charli XCX - 1999",
			want:  &models.TrackInfo{Artist: "Charli XCX", Song: "1999"},
		},
		{
			name:  "no separator",
			title: "One More Time",
			want:  nil,
		},
		{
			name:  "empty title",
			title: "",
			want:  nil,
		},
		{
			name:  "separator with empty artist",
			title: "- One More Time",
			want:  nil,
		},
		{
			name:  "song reduced to nothing by stripping",
			title: "Daft Punk - (Official Video)",
			want:  nil,
		},
		{
			name:  "whitespace collapsed",
			title: "  Daft  Punk   -   One  More Time  ",
			want:  &models.TrackInfo{Artist: "Daft Punk", Song: "One More Time"},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.title)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("Parse(%q) = %+v, want nil", tt.title, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Parse(%q) = nil, want %+v", tt.title, tt.want)
			}
			if got.Artist != tt.want.Artist || got.Song != tt.want.Song {
				t.Errorf("Parse(%q) = (%q, %q), want (%q, %q)",
					tt.title, got.Artist, got.Song, tt.want.Artist, tt.want.Song)
			}
		})
	}

	t.Run("idempotent on its own output", func(t *testing.T) {
		titles := []string{
			"Major Lazer ft. DJ Snake - Lean On (Official Music Video)",
			"Calvin Harris - This Is What You Came For ft. Rihanna",
			"Justice - D.A.N.C.E. (Live Remix) (Official Video) 2018",
			"Pink Floyd - Another Brick in the Wall - Part 2",
		}

		for _, title := range titles {
			first := Parse(title)
			if first == nil {
				t.Fatalf("Parse(%q) = nil", title)
			}

			second := Parse(first.Artist + " - " + first.Song)
			if second == nil {
				t.Fatalf("reparse of %q - %q = nil", first.Artist, first.Song)
			}
			if second.Artist != first.Artist || second.Song != first.Song {
				t.Errorf("reparse changed result: (%q, %q) became (%q, %q)",
					first.Artist, first.Song, second.Artist, second.Song)
			}
		}
	})
}

func TestCleanTitle(t *testing.T) {
	tc := []struct {
		name  string
		title string
		want  string
	}{
		{name: "pipe truncation", title: "Song Title | Some Channel", want: "Song Title"},
		{name: "em dash normalized", title: "A — B", want: "A - B"},
		{name: "whitespace collapsed", title: "  a \t b  ", want: "a b"},
		{name: "empty", title: "   ", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.title); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("structured title", func(t *testing.T) {
		q := Normalize("Daft Punk - One More Time (Official Video)", "from Discovery")

		if q.RawTitle != "Daft Punk - One More Time (Official Video)" {
			t.Errorf("unexpected raw title %q", q.RawTitle)
		}
		if !q.HasStructured() {
			t.Fatal("expected structured query")
		}
		if q.Artist != "Daft Punk" || q.Song != "One More Time" {
			t.Errorf("got (%q, %q)", q.Artist, q.Song)
		}
		if q.QueryText() != "Daft Punk One More Time" {
			t.Errorf("unexpected query text %q", q.QueryText())
		}
		if q.RawDescription != "from Discovery" {
			t.Errorf("unexpected description %q", q.RawDescription)
		}
	})

	t.Run("unstructured title keeps raw only", func(t *testing.T) {
		q := Normalize("weird clip no separator", "")

		if q.HasStructured() {
			t.Fatalf("expected unstructured query, got (%q, %q)", q.Artist, q.Song)
		}
		if q.QueryText() != "weird clip no separator" {
			t.Errorf("unexpected query text %q", q.QueryText())
		}
	})
}

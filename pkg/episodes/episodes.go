package episodes

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/podcastr/podcastr/pkg/player"
	"golang.org/x/text/unicode/norm"
)

// Record is an episode as returned by the episodes API.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Members     string `json:"members"`
	PublishedAt string `json:"published_at"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
	File        File   `json:"file"`
}

type File struct {
	URL      string      `json:"url"`
	Type     string      `json:"type"`
	Duration json.Number `json:"duration"`
}

// Details is an episode formatted for the details view.
type Details struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Members          string `json:"members"`
	PublishedAt      string `json:"publishedAt"`
	Duration         int    `json:"duration"`
	DurationAsString string `json:"durationAsString"`
	Description      string `json:"description"`
	Thumbnail        string `json:"thumbnail"`
	URL              string `json:"url"`
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePublishedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range publishedLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t.In(time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid published_at: %q", s)
}

func parseDuration(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid duration: %s", n)
	}
	return int(f), nil
}

// NewDetails formats an API record for display.
func NewDetails(r Record) (Details, error) {
	duration, err := parseDuration(r.File.Duration)
	if err != nil {
		return Details{}, err
	}

	published, err := parsePublishedAt(r.PublishedAt)
	if err != nil {
		return Details{}, err
	}

	return Details{
		ID:               r.ID,
		Title:            norm.NFC.String(r.Title),
		Members:          norm.NFC.String(r.Members),
		PublishedAt:      FormatPublishedAt(published),
		Duration:         duration,
		DurationAsString: DurationToTimeString(duration),
		Description:      norm.NFC.String(r.Description),
		Thumbnail:        r.Thumbnail,
		URL:              r.File.URL,
	}, nil
}

// Episode returns the value handed to the player when the episode is
// played from its details view.
func (d Details) Episode() player.Episode {
	return player.Episode{
		ID:        d.ID,
		Title:     d.Title,
		URL:       d.URL,
		Thumbnail: d.Thumbnail,
		Members:   d.Members,
		Duration:  d.Duration,
	}
}

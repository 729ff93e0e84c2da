package player

// Episode is a playable queue item. Values are supplied by whoever builds
// the queue and are never modified by the player. ID is optional and only
// set for episodes which came from the episodes API.
type Episode struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Members   string `json:"members"`
	Duration  int    `json:"duration"` // seconds
}

package domain

// ItemType enumerates the closed set of HackerNews item kinds.
type ItemType string

const (
	TypeStory      ItemType = "story"
	TypeComment    ItemType = "comment"
	TypeJob        ItemType = "job"
	TypePoll       ItemType = "poll"
	TypePollOption ItemType = "pollopt"
)

// Item is one unit of content fetched from the HackerNews feed.
// Items are immutable once fetched and are cached verbatim.
type Item struct {
	ID          int      `json:"id"`
	Type        ItemType `json:"type"`
	By          string   `json:"by,omitempty"`
	Time        int64    `json:"time"`
	Title       string   `json:"title,omitempty"`
	Text        string   `json:"text,omitempty"`
	URL         string   `json:"url,omitempty"`
	Score       int      `json:"score,omitempty"`
	Descendants int      `json:"descendants,omitempty"`
	Parent      int      `json:"parent,omitempty"`
	Kids        []int    `json:"kids,omitempty"`
	Deleted     bool     `json:"deleted,omitempty"`
	Dead        bool     `json:"dead,omitempty"`
}

// Unprocessable reports whether the item should be skipped outright.
func (i *Item) Unprocessable() bool {
	return i == nil || i.Deleted || i.Dead
}

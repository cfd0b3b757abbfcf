package plex

import "strconv"

// Library section types relevant to rating sync.
const (
	SectionTypeMovie = "movie"
	SectionTypeShow  = "show"
)

// Item types as reported by the server.
const (
	ItemTypeMovie   = "movie"
	ItemTypeShow    = "show"
	ItemTypeEpisode = "episode"
)

// Section is one library section (a media-type-restricted sub-collection).
type Section struct {
	Key   string
	Title string
	Type  string
}

// Eligible reports whether the section can hold rateable movie or show items.
func (s Section) Eligible() bool {
	return s.Type == SectionTypeMovie || s.Type == SectionTypeShow
}

// Item is a read-only view of one library item.
type Item struct {
	RatingKey string
	Title     string
	Year      string
	Type      string
	// GUID is the item's primary external identifier.
	GUID string
	// GUIDs holds alternate external identifiers (imdb://, tmdb://, tvdb://).
	GUIDs []string
	// UserRating is the account's current rating on the 0-10 scale, when set.
	UserRating *float64
}

// AllGUIDs returns the primary and alternate GUIDs, primary first.
func (i Item) AllGUIDs() []string {
	guids := make([]string, 0, len(i.GUIDs)+1)
	if i.GUID != "" {
		guids = append(guids, i.GUID)
	}
	return append(guids, i.GUIDs...)
}

// Wire-format containers for the server's JSON responses.

type mediaContainerResponse struct {
	MediaContainer struct {
		Directory []directoryPayload `json:"Directory"`
		Metadata  []metadataPayload  `json:"Metadata"`
	} `json:"MediaContainer"`
}

type directoryPayload struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type metadataPayload struct {
	RatingKey  string        `json:"ratingKey"`
	Title      string        `json:"title"`
	Year       int           `json:"year"`
	Type       string        `json:"type"`
	GUID       string        `json:"guid"`
	GUIDs      []guidPayload `json:"Guid"`
	UserRating *float64      `json:"userRating"`
}

type guidPayload struct {
	ID string `json:"id"`
}

func (m metadataPayload) item() Item {
	item := Item{
		RatingKey:  m.RatingKey,
		Title:      m.Title,
		Type:       m.Type,
		GUID:       m.GUID,
		UserRating: m.UserRating,
	}
	if m.Year > 0 {
		item.Year = strconv.Itoa(m.Year)
	}
	for _, guid := range m.GUIDs {
		if guid.ID != "" {
			item.GUIDs = append(item.GUIDs, guid.ID)
		}
	}
	return item
}

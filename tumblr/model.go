package tumblr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// InitialState is the JSON embedded into every www.tumblr.com page.
type InitialState struct {
	APIFetchStore APIFetchStore `json:"apiFetchStore"`

	// PeeprRoute is only present on post permalink pages.
	PeeprRoute *PeeprRoute `json:"PeeprRoute,omitempty"`
}

func (s *InitialState) UnmarshalJSON(data []byte) error {
	var v struct {
		APIFetchStore *APIFetchStore `json:"apiFetchStore"`
		PeeprRoute    *PeeprRoute    `json:"PeeprRoute"`
	}
	err := json.Unmarshal(data, &v)
	if err != nil {
		return err
	}
	if v.APIFetchStore == nil {
		return errors.New(`initial state: missing field "apiFetchStore"`)
	}

	s.APIFetchStore = *v.APIFetchStore
	s.PeeprRoute = v.PeeprRoute
	return nil
}

type APIFetchStore struct {
	APIToken string `json:"API_TOKEN"`
}

type PeeprRoute struct {
	InitialTimeline InitialTimeline `json:"initialTimeline"`
}

type InitialTimeline struct {
	Objects TimelineObjects `json:"objects"`
}

// TimelineObject is a member of a timeline, tagged by "objectType".
// *Post is currently the only variant.
type TimelineObject interface {
	ObjectType() string
}

type TimelineObjects []TimelineObject

func (o *TimelineObjects) UnmarshalJSON(data []byte) error {
	vs, err := decodeVariants(data, "timeline object", "objectType", newTimelineObject)
	if err != nil {
		return err
	}
	*o = vs
	return nil
}

func (o TimelineObjects) MarshalJSON() ([]byte, error) {
	return encodeVariants("objectType", o, TimelineObject.ObjectType)
}

func newTimelineObject(typ string) (TimelineObject, bool) {
	switch typ {
	case "post":
		return &Post{}, true
	default:
		return nil, false
	}
}

// PostID is a post identifier. Tumblr encodes it as a JSON string,
// since it exceeds the precision of a JavaScript number.
type PostID uint64

func (id PostID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id PostID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.String())), nil
}

func (id *PostID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) != 0 && data[0] == '"' {
		err := json.Unmarshal(data, &s)
		if err != nil {
			return fmt.Errorf("invalid post id %s: %w", data, err)
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post id %s: %w", data, err)
	}
	*id = PostID(v)
	return nil
}

type Post struct {
	// Type is "blocks" for NPF posts and one of the legacy types
	// (text, photo, quote, chat, link, video, audio) otherwise.
	Type    string            `json:"type"`
	ID      PostID            `json:"id"`
	Content Content           `json:"content"`
	Layout  []json.RawMessage `json:"layout"`
	State   string            `json:"state"`
	Date    string            `json:"date"`
	Tags    []string          `json:"tags"`
	Slug    string            `json:"slug"`

	ShortURL  string `json:"shortUrl"`
	Summary   string `json:"summary"`
	NoteCount uint64 `json:"noteCount"`
	LikeCount uint64 `json:"likeCount"`
	IsNSFW    bool   `json:"isNsfw"`
	BlogName  string `json:"blogName"`
	Blog      Blog   `json:"blog"`
}

func (*Post) ObjectType() string { return "post" }

var postFields = []string{
	"type", "id", "content", "layout", "state", "date", "tags", "slug",
	"shortUrl", "summary", "noteCount", "likeCount", "isNsfw", "blogName", "blog",
}

func (p *Post) UnmarshalJSON(data []byte) error {
	err := requireFields(data, "post", postFields...)
	if err != nil {
		return err
	}

	type post Post
	err = json.Unmarshal(data, (*post)(p))
	if err != nil {
		return err
	}
	if p.Content == nil {
		return errors.New(`post: field "content" is null`)
	}
	return nil
}

type Blog struct {
	Name           string   `json:"name"`
	Avatar         []Avatar `json:"avatar"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	BlogViewURL    string   `json:"blogViewUrl"`
	IsAdult        bool     `json:"isAdult"`
	DescriptionNPF Content  `json:"descriptionNpf"`
	UUID           string   `json:"uuid"`
}

type Avatar struct {
	Width       uint32            `json:"width"`
	Height      uint32            `json:"height"`
	URL         string            `json:"url"`
	Accessories []json.RawMessage `json:"accessories"`
}

package tumblr

import (
	"encoding/json"
	"errors"
)

// NPF content: https://www.tumblr.com/docs/npf
const (
	BlockTypeText  = "text"
	BlockTypeImage = "image"
	BlockTypeVideo = "video"
)

// ContentBlock is one of *TextBlock, *ImageBlock or *VideoBlock.
type ContentBlock interface {
	BlockType() string
}

type TextBlock struct {
	Text        string      `json:"text"`
	Subtype     *string     `json:"subtype,omitempty"`
	IndentLevel *uint16     `json:"indent_level,omitempty"`
	Formatting  Formattings `json:"formatting,omitempty"`
}

func (*TextBlock) BlockType() string { return BlockTypeText }

func (b *TextBlock) UnmarshalJSON(data []byte) error {
	err := requireFields(data, "text block", "text")
	if err != nil {
		return err
	}
	type textBlock TextBlock
	return json.Unmarshal(data, (*textBlock)(b))
}

type ImageBlock struct {
	Media   []Media           `json:"media"`
	AltText *string           `json:"alt_text,omitempty"`
	Caption *string           `json:"caption,omitempty"`
	Exif    map[string]string `json:"exif,omitempty"`
}

func (*ImageBlock) BlockType() string { return BlockTypeImage }

func (b *ImageBlock) UnmarshalJSON(data []byte) error {
	type imageBlock ImageBlock
	err := json.Unmarshal(data, (*imageBlock)(b))
	if err != nil {
		return err
	}
	if b.Media == nil {
		return errors.New(`image block: missing field "media"`)
	}
	return nil
}

type VideoBlock struct {
	// URL is used if no Media is present.
	URL *string `json:"url,omitempty"`
	// Media is used if no URL is present.
	Media *Media `json:"media,omitempty"`

	// Provider is either "tumblr" for native video or a trusted third party.
	Provider    *string         `json:"provider,omitempty"`
	EmbedHTML   *string         `json:"embed_html,omitempty"`
	EmbedURL    *string         `json:"embed_url,omitempty"`
	EmbedIframe json.RawMessage `json:"embed_iframe,omitempty"`

	// Poster is usually a single frame of the video.
	Poster                []Media         `json:"poster,omitempty"`
	Metadata              json.RawMessage `json:"metadata,omitempty"`
	Attribution           json.RawMessage `json:"attribution,omitempty"`
	CanAutoplayOnCellular *bool           `json:"can_autoplay_on_cellular,omitempty"`
	Filmstrip             *Media          `json:"filmstrip,omitempty"`
}

func (*VideoBlock) BlockType() string { return BlockTypeVideo }

// SourceURL returns the URL of the video file itself.
// The media object takes precedence over the block's url.
func (b *VideoBlock) SourceURL() (string, error) {
	if b.Media != nil && len(b.Media.URL) != 0 {
		return b.Media.URL, nil
	}
	if b.URL != nil && len(*b.URL) != 0 {
		return *b.URL, nil
	}
	return "", ErrMissingVideoURL
}

// Content is an ordered list of content blocks.
// The order is the display order and is preserved when encoding.
type Content []ContentBlock

func (c *Content) UnmarshalJSON(data []byte) error {
	blocks, err := decodeVariants(data, "content block", "type", newContentBlock)
	if err != nil {
		return err
	}
	*c = blocks
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	return encodeVariants("type", c, ContentBlock.BlockType)
}

func newContentBlock(typ string) (ContentBlock, bool) {
	switch typ {
	case BlockTypeText:
		return &TextBlock{}, true
	case BlockTypeImage:
		return &ImageBlock{}, true
	case BlockTypeVideo:
		return &VideoBlock{}, true
	default:
		return nil, false
	}
}

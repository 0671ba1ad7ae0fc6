package tumblr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Media is one rendition of an image or video asset.
type Media struct {
	URL    string  `json:"url"`
	Type   *string `json:"type,omitempty"`
	Width  *uint32 `json:"width,omitempty"`
	Height *uint32 `json:"height,omitempty"`

	// OriginalDimensionsMissing indicates that Width and Height are defaults for display purposes.
	OriginalDimensionsMissing *bool `json:"original_dimensions_missing,omitempty"`
	// Cropped indicates that this is a cropped version of the original media.
	Cropped *bool `json:"cropped,omitempty"`
	// HasOriginalDimensions indicates that this has the same dimensions as the original media.
	HasOriginalDimensions *bool `json:"hasOriginalDimensions,omitempty"`
}

func (m *Media) UnmarshalJSON(data []byte) error {
	type media Media
	err := json.Unmarshal(data, (*media)(m))
	if err != nil {
		return err
	}
	if len(m.URL) == 0 {
		return errors.New(`media: missing field "url"`)
	}
	return nil
}

func (m *Media) IsOriginal() bool {
	return m.HasOriginalDimensions != nil && *m.HasOriginalDimensions
}

// SelectOriginal returns the single media object with original dimensions.
// Zero or several candidates are reported as an error instead of guessing.
func SelectOriginal(media []Media) (*Media, error) {
	var (
		original *Media
		count    int
	)

	for idx := range media {
		if media[idx].IsOriginal() {
			if original == nil {
				original = &media[idx]
			}
			count++
		}
	}

	switch count {
	case 0:
		return nil, ErrMissingOriginalMedia
	case 1:
		return original, nil
	default:
		return nil, &AmbiguousMediaError{Count: count}
	}
}

// MediaURLs resolves the URL of every downloadable asset in content order.
// Text blocks contribute nothing.
func MediaURLs(content Content) ([]string, error) {
	urls := []string(nil)

	for idx, block := range content {
		switch b := block.(type) {
		case *TextBlock:
		case *ImageBlock:
			m, err := SelectOriginal(b.Media)
			if err != nil {
				return nil, fmt.Errorf("content block %d: %w", idx, err)
			}
			urls = append(urls, m.URL)
		case *VideoBlock:
			u, err := b.SourceURL()
			if err != nil {
				return nil, fmt.Errorf("content block %d: %w", idx, err)
			}
			urls = append(urls, u)
		default:
			return nil, fmt.Errorf("content block %d: %w", idx, &UnknownVariantError{Union: "content block", Type: block.BlockType()})
		}
	}

	return urls, nil
}

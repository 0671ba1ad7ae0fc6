package tumblr

// Formatting annotates the half-open range [Start, End) of its sibling TextBlock.Text.
type Formatting interface {
	FormattingType() string
	Range() (start, end uint64)
}

type Span struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

func (s Span) Range() (uint64, uint64) { return s.Start, s.End }

type Bold struct{ Span }

func (*Bold) FormattingType() string { return "bold" }

type Italic struct{ Span }

func (*Italic) FormattingType() string { return "italic" }

type Strikethrough struct{ Span }

func (*Strikethrough) FormattingType() string { return "strikethrough" }

type Small struct{ Span }

func (*Small) FormattingType() string { return "small" }

type Link struct {
	Span
	URL *string `json:"url,omitempty"`
}

func (*Link) FormattingType() string { return "link" }

type Mention struct {
	Span
	Blog BlogInfo `json:"blog"`
}

func (*Mention) FormattingType() string { return "mention" }

type Color struct {
	Span
	// Hex is encoded as "#rrggbb".
	Hex string `json:"hex"`
}

func (*Color) FormattingType() string { return "color" }

type BlogInfo struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Formattings []Formatting

func (f *Formattings) UnmarshalJSON(data []byte) error {
	vs, err := decodeVariants(data, "formatting", "type", newFormatting)
	if err != nil {
		return err
	}
	*f = vs
	return nil
}

func (f Formattings) MarshalJSON() ([]byte, error) {
	return encodeVariants("type", f, Formatting.FormattingType)
}

func newFormatting(typ string) (Formatting, bool) {
	switch typ {
	case "bold":
		return &Bold{}, true
	case "italic":
		return &Italic{}, true
	case "strikethrough":
		return &Strikethrough{}, true
	case "small":
		return &Small{}, true
	case "link":
		return &Link{}, true
	case "mention":
		return &Mention{}, true
	case "color":
		return &Color{}, true
	default:
		return nil, false
	}
}

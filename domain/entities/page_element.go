package entities

// PageElement describes a located element for reporting
type PageElement struct {
	ID          string            `json:"id"`          // handle id assigned by the session
	Type        string            `json:"type"`        // lower-case tag name
	Selector    string            `json:"selector"`    // short CSS-like hint (#id, tag.class)
	Text        string            `json:"text"`        // visible text, truncated
	Attributes  map[string]string `json:"attributes"`  // id, class, name, type, data-*
	IsVisible   bool              `json:"is_visible"`  // rendered and not hidden
	IsClickable bool              `json:"is_clickable"` // not disabled
	Position    Position          `json:"position"`    // center point, zero when unknown
}

// Position - element center on the page
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

package design

// BorderStyle enumerates how a border strip is pieced.
type BorderStyle string

// Supported border styles.
const (
	BorderStyleSolid   BorderStyle = "solid"
	BorderStylePieced  BorderStyle = "pieced"
	BorderStyleScrappy BorderStyle = "scrappy"
)

// Valid reports whether the style is one of the supported values.
func (s BorderStyle) Valid() bool {
	switch s {
	case BorderStyleSolid, BorderStylePieced, BorderStyleScrappy:
		return true
	}
	return false
}

// CornerStyle enumerates how border corners are finished.
type CornerStyle string

// Supported corner treatments.
const (
	CornerStyleOverlap     CornerStyle = "overlap"
	CornerStyleMitered     CornerStyle = "mitered"
	CornerStyleCornerstone CornerStyle = "cornerstone"
)

// Valid reports whether the corner style is one of the supported values.
func (c CornerStyle) Valid() bool {
	switch c {
	case CornerStyleOverlap, CornerStyleMitered, CornerStyleCornerstone:
		return true
	}
	return false
}

// Border is one strip of a pattern's border set, rendered innermost first.
type Border struct {
	ID          string      `json:"id"`
	WidthInches float64     `json:"width_inches"`
	Style       BorderStyle `json:"style"`
	FabricRole  string      `json:"fabric_role"`
	CornerStyle CornerStyle `json:"corner_style"`
}

// BorderConfig wraps the ordered border list. A document carries no config at
// all until the first border is added; removing the last border drops the
// config again so round-trips are exact.
type BorderConfig struct {
	Enabled bool     `json:"enabled"`
	Borders []Border `json:"borders"`
}

// CloneBorderConfig returns a deep copy of the config, preserving nil.
func CloneBorderConfig(cfg *BorderConfig) *BorderConfig {
	if cfg == nil {
		return nil
	}
	out := &BorderConfig{Enabled: cfg.Enabled}
	if cfg.Borders != nil {
		out.Borders = make([]Border, len(cfg.Borders))
		copy(out.Borders, cfg.Borders)
	}
	return out
}

// FindBorder locates a border by id within the config.
func FindBorder(cfg *BorderConfig, id string) (Border, int, bool) {
	if cfg == nil {
		return Border{}, -1, false
	}
	for i, b := range cfg.Borders {
		if b.ID == id {
			return b, i, true
		}
	}
	return Border{}, -1, false
}

// BorderPatch is a partial update to one border. Nil fields are untouched.
type BorderPatch struct {
	WidthInches *float64     `json:"width_inches,omitempty"`
	Style       *BorderStyle `json:"style,omitempty"`
	FabricRole  *string      `json:"fabric_role,omitempty"`
	CornerStyle *CornerStyle `json:"corner_style,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p BorderPatch) IsZero() bool {
	return p.WidthInches == nil && p.Style == nil && p.FabricRole == nil && p.CornerStyle == nil
}

// MergeBorderPatch applies a patch to a border, returning the updated copy.
func MergeBorderPatch(b Border, p BorderPatch) Border {
	if p.WidthInches != nil {
		b.WidthInches = *p.WidthInches
	}
	if p.Style != nil {
		b.Style = *p.Style
	}
	if p.FabricRole != nil {
		b.FabricRole = *p.FabricRole
	}
	if p.CornerStyle != nil {
		b.CornerStyle = *p.CornerStyle
	}
	return b
}

// PrevBorderPatch captures the border's current values for exactly the fields
// a forthcoming patch will change.
func PrevBorderPatch(b Border, next BorderPatch) BorderPatch {
	prev := BorderPatch{}
	if next.WidthInches != nil {
		w := b.WidthInches
		prev.WidthInches = &w
	}
	if next.Style != nil {
		s := b.Style
		prev.Style = &s
	}
	if next.FabricRole != nil {
		r := b.FabricRole
		prev.FabricRole = &r
	}
	if next.CornerStyle != nil {
		c := b.CornerStyle
		prev.CornerStyle = &c
	}
	return prev
}

package core

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Theme selects legend colors for breakdown entries.
type Theme string

// ParseTheme returns Dark for "dark" and Light for anything else.
func ParseTheme(s string) Theme {
	if Theme(s) == Dark {
		return Dark
	}
	return Light
}

// Palette is the color lookup used when building breakdown entries.
type Palette struct {
	Categories     map[Category]string
	Fallback       string
	LegendLight    string
	LegendDark     string
	LegendFontSize int
}

// DefaultPalette returns the application's category colors.
func DefaultPalette() Palette {
	return Palette{
		Categories: map[Category]string{
			Food:          "#FF6B6B",
			Travel:        "#4ECDC4",
			Groceries:     "#45B7D1",
			Shopping:      "#F7B731",
			Entertainment: "#A55EEA",
			Stationary:    "#26DE81",
			Others:        "#95A5A6",
		},
		Fallback:       "#95A5A6",
		LegendLight:    "#7F7F7F",
		LegendDark:     "#D1D5DB",
		LegendFontSize: 12,
	}
}

// Color returns the display color for c. Unknown categories use the
// Others color, then Fallback.
func (p Palette) Color(c Category) string {
	if col, ok := p.Categories[c]; ok {
		return col
	}
	if col, ok := p.Categories[Others]; ok {
		return col
	}
	return p.Fallback
}

func (p Palette) LegendColor(t Theme) string {
	if t == Dark {
		return p.LegendDark
	}
	return p.LegendLight
}

package layout

// Block is one stacked bar segment in pixel space. Left ≤ Right and
// Bottom ≤ Top numerically, whichever way the axes point on screen.
type Block struct {
	Key         string  `json:"key"`
	ID          any     `json:"id"`
	Left        float64 `json:"left"`
	Right       float64 `json:"right"`
	Bottom      float64 `json:"bottom"`
	Top         float64 `json:"top"`
	Value       float64 `json:"value"`
	VisualOrder int     `json:"visualOrder"`

	// Outermost and Innermost mark the segments of the series ranked last
	// and first by visual order, which renderers round or square off.
	Outermost bool `json:"outermost,omitempty"`
	Innermost bool `json:"innermost,omitempty"`
}

// Width returns the horizontal span of the block.
func (b Block) Width() float64 { return b.Right - b.Left }

// Height returns the vertical span of the block.
func (b Block) Height() float64 { return b.Top - b.Bottom }

// CenterX returns the horizontal center point of the block.
func (b Block) CenterX() float64 { return (b.Left + b.Right) / 2 }

// CenterY returns the vertical center point of the block.
func (b Block) CenterY() float64 { return (b.Bottom + b.Top) / 2 }

// Vec is a point in pixel space.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Area is one stacked series as a band between two polylines.
type Area struct {
	Key         string `json:"key"`
	Index       int    `json:"index"`
	VisualOrder int    `json:"visualOrder"`
	Upper       []Vec  `json:"upper"`
	Lower       []Vec  `json:"lower"`
	Outermost   bool   `json:"outermost,omitempty"`
	Innermost   bool   `json:"innermost,omitempty"`
}

package quality

import "image"

// Box is a face location in pixel coordinates, in the (top, right,
// bottom, left) order used by face detection libraries.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

func (b Box) Width() int  { return b.Right - b.Left }
func (b Box) Height() int { return b.Bottom - b.Top }

// Area is Width*Height and may be negative for a degenerate box.
func (b Box) Area() int { return b.Width() * b.Height() }

// MinDim returns the smaller of the two sides.
func (b Box) MinDim() int {
	return min(b.Width(), b.Height())
}

// Rect converts the box into a standard image rectangle. A box with a
// zero or negative extent yields an empty rectangle rather than a
// re-ordered one.
func (b Box) Rect() image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(b.Left, b.Top),
		Max: image.Pt(b.Right, b.Bottom),
	}
}

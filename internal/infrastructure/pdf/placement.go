package pdf

import (
	"math"

	"esign.backend/internal/domain/entities"
	"esign.backend/internal/domain/services"
)

// slot is a signature area measured from the page's top-right corner
type slot struct {
	RightMargin float64
	TopOffset   float64
	Width       float64
	Height      float64
}

var defaultSlot = slot{RightMargin: 50, TopOffset: 120, Width: 180, Height: 60}

// Per-type vertical offsets follow where each template prints its signature line.
var slots = map[entities.DocumentType]slot{
	entities.DocumentTypeWholesaleBOS:       {RightMargin: 50, TopOffset: 110, Width: 180, Height: 60},
	entities.DocumentTypeRetailBOS:          {RightMargin: 50, TopOffset: 130, Width: 180, Height: 60},
	entities.DocumentTypePurchaseAgreement:  {RightMargin: 60, TopOffset: 150, Width: 200, Height: 60},
	entities.DocumentTypeTransportAgreement: {RightMargin: 50, TopOffset: 140, Width: 180, Height: 55},
	entities.DocumentTypeOdometerDisclosure: {RightMargin: 40, TopOffset: 180, Width: 160, Height: 50},
	entities.DocumentTypePowerOfAttorney:    {RightMargin: 60, TopOffset: 200, Width: 200, Height: 60},
	entities.DocumentTypeFinanceAgreement:   {RightMargin: 50, TopOffset: 160, Width: 200, Height: 65},
	entities.DocumentTypeDealerAgreement:    {RightMargin: 50, TopOffset: 170, Width: 200, Height: 65},
}

// Box is a rectangle in PDF user space, origin bottom-left
type Box struct {
	X, Y, Width, Height float64
}

func (b Box) coordinates(page int) entities.Coordinates {
	return entities.Coordinates{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height, Page: page}
}

// DefaultBox computes the type's signature box on a page of the given size
func DefaultBox(documentType entities.DocumentType, pageW, pageH float64) Box {
	s, ok := slots[documentType]
	if !ok {
		s = defaultSlot
	}
	return Box{
		X:      pageW - s.RightMargin - s.Width,
		Y:      pageH - s.TopOffset - s.Height,
		Width:  s.Width,
		Height: s.Height,
	}
}

// Place merges the override over the default box and clamps the result
// inside the page.
func Place(documentType entities.DocumentType, pageW, pageH float64, override *services.PlacementOverride) Box {
	box := DefaultBox(documentType, pageW, pageH)
	if override != nil {
		if override.X != nil {
			box.X = *override.X
		}
		if override.Y != nil {
			box.Y = *override.Y
		}
		if override.Width != nil {
			box.Width = *override.Width
		}
		if override.Height != nil {
			box.Height = *override.Height
		}
	}
	return clamp(box, pageW, pageH)
}

func clamp(b Box, pageW, pageH float64) Box {
	b.Width = bound(b.Width, 1, pageW)
	b.Height = bound(b.Height, 1, pageH)
	b.X = bound(b.X, 0, pageW-b.Width)
	b.Y = bound(b.Y, 0, pageH-b.Height)
	return b
}

func bound(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}

// pageFor picks the 1-based page for the mark, defaulting to the first
func pageFor(override *services.PlacementOverride, pageCount int) int {
	page := 1
	if override != nil && override.Page != nil {
		page = *override.Page
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	return page
}

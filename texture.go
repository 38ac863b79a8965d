package sprig

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// TextureRegion describes where a texture's pixels live on its source image.
// Value type — copied into Texture, no pointer.
type TextureRegion struct {
	X, Y      uint16 // top-left corner of the stored rect on the source image
	Width     uint16 // width of the populated pixels (may differ from OriginalW if trimmed)
	Height    uint16 // height of the populated pixels (may differ from OriginalH if trimmed)
	OriginalW uint16 // untrimmed width as authored
	OriginalH uint16 // untrimmed height as authored
	OffsetX   int16  // trim offset of the populated pixels within the original frame
	OffsetY   int16
	Rotated   bool // true if the region is stored 90 degrees clockwise on the source
}

// Trimmed reports whether the populated pixels cover less than the original frame.
func (r TextureRegion) Trimmed() bool {
	return r.OffsetX != 0 || r.OffsetY != 0 ||
		r.Width != r.OriginalW || r.Height != r.OriginalH
}

// Texture is a shared reference to pixel data: a source image plus the
// region of it this texture shows. Many sprites may point at one Texture;
// destroying a sprite never destroys its texture unless asked to.
type Texture struct {
	Label string

	source    *ebiten.Image
	region    TextureRegion
	destroyed bool

	users map[*Sprite]struct{} // sprites showing this texture
}

// EmptyTexture is the sentinel used wherever a texture is absent. It has no
// source and zero size, so sprites using it have zero-extent bounds and
// submit no geometry. Destroying it is a no-op.
var EmptyTexture = &Texture{Label: "EMPTY"}

// NewTexture creates a texture showing region of source. A zero original
// size defaults to the populated size.
func NewTexture(label string, source *ebiten.Image, region TextureRegion) *Texture {
	if region.OriginalW == 0 {
		region.OriginalW = region.Width
	}
	if region.OriginalH == 0 {
		region.OriginalH = region.Height
	}
	return &Texture{Label: label, source: source, region: region}
}

// NewTextureFromImage creates an untrimmed texture covering all of img.
func NewTextureFromImage(label string, img *ebiten.Image) *Texture {
	b := img.Bounds()
	return NewTexture(label, img, TextureRegion{
		X:      uint16(b.Min.X),
		Y:      uint16(b.Min.Y),
		Width:  uint16(b.Dx()),
		Height: uint16(b.Dy()),
	})
}

// orEmpty substitutes EmptyTexture for nil.
func orEmpty(t *Texture) *Texture {
	if t == nil {
		return EmptyTexture
	}
	return t
}

// Source returns the image holding the texture's pixels, or nil.
func (t *Texture) Source() *ebiten.Image {
	return t.source
}

// Region returns where the texture's pixels live on its source.
func (t *Texture) Region() TextureRegion {
	return t.region
}

// OriginalWidth returns the untrimmed width as authored.
func (t *Texture) OriginalWidth() float64 {
	return float64(t.region.OriginalW)
}

// OriginalHeight returns the untrimmed height as authored.
func (t *Texture) OriginalHeight() float64 {
	return float64(t.region.OriginalH)
}

// Trim returns the populated sub-rectangle in original-frame coordinates.
// For untrimmed textures it covers the whole original frame.
func (t *Texture) Trim() Rect {
	r := t.region
	return Rect{
		X:      float64(r.OffsetX),
		Y:      float64(r.OffsetY),
		Width:  float64(r.Width),
		Height: float64(r.Height),
	}
}

// Image returns the stored pixels as a sub-image of the source, or nil when
// there is no source. Rotated regions are returned as stored.
func (t *Texture) Image() *ebiten.Image {
	if t.source == nil {
		return nil
	}
	return t.source.SubImage(t.sourceRect()).(*ebiten.Image)
}

// sourceRect returns the rect occupied on the source image.
func (t *Texture) sourceRect() image.Rectangle {
	r := t.region
	if r.Rotated {
		return image.Rect(int(r.X), int(r.Y), int(r.X)+int(r.Height), int(r.Y)+int(r.Width))
	}
	return image.Rect(int(r.X), int(r.Y), int(r.X)+int(r.Width), int(r.Y)+int(r.Height))
}

// Destroy marks the texture unusable. When destroySource is true the source
// image is deallocated as well; other textures sharing that image go blank.
// Calling it twice is a no-op.
func (t *Texture) Destroy(destroySource bool) {
	if t == EmptyTexture || t.destroyed {
		return
	}
	t.destroyed = true
	if destroySource && t.source != nil {
		t.source.Deallocate()
	}
	t.source = nil
	// Users lose their source: queue them so their batches are revalidated.
	for s := range t.users {
		s.markUpdated(UpdateRenderable)
	}
	t.users = nil
}

func (t *Texture) addUser(s *Sprite) {
	if t == EmptyTexture || t.destroyed {
		return
	}
	if t.users == nil {
		t.users = make(map[*Sprite]struct{})
	}
	t.users[s] = struct{}{}
}

func (t *Texture) removeUser(s *Sprite) {
	delete(t.users, s)
}

// NumUsers returns the number of live sprites showing the texture.
func (t *Texture) NumUsers() int {
	return len(t.users)
}

// IsDestroyed reports whether Destroy has been called.
func (t *Texture) IsDestroyed() bool {
	return t.destroyed
}

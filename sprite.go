package sprig

import "math"

// Sprite is a drawable leaf: a shared texture placed by an anchor and tinted
// by a color. Its size is derived from scale and the texture's original size.
type Sprite struct {
	Node

	texture   *Texture
	anchor    Vec2
	color     Color
	blendMode BlendMode

	bounds       cachedBounds
	sourceBounds cachedBounds
}

// NewSprite creates a sprite showing tex. A nil texture is replaced by EmptyTexture.
func NewSprite(name string, tex *Texture) *Sprite {
	s := &Sprite{
		texture:      orEmpty(tex),
		color:        ColorWhite,
		bounds:       cachedBounds{flag: UpdateBounds},
		sourceBounds: cachedBounds{flag: UpdateSourceBounds},
	}
	s.Node.Init(s, name, PipeSprite)
	s.texture.addUser(s)
	return s
}

// Texture returns the sprite's texture. Never nil.
func (s *Sprite) Texture() *Texture {
	return s.texture
}

// SetTexture replaces the texture. Both bounds caches are invalidated.
func (s *Sprite) SetTexture(tex *Texture) {
	tex = orEmpty(tex)
	if s.texture == tex {
		return
	}
	s.texture.removeUser(s)
	s.texture = tex
	tex.addUser(s)
	s.markUpdated(UpdateBounds | UpdateSourceBounds | UpdateRenderable)
}

// Anchor returns the normalized origin of the texture footprint.
func (s *Sprite) Anchor() Vec2 {
	return s.anchor
}

// SetAnchor sets the normalized origin: (0, 0) is the top-left corner of the
// texture, (1, 1) the bottom-right. Values outside [0, 1] are allowed.
func (s *Sprite) SetAnchor(x, y float64) {
	if s.anchor.X == x && s.anchor.Y == y {
		return
	}
	s.anchor = Vec2{x, y}
	s.markUpdated(UpdateBounds | UpdateSourceBounds | UpdateRenderable)
}

// Color returns the tint.
func (s *Sprite) Color() Color {
	return s.color
}

// SetColor sets the tint multiplied into the texture's pixels.
func (s *Sprite) SetColor(c Color) {
	if s.color == c {
		return
	}
	s.color = c
	s.markUpdated(UpdateRenderable)
}

// BlendMode returns the compositing operation.
func (s *Sprite) BlendMode() BlendMode {
	return s.blendMode
}

// SetBlendMode sets the compositing operation. Sprites only batch with
// neighbours that share their blend mode and texture source.
func (s *Sprite) SetBlendMode(b BlendMode) {
	if s.blendMode == b {
		return
	}
	s.blendMode = b
	s.markUpdated(UpdateRenderable)
}

// --- Size ---

// Width returns |scaleX| times the texture's original width.
func (s *Sprite) Width() float64 {
	return math.Abs(s.scaleX) * s.texture.OriginalWidth()
}

// Height returns |scaleY| times the texture's original height.
func (s *Sprite) Height() float64 {
	return math.Abs(s.scaleY) * s.texture.OriginalHeight()
}

// SetWidth sets scaleX so the sprite is w pixels wide, keeping the current
// flip. With a zero-width texture the scale becomes ±1.
func (s *Sprite) SetWidth(w float64) {
	s.SetScale(sizeToScale(w, s.texture.OriginalWidth(), s.scaleX), s.scaleY)
}

// SetHeight sets scaleY so the sprite is h pixels tall, keeping the current
// flip. With a zero-height texture the scale becomes ±1.
func (s *Sprite) SetHeight(h float64) {
	s.SetScale(s.scaleX, sizeToScale(h, s.texture.OriginalHeight(), s.scaleY))
}

// Size returns the sprite's width and height.
func (s *Sprite) Size() Size {
	return Size{Width: s.Width(), Height: s.Height()}
}

// SetSize sets the width and, when given, the height. With a single argument
// the height is left untouched; the aspect ratio is not preserved.
func (s *Sprite) SetSize(width float64, height ...float64) {
	sx := sizeToScale(width, s.texture.OriginalWidth(), s.scaleX)
	sy := s.scaleY
	if len(height) > 0 {
		sy = sizeToScale(height[0], s.texture.OriginalHeight(), s.scaleY)
	}
	s.SetScale(sx, sy)
}

// sizeToScale returns the scale realizing |size| over natural, keeping the
// sign of the current scale (zero counts as positive).
func sizeToScale(size, natural, current float64) float64 {
	sign := 1.0
	if current < 0 {
		sign = -1
	}
	if natural == 0 {
		return sign
	}
	return math.Abs(size) / natural * sign
}

// --- Bounds ---

// Bounds returns the untransformed footprint of the texture's original frame
// relative to the anchor: MinX = -anchor.X * originalWidth and
// MaxX = MinX + originalWidth (likewise for Y). The result is cached until
// the texture or anchor changes.
func (s *Sprite) Bounds() Bounds {
	return s.bounds.get(&s.Node, s.computeBounds)
}

func (s *Sprite) computeBounds() Bounds {
	ow, oh := s.texture.OriginalWidth(), s.texture.OriginalHeight()
	return quadBounds(s.anchor, ow, oh, 0, 0, ow, oh)
}

// SourceBounds returns the footprint of the populated (trimmed) pixels
// relative to the anchor. It equals Bounds for untrimmed textures and is
// cached independently.
func (s *Sprite) SourceBounds() Bounds {
	return s.sourceBounds.get(&s.Node, s.computeSourceBounds)
}

func (s *Sprite) computeSourceBounds() Bounds {
	t := s.texture
	trim := t.Trim()
	return quadBounds(s.anchor, t.OriginalWidth(), t.OriginalHeight(), trim.X, trim.Y, trim.Width, trim.Height)
}

// WorldBounds returns Bounds projected through the world transform of the
// last rendered frame.
func (s *Sprite) WorldBounds() Bounds {
	return s.Bounds().Transform(s.worldTransform)
}

// ContainsPoint reports whether the local point (x, y) hits the sprite's
// populated pixels. Edges count as inside.
func (s *Sprite) ContainsPoint(x, y float64) bool {
	return s.SourceBounds().Contains(x, y)
}

// ContainsWorldPoint converts (wx, wy) to local space and hit-tests it.
func (s *Sprite) ContainsWorldPoint(wx, wy float64) bool {
	return s.ContainsPoint(s.WorldToLocal(wx, wy))
}

// --- Destruction ---

// Destroy releases the sprite with default options. The texture is kept.
func (s *Sprite) Destroy() {
	s.DestroyWith(DestroyOptions{})
}

// DestroyWith releases the sprite's pipe state and detaches it. The texture
// is destroyed only when opts.Texture is set. Calling it twice is a no-op.
func (s *Sprite) DestroyWith(opts DestroyOptions) {
	if s.destroyed {
		return
	}
	s.Node.DestroyWith(opts)
	s.texture.removeUser(s)
	if opts.Texture {
		s.texture.Destroy(opts.TextureSource)
	}
	s.texture = EmptyTexture
	s.anchor = Vec2{}
	s.flags |= UpdateBounds | UpdateSourceBounds
}

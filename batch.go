package sprig

import "github.com/hajimehoshi/ebiten/v2"

// maxBatchElements caps the quads submitted by one draw call.
const maxBatchElements = 4096

// batchKey groups quads that can be submitted in a single draw call.
type batchKey struct {
	source *ebiten.Image
	blend  BlendMode
}

// BatchableSprite is the pipe-held render state of one sprite: its quad and
// the batch it was placed in. Pipes update it in place between rebuilds.
type BatchableSprite struct {
	sprite   *Sprite
	key      batchKey
	verts    [4]ebiten.Vertex
	hidden   bool
	released bool
	batch    *Batch
}

func newBatchableSprite(s *Sprite) *BatchableSprite {
	e := &BatchableSprite{sprite: s}
	e.refresh()
	return e
}

// Sprite returns the sprite this element draws.
func (e *BatchableSprite) Sprite() *Sprite {
	return e.sprite
}

// Batch returns the batch the element was last placed in.
func (e *BatchableSprite) Batch() *Batch {
	return e.batch
}

// refresh recomputes the quad from the sprite's current state.
func (e *BatchableSprite) refresh() {
	s := e.sprite
	e.key = spriteBatchKey(s)
	e.hidden = !s.visible || s.texture.source == nil
	e.verts = spriteQuad(s)
}

func spriteBatchKey(s *Sprite) batchKey {
	return batchKey{source: s.texture.source, blend: s.blendMode}
}

// spriteQuad builds the TL, TR, BL, BR vertices of a sprite: the trimmed
// footprint mapped through the world transform, UVs taken from the texture
// region and premultiplied tint * world alpha as vertex color.
func spriteQuad(s *Sprite) [4]ebiten.Vertex {
	b := s.SourceBounds()
	lx := [4]float64{b.MinX, b.MaxX, b.MinX, b.MaxX}
	ly := [4]float64{b.MinY, b.MinY, b.MaxY, b.MaxY}

	r := s.texture.region
	rx := float32(r.X)
	ry := float32(r.Y)
	rw := float32(r.Width)
	rh := float32(r.Height)
	var sx, sy [4]float32
	if r.Rotated {
		// Stored 90° clockwise: the stored rect is rh wide and rw tall.
		sx = [4]float32{rx + rh, rx + rh, rx, rx}
		sy = [4]float32{ry, ry + rw, ry, ry + rw}
	} else {
		sx = [4]float32{rx, rx + rw, rx, rx + rw}
		sy = [4]float32{ry, ry, ry + rh, ry + rh}
	}

	ca := float32(s.color.A * s.worldAlpha)
	cr := float32(s.color.R) * ca
	cg := float32(s.color.G) * ca
	cb := float32(s.color.B) * ca

	var v [4]ebiten.Vertex
	for i := range v {
		dx, dy := transformPoint(s.worldTransform, lx[i], ly[i])
		v[i] = ebiten.Vertex{
			DstX:   float32(dx),
			DstY:   float32(dy),
			SrcX:   sx[i],
			SrcY:   sy[i],
			ColorR: cr,
			ColorG: cg,
			ColorB: cb,
			ColorA: ca,
		}
	}
	return v
}

// Batch is an instruction drawing quads that share a source image and blend
// mode with a single DrawTriangles32 call.
type Batch struct {
	key      batchKey
	elements []*BatchableSprite

	// Reused submission buffers.
	verts []ebiten.Vertex
	inds  []uint32
}

// PipeID implements Instruction.
func (b *Batch) PipeID() PipeID {
	return PipeBatch
}

// Len returns the number of quads in the batch.
func (b *Batch) Len() int {
	return len(b.elements)
}

// Source returns the image all quads sample from.
func (b *Batch) Source() *ebiten.Image {
	return b.key.source
}

// BlendMode returns the blend mode shared by all quads.
func (b *Batch) BlendMode() BlendMode {
	return b.key.blend
}

// geometry assembles vertices and indices for the visible quads.
func (b *Batch) geometry() ([]ebiten.Vertex, []uint32) {
	b.verts = b.verts[:0]
	b.inds = b.inds[:0]
	for _, e := range b.elements {
		if e.hidden || e.released {
			continue
		}
		base := uint32(len(b.verts))
		b.verts = append(b.verts, e.verts[:]...)
		// Two triangles: TL-TR-BL, TR-BR-BL
		b.inds = append(b.inds,
			base+0, base+1, base+2,
			base+1, base+3, base+2,
		)
	}
	return b.verts, b.inds
}

// Execute submits the batch to target.
func (b *Batch) Execute(target *ebiten.Image) {
	if b.key.source == nil {
		return
	}
	verts, inds := b.geometry()
	if len(verts) == 0 {
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.Blend = b.key.blend.EbitenBlend()
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	target.DrawTriangles32(verts, inds, b.key.source, &op)
}

// Batcher appends sprite elements to an instruction set, extending the
// trailing batch while the key matches.
type Batcher struct{}

// Add places e in set.
func (Batcher) Add(e *BatchableSprite, set *InstructionSet) {
	if b, ok := set.Last().(*Batch); ok && b.key == e.key && len(b.elements) < maxBatchElements {
		b.elements = append(b.elements, e)
		e.batch = b
		return
	}
	b := &Batch{key: e.key, elements: []*BatchableSprite{e}}
	e.batch = b
	set.Add(b)
}

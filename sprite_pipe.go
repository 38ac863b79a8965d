package sprig

import "fmt"

// SpritePipe renders *Sprite nodes as batched quads. It keeps one
// BatchableSprite per sprite so updates patch vertex data in place.
type SpritePipe struct {
	batcher  Batcher
	elements map[*Sprite]*BatchableSprite
}

// NewSpritePipe creates an empty sprite pipe.
func NewSpritePipe() *SpritePipe {
	return &SpritePipe{elements: make(map[*Sprite]*BatchableSprite)}
}

func asSprite(r Renderable) *Sprite {
	s, ok := r.(*Sprite)
	if !ok {
		panic(fmt.Sprintf("sprig: sprite pipe cannot render %T", r))
	}
	return s
}

// AddRenderable implements Pipe.
func (p *SpritePipe) AddRenderable(r Renderable, set *InstructionSet) {
	s := asSprite(r)
	e, ok := p.elements[s]
	if !ok {
		e = newBatchableSprite(s)
		p.elements[s] = e
	} else {
		e.refresh()
	}
	e.released = false
	p.batcher.Add(e, set)
}

// UpdateRenderable implements Pipe.
func (p *SpritePipe) UpdateRenderable(r Renderable) {
	s := asSprite(r)
	e, ok := p.elements[s]
	if !ok {
		panic(updateBeforeAdd(PipeSprite, s))
	}
	e.refresh()
}

// ValidateRenderable reports whether the sprite still fits the batch it was
// placed in: same texture source and blend mode.
func (p *SpritePipe) ValidateRenderable(r Renderable) bool {
	s := asSprite(r)
	e, ok := p.elements[s]
	if !ok {
		return false
	}
	return e.key == spriteBatchKey(s)
}

// DestroyRenderable implements Pipe.
func (p *SpritePipe) DestroyRenderable(r Renderable) {
	s := asSprite(r)
	e, ok := p.elements[s]
	if !ok {
		return
	}
	e.released = true
	e.sprite = nil
	delete(p.elements, s)
}

// Element returns the render state held for s, or nil.
func (p *SpritePipe) Element(s *Sprite) *BatchableSprite {
	return p.elements[s]
}

// Len returns the number of sprites with pipe state.
func (p *SpritePipe) Len() int {
	return len(p.elements)
}

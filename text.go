package sprig

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Font is the interface for text measurement and layout.
type Font interface {
	MeasureString(text string) (width, height float64)
	LineHeight() float64
}

// TextAlign controls horizontal alignment of lines within a Text node.
type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// Outline defines a text stroke rendered behind the fill. Bitmap fonts only.
type Outline struct {
	Color     Color
	Thickness float64
}

// --- Text ---

// Text is a composite node that lays out a string and owns one sprite per
// glyph (bitmap fonts) or a single sprite showing the rendered string (TTF
// fonts). Members are dispatched through the composite pipe, so glyphs batch
// with every other sprite cut from the same font page.
//
// Layout runs eagerly in the setters. A relayout that keeps the glyph count
// patches members in place; one that changes it rebuilds the enclosing
// render group.
type Text struct {
	Node

	content    string
	font       Font
	align      TextAlign
	wrapWidth  float64
	color      Color
	outline    *Outline
	lineHeight float64 // override; 0 = use Font.LineHeight()

	members []*Sprite

	// layout scratch
	lines      []textLine
	wordGlyphs []glyphPos
	quads      []textQuad
	measuredW  float64
	measuredH  float64

	ttfImage *ebiten.Image
	ttfTex   *Texture
}

// textLine stores one line of laid-out glyphs.
type textLine struct {
	glyphs []glyphPos
	width  float64
}

// glyphPos is the local position and texture of a single glyph.
type glyphPos struct {
	x, y float64
	tex  *Texture
}

// textQuad is one member to be shown: a texture at a local offset and tint.
type textQuad struct {
	x, y  float64
	tex   *Texture
	color Color
}

// NewText creates a text node. A nil font produces an empty node until
// SetFont is called.
func NewText(name, content string, font Font) *Text {
	t := &Text{content: content, font: font, color: ColorWhite}
	t.Node.Init(t, name, PipeText)
	t.relayout()
	return t
}

// NumMembers implements Composite.
func (t *Text) NumMembers() int {
	return len(t.members)
}

// MemberAt implements Composite.
func (t *Text) MemberAt(i int) Renderable {
	return t.members[i]
}

// Text returns the content string.
func (t *Text) Text() string { return t.content }

// SetText replaces the content and relays out.
func (t *Text) SetText(s string) {
	if s == t.content {
		return
	}
	t.content = s
	t.relayout()
}

// Font returns the font, or nil.
func (t *Text) Font() Font { return t.font }

// SetFont replaces the font and relays out.
func (t *Text) SetFont(f Font) {
	t.font = f
	t.relayout()
}

// Align returns the horizontal alignment.
func (t *Text) Align() TextAlign { return t.align }

// SetAlign sets the horizontal alignment.
func (t *Text) SetAlign(a TextAlign) {
	if a == t.align {
		return
	}
	t.align = a
	t.relayout()
}

// WrapWidth returns the wrap width; 0 disables wrapping.
func (t *Text) WrapWidth() float64 { return t.wrapWidth }

// SetWrapWidth wraps lines at word boundaries once they exceed w pixels.
func (t *Text) SetWrapWidth(w float64) {
	if w == t.wrapWidth {
		return
	}
	t.wrapWidth = w
	t.relayout()
}

// Color returns the fill tint.
func (t *Text) Color() Color { return t.color }

// SetColor sets the fill tint.
func (t *Text) SetColor(c Color) {
	if c == t.color {
		return
	}
	t.color = c
	t.relayout()
}

// SetOutline sets or (with nil) clears the outline.
func (t *Text) SetOutline(o *Outline) {
	t.outline = o
	t.relayout()
}

// SetLineHeight overrides the font's line height; 0 restores it.
func (t *Text) SetLineHeight(h float64) {
	if h == t.lineHeight {
		return
	}
	t.lineHeight = h
	t.relayout()
}

// Size returns the measured size of the laid-out text.
func (t *Text) Size() Size {
	return Size{Width: t.measuredW, Height: t.measuredH}
}

// Bounds returns the measured text box in local space. With wrapping and
// non-left alignment the box spans the wrap width.
func (t *Text) Bounds() Bounds {
	w := t.measuredW
	if t.wrapWidth > 0 && t.align != TextAlignLeft && t.wrapWidth > w {
		w = t.wrapWidth
	}
	return Bounds{MaxX: w, MaxY: t.measuredH}
}

// effectiveLineHeight returns the line height used for layout.
func (t *Text) effectiveLineHeight() float64 {
	if t.lineHeight > 0 {
		return t.lineHeight
	}
	if t.font != nil {
		return t.font.LineHeight()
	}
	return 0
}

// relayout recomputes the glyph quads and syncs the members to them.
func (t *Text) relayout() {
	if t.destroyed {
		return
	}
	t.quads = t.quads[:0]
	switch f := t.font.(type) {
	case *BitmapFont:
		t.releaseTTFImage()
		t.layoutBitmap(f)
		t.emitBitmapQuads()
	case *TTFFont:
		t.layoutTTF(f)
	default:
		t.releaseTTFImage()
		t.lines = t.lines[:0]
		t.measuredW = 0
		t.measuredH = 0
	}
	t.syncMembers()
}

// layoutBitmap computes glyph positions for a BitmapFont.
func (t *Text) layoutBitmap(f *BitmapFont) {
	lh := t.effectiveLineHeight()
	content := t.content

	t.lines = t.lines[:0]

	var maxW float64
	var curLine textLine

	var wordStart int
	t.wordGlyphs = t.wordGlyphs[:0]
	var cursorX float64
	var prevRune rune
	var hasPrev bool

	flush := func() {
		if curLine.width > maxW {
			maxW = curLine.width
		}
		t.lines = append(t.lines, curLine)
		curLine = textLine{}
		cursorX = 0
		hasPrev = false
	}

	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		i += size

		if r == '\n' {
			curLine.glyphs = append(curLine.glyphs, t.wordGlyphs...)
			curLine.width = cursorX
			t.wordGlyphs = t.wordGlyphs[:0]
			wordStart = i
			flush()
			continue
		}

		g := f.glyph(r)
		if g == nil {
			hasPrev = false
			continue
		}

		kern := int16(0)
		if hasPrev {
			kern = f.kern(prevRune, r)
		}

		gp := glyphPos{
			x:   cursorX + float64(kern) + float64(g.xOffset),
			y:   float64(g.yOffset),
			tex: g.tex,
		}
		advance := float64(g.xAdvance) + float64(kern)

		if r == ' ' {
			// Space: flush word into current line
			curLine.glyphs = append(curLine.glyphs, t.wordGlyphs...)
			t.wordGlyphs = t.wordGlyphs[:0]
			wordStart = i

			// Trailing spaces do not count toward the line width.
			curLine.width = cursorX
			cursorX += advance
		} else {
			t.wordGlyphs = append(t.wordGlyphs, gp)

			if t.wrapWidth > 0 && cursorX+advance > t.wrapWidth && len(curLine.glyphs) > 0 {
				// Wrap: flush current line without this word, then lay
				// the word out again from the start of the next line.
				flush()
				t.wordGlyphs = t.wordGlyphs[:0]
				i = wordStart
				continue
			}
			cursorX += advance
		}

		prevRune = r
		hasPrev = true
	}

	curLine.glyphs = append(curLine.glyphs, t.wordGlyphs...)
	curLine.width = cursorX
	flush()

	// Align against WrapWidth when set, otherwise the widest line.
	alignW := maxW
	if t.wrapWidth > 0 {
		alignW = t.wrapWidth
	}
	for li := range t.lines {
		line := &t.lines[li]
		var offsetX float64
		switch t.align {
		case TextAlignCenter:
			offsetX = (alignW - line.width) / 2
		case TextAlignRight:
			offsetX = alignW - line.width
		}
		for gi := range line.glyphs {
			line.glyphs[gi].x += offsetX
			line.glyphs[gi].y += float64(li) * lh
		}
	}

	t.measuredW = maxW
	t.measuredH = float64(len(t.lines)) * lh
}

// emitBitmapQuads turns the laid-out lines into member quads: the outline
// pass (8 offset copies) first, then the fill.
func (t *Text) emitBitmapQuads() {
	if o := t.outline; o != nil && o.Thickness > 0 {
		d := o.Thickness
		offsets := [8][2]float64{
			{-d, 0}, {d, 0}, {0, -d}, {0, d},
			{-d, -d}, {d, -d}, {-d, d}, {d, d},
		}
		for _, off := range offsets {
			for _, line := range t.lines {
				for _, gp := range line.glyphs {
					t.quads = append(t.quads, textQuad{gp.x + off[0], gp.y + off[1], gp.tex, o.Color})
				}
			}
		}
	}
	for _, line := range t.lines {
		for _, gp := range line.glyphs {
			t.quads = append(t.quads, textQuad{gp.x, gp.y, gp.tex, t.color})
		}
	}
}

// layoutTTF renders the whole string into one image shown by a single
// member. The text is drawn white and tinted through the member's color.
func (t *Text) layoutTTF(f *TTFFont) {
	t.lines = t.lines[:0]
	lh := t.effectiveLineHeight()
	w, h := text.Measure(t.content, f.face, lh)
	t.measuredW, t.measuredH = w, h
	if w == 0 || h == 0 {
		t.releaseTTFImage()
		return
	}

	iw, ih := int(w)+1, int(h)+1
	if t.ttfImage != nil {
		if b := t.ttfImage.Bounds(); b.Dx() != iw || b.Dy() != ih {
			t.releaseTTFImage()
		} else {
			t.ttfImage.Clear()
		}
	}
	if t.ttfImage == nil {
		t.ttfImage = ebiten.NewImage(iw, ih)
		t.ttfTex = NewTextureFromImage(t.Name, t.ttfImage)
	}

	op := &text.DrawOptions{}
	op.LineSpacing = lh
	text.Draw(t.ttfImage, t.content, f.face, op)

	t.quads = append(t.quads, textQuad{0, 0, t.ttfTex, t.color})
}

func (t *Text) releaseTTFImage() {
	if t.ttfImage == nil {
		return
	}
	t.ttfImage.Deallocate()
	t.ttfImage = nil
	t.ttfTex = nil
}

// syncMembers makes the members match t.quads, reusing sprites in order.
func (t *Text) syncMembers() {
	n := len(t.quads)
	changed := n != len(t.members)
	for len(t.members) > n {
		last := len(t.members) - 1
		m := t.members[last]
		t.members[last] = nil
		t.members = t.members[:last]
		t.ReleaseMember(m)
		m.DestroyWith(DestroyOptions{})
	}
	for len(t.members) < n {
		m := NewSprite(t.Name, nil)
		t.AdoptMember(m)
		t.members = append(t.members, m)
	}
	for i, q := range t.quads {
		m := t.members[i]
		m.SetTexture(q.tex)
		m.SetPosition(q.x, q.y)
		m.SetColor(q.color)
	}
	if changed {
		t.InvalidateInstructions()
	}
	t.flags |= UpdateBounds
}

func (t *Text) removeMember(m *Node) {
	for i, s := range t.members {
		if &s.Node == m {
			copy(t.members[i:], t.members[i+1:])
			t.members[len(t.members)-1] = nil
			t.members = t.members[:len(t.members)-1]
			t.ReleaseMember(s)
			t.InvalidateInstructions()
			return
		}
	}
}

// Destroy releases the text node and its glyph sprites.
func (t *Text) Destroy() {
	t.DestroyWith(DestroyOptions{})
}

// DestroyWith releases pipe state for every glyph, destroys the glyph
// sprites and frees the TTF image, if any. Font textures are shared and
// never destroyed here. Calling it twice is a no-op.
func (t *Text) DestroyWith(opts DestroyOptions) {
	if t.destroyed {
		return
	}
	t.Node.DestroyWith(opts)
	members := t.members
	t.members = nil
	for _, m := range members {
		m.owner = nil
		m.registry, m.pipe = nil, nil // released through the text node above
		m.DestroyWith(DestroyOptions{})
	}
	t.releaseTTFImage()
}

// --- glyph (internal) ---

type glyph struct {
	id       rune
	x, y     uint16
	width    uint16
	height   uint16
	xOffset  int16
	yOffset  int16
	xAdvance int16
	page     uint16
	tex      *Texture
}

// --- BitmapFont ---

const asciiGlyphCount = 128

// BitmapFont renders text from pre-rasterized glyph atlases in BMFont format.
// Each glyph owns a texture cut from its page, shared by every Text using
// the font.
type BitmapFont struct {
	lineHeight float64
	base       float64
	pages      []*ebiten.Image

	asciiGlyphs [asciiGlyphCount]glyph // fixed array for ASCII, zero-alloc lookup
	asciiSet    [asciiGlyphCount]bool  // which ASCII entries are populated
	extGlyphs   map[rune]*glyph        // extended Unicode (pointer avoids per-lookup alloc)

	kernings map[[2]rune]int16
}

// MeasureString returns the width and height of the rendered text.
func (f *BitmapFont) MeasureString(s string) (width, height float64) {
	var maxW float64
	var cursorX float64
	var prevRune rune
	var hasPrev bool
	lines := 1

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		if r == '\n' {
			if cursorX > maxW {
				maxW = cursorX
			}
			cursorX = 0
			lines++
			hasPrev = false
			continue
		}

		g := f.glyph(r)
		if g == nil {
			hasPrev = false
			continue
		}

		if hasPrev {
			cursorX += float64(f.kern(prevRune, r))
		}
		cursorX += float64(g.xAdvance)
		prevRune = r
		hasPrev = true
	}

	if cursorX > maxW {
		maxW = cursorX
	}
	return maxW, float64(lines) * f.lineHeight
}

// LineHeight returns the vertical distance between baselines.
func (f *BitmapFont) LineHeight() float64 {
	return f.lineHeight
}

// Base returns the distance from the top of a line to the baseline.
func (f *BitmapFont) Base() float64 {
	return f.base
}

// glyph returns the glyph for the given rune, or nil if not found.
func (f *BitmapFont) glyph(r rune) *glyph {
	if r >= 0 && r < asciiGlyphCount {
		if f.asciiSet[r] {
			return &f.asciiGlyphs[r]
		}
		return nil
	}
	if g, ok := f.extGlyphs[r]; ok {
		return g
	}
	return nil
}

// kern returns the kerning amount for the given rune pair.
func (f *BitmapFont) kern(first, second rune) int16 {
	if f.kernings == nil {
		return 0
	}
	return f.kernings[[2]rune{first, second}]
}

// LoadBitmapFont parses BMFont .fnt text-format data. pages holds the page
// images indexed by the font's page ids; every char must reference a page
// that was given.
func LoadBitmapFont(fntData []byte, pages ...*ebiten.Image) (*BitmapFont, error) {
	f := &BitmapFont{pages: pages}

	scanner := bufio.NewScanner(bytes.NewReader(fntData))
	var charCount int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tag, rest := splitTag(line)
		fields := parseFields(rest)

		switch tag {
		case "common":
			f.lineHeight = fieldFloat(fields, "lineHeight")
			f.base = fieldFloat(fields, "base")

		case "char":
			charCount++
			g := glyph{
				id:       rune(fieldInt(fields, "id")),
				x:        uint16(fieldInt(fields, "x")),
				y:        uint16(fieldInt(fields, "y")),
				width:    uint16(fieldInt(fields, "width")),
				height:   uint16(fieldInt(fields, "height")),
				xOffset:  int16(fieldInt(fields, "xoffset")),
				yOffset:  int16(fieldInt(fields, "yoffset")),
				xAdvance: int16(fieldInt(fields, "xadvance")),
				page:     uint16(fieldInt(fields, "page")),
			}
			if int(g.page) >= len(pages) {
				return nil, fmt.Errorf("sprig: .fnt char %d references page %d but only %d page images were given", g.id, g.page, len(pages))
			}
			g.tex = NewTexture(string(g.id), pages[g.page], TextureRegion{
				X:      g.x,
				Y:      g.y,
				Width:  g.width,
				Height: g.height,
			})

			if g.id >= 0 && g.id < asciiGlyphCount {
				f.asciiGlyphs[g.id] = g
				f.asciiSet[g.id] = true
			} else {
				if f.extGlyphs == nil {
					f.extGlyphs = make(map[rune]*glyph)
				}
				g := g // copy for heap allocation
				f.extGlyphs[g.id] = &g
			}

		case "kerning":
			if f.kernings == nil {
				f.kernings = make(map[[2]rune]int16)
			}
			pair := [2]rune{rune(fieldInt(fields, "first")), rune(fieldInt(fields, "second"))}
			f.kernings[pair] = int16(fieldInt(fields, "amount"))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sprig: error reading .fnt data: %w", err)
	}
	if f.lineHeight == 0 {
		return nil, fmt.Errorf("sprig: .fnt data missing common lineHeight")
	}
	if charCount == 0 {
		return nil, fmt.Errorf("sprig: .fnt data has no char definitions")
	}
	return f, nil
}

// splitTag splits a BMFont line into its tag and the rest of the line.
func splitTag(line string) (string, string) {
	idx := strings.IndexByte(line, ' ')
	if idx == -1 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

// parseFields parses "key=value key=value ..." into a map.
func parseFields(s string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Fields(s) {
		eq := strings.IndexByte(part, '=')
		if eq == -1 {
			continue
		}
		key := part[:eq]
		val := part[eq+1:]
		// Strip quotes from values like face="Arial"
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = val[1 : len(val)-1]
		}
		fields[key] = val
	}
	return fields
}

// fieldInt returns fields[key] as an int; missing or malformed values are 0.
func fieldInt(fields map[string]string, key string) int {
	v, _ := strconv.Atoi(fields[key])
	return v
}

func fieldFloat(fields map[string]string, key string) float64 {
	v, _ := strconv.ParseFloat(fields[key], 64)
	return v
}

// --- TTFFont ---

// TTFFont wraps Ebitengine's text/v2 for TrueType font rendering.
type TTFFont struct {
	face *text.GoTextFace
	size float64
	lh   float64 // cached line height
}

// LoadTTFFont loads a TrueType font from raw TTF/OTF data at the given size.
func LoadTTFFont(ttfData []byte, size float64) (*TTFFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("sprig: failed to parse TTF data: %w", err)
	}

	face := &text.GoTextFace{
		Source: source,
		Size:   size,
	}

	m := face.Metrics()
	return &TTFFont{
		face: face,
		size: size,
		lh:   m.HAscent + m.HDescent + m.HLineGap,
	}, nil
}

// MeasureString returns the width and height of the rendered text.
func (f *TTFFont) MeasureString(s string) (width, height float64) {
	return text.Measure(s, f.face, f.lh)
}

// LineHeight returns the vertical distance between baselines.
func (f *TTFFont) LineHeight() float64 {
	return f.lh
}

// Face returns the underlying GoTextFace for direct Ebitengine text/v2 rendering.
func (f *TTFFont) Face() *text.GoTextFace {
	return f.face
}

package sprig

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// --- BMFont test fixture ---

// Minimal BMFont .fnt text data with ASCII glyphs for "ABCDEFGHIJ" + space.
const testFntData = `info face="TestFont" size=32 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=0,0
common lineHeight=40 base=30 scaleW=256 scaleH=256 pages=1 packed=0
page id=0 file="test.png"
chars count=12
char id=32  x=0   y=0   width=0   height=0   xoffset=0   yoffset=0   xadvance=10  page=0
char id=65  x=0   y=0   width=20  height=30  xoffset=1   yoffset=2   xadvance=22  page=0
char id=66  x=20  y=0   width=18  height=30  xoffset=1   yoffset=2   xadvance=20  page=0
char id=67  x=38  y=0   width=19  height=30  xoffset=1   yoffset=2   xadvance=21  page=0
char id=68  x=57  y=0   width=20  height=30  xoffset=1   yoffset=2   xadvance=22  page=0
char id=69  x=77  y=0   width=16  height=30  xoffset=1   yoffset=2   xadvance=18  page=0
char id=70  x=93  y=0   width=15  height=30  xoffset=1   yoffset=2   xadvance=17  page=0
char id=71  x=108 y=0   width=20  height=30  xoffset=1   yoffset=2   xadvance=22  page=0
char id=72  x=128 y=0   width=20  height=30  xoffset=1   yoffset=2   xadvance=22  page=0
char id=73  x=148 y=0   width=8   height=30  xoffset=1   yoffset=2   xadvance=10  page=0
char id=74  x=156 y=0   width=12  height=30  xoffset=0   yoffset=2   xadvance=14  page=0
char id=233 x=168 y=0   width=16  height=30  xoffset=1   yoffset=2   xadvance=18  page=0
kernings count=2
kerning first=65 second=66 amount=-2
kerning first=65 second=67 amount=-1
`

// testFntDataNoLineHeight is malformed .fnt data missing lineHeight.
const testFntDataNoLineHeight = `info face="Bad" size=32
page id=0 file="test.png"
chars count=1
char id=65 x=0 y=0 width=10 height=10 xoffset=0 yoffset=0 xadvance=12 page=0
`

// testFntDataNoChars is .fnt data with no char definitions.
const testFntDataNoChars = `info face="Bad" size=32
common lineHeight=40 base=30 scaleW=256 scaleH=256 pages=1 packed=0
page id=0 file="test.png"
`

func loadTestFont(t testing.TB) *BitmapFont {
	t.Helper()
	f, err := LoadBitmapFont([]byte(testFntData), ebiten.NewImage(256, 256))
	if err != nil {
		t.Fatalf("LoadBitmapFont: %v", err)
	}
	return f
}

// glyphPositions returns the local positions of the text's members.
func glyphPositions(tx *Text) []Vec2 {
	out := make([]Vec2, tx.NumMembers())
	for i := range out {
		out[i] = tx.MemberAt(i).(*Sprite).Position()
	}
	return out
}

// --- LoadBitmapFont tests ---

func TestLoadBitmapFontGlyphCount(t *testing.T) {
	f := loadTestFont(t)

	count := 0
	for i := range f.asciiSet {
		if f.asciiSet[i] {
			count++
		}
	}
	if count != 11 {
		t.Errorf("ascii glyph count = %d, want 11", count)
	}
	if len(f.extGlyphs) != 1 {
		t.Errorf("extended glyph count = %d, want 1", len(f.extGlyphs))
	}
	if f.LineHeight() != 40 {
		t.Errorf("LineHeight = %v, want 40", f.LineHeight())
	}
	if f.Base() != 30 {
		t.Errorf("Base = %v, want 30", f.Base())
	}
}

func TestLoadBitmapFontGlyphTextures(t *testing.T) {
	f := loadTestFont(t)
	g := f.glyph('C')
	if g == nil {
		t.Fatal("glyph 'C' missing")
	}
	r := g.tex.Region()
	if r.X != 38 || r.Y != 0 || r.Width != 19 || r.Height != 30 {
		t.Errorf("C region = %+v, want x=38 y=0 19x30", r)
	}
	if g.tex.Source() != f.pages[0] {
		t.Error("glyph texture should be cut from page 0")
	}
	if f.glyph('Z') != nil {
		t.Error("glyph 'Z' should be missing")
	}
	if f.glyph('é') == nil {
		t.Error("extended glyph 'é' missing")
	}
}

func TestLoadBitmapFontErrors(t *testing.T) {
	page := ebiten.NewImage(16, 16)
	tests := []struct {
		name  string
		data  string
		pages []*ebiten.Image
	}{
		{"garbage", "not valid fnt data at all", []*ebiten.Image{page}},
		{"no line height", testFntDataNoLineHeight, []*ebiten.Image{page}},
		{"no chars", testFntDataNoChars, []*ebiten.Image{page}},
		{"missing page", testFntData, nil},
	}
	for _, tt := range tests {
		if _, err := LoadBitmapFont([]byte(tt.data), tt.pages...); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestLoadTTFFontInvalidData(t *testing.T) {
	if _, err := LoadTTFFont([]byte("not a font"), 16); err == nil {
		t.Error("expected error for invalid TTF data")
	}
}

// --- Measurement ---

func TestBitmapFontMeasureString(t *testing.T) {
	f := loadTestFont(t)
	tests := []struct {
		text string
		w, h float64
	}{
		{"", 0, 40},
		{"A", 22, 40},
		{"AB", 40, 40},   // 22 - 2 kerning + 20
		{"ABC", 61, 40},  // B-C has no kerning
		{"A\nB", 22, 80}, // widest line
		{"A B", 52, 40},
		{"AZB", 42, 40}, // missing glyph is skipped and breaks kerning
	}
	for _, tt := range tests {
		w, h := f.MeasureString(tt.text)
		if w != tt.w || h != tt.h {
			t.Errorf("MeasureString(%q) = (%v, %v), want (%v, %v)", tt.text, w, h, tt.w, tt.h)
		}
	}
}

// --- Layout ---

func TestTextMembersPerGlyph(t *testing.T) {
	tx := NewText("t", "A B", loadTestFont(t))

	// The space advances the cursor but gets no member.
	if tx.NumMembers() != 2 {
		t.Fatalf("NumMembers = %d, want 2", tx.NumMembers())
	}
	want := []Vec2{{X: 1, Y: 2}, {X: 33, Y: 2}}
	if got := glyphPositions(tx); got[0] != want[0] || got[1] != want[1] {
		t.Errorf("positions = %v, want %v", got, want)
	}
	for i := 0; i < tx.NumMembers(); i++ {
		if owner := tx.MemberAt(i).RenderNode().Owner(); owner != &tx.Node {
			t.Errorf("member %d owner = %v, want text node", i, owner)
		}
	}
}

func TestTextKerning(t *testing.T) {
	tx := NewText("t", "AB", loadTestFont(t))
	got := glyphPositions(tx)
	if got[1].X != 21 {
		t.Errorf("B x = %v, want 21 (kerned)", got[1].X)
	}
	if s := tx.Size(); s.Width != 40 || s.Height != 40 {
		t.Errorf("Size = %+v, want 40x40", s)
	}
}

func TestTextWordWrap(t *testing.T) {
	tx := NewText("t", "AB CD", loadTestFont(t))
	tx.SetWrapWidth(50)

	got := glyphPositions(tx)
	want := []Vec2{{X: 1, Y: 2}, {X: 21, Y: 2}, {X: 1, Y: 42}, {X: 22, Y: 42}}
	if len(got) != len(want) {
		t.Fatalf("members = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("glyph %d = %v, want %v", i, got[i], want[i])
		}
	}
	if s := tx.Size(); s.Width != 43 || s.Height != 80 {
		t.Errorf("Size = %+v, want 43x80", s)
	}
}

func TestTextNoWrapWhenZeroWrapWidth(t *testing.T) {
	tx := NewText("t", "AB CD AB CD", loadTestFont(t))
	for i, p := range glyphPositions(tx) {
		if p.Y != 2 {
			t.Errorf("glyph %d y = %v, want 2 (single line)", i, p.Y)
		}
	}
}

func TestTextAlignment(t *testing.T) {
	tests := []struct {
		align TextAlign
		wantX float64 // x of "I" on the second line
	}{
		{TextAlignLeft, 1},
		{TextAlignCenter, 16}, // (40 - 10) / 2 + 1
		{TextAlignRight, 31},  // 40 - 10 + 1
	}
	for _, tt := range tests {
		tx := NewText("t", "AB\nI", loadTestFont(t))
		tx.SetAlign(tt.align)
		got := glyphPositions(tx)
		if got[2].X != tt.wantX || got[2].Y != 42 {
			t.Errorf("align %d: I = %v, want (%v, 42)", tt.align, got[2], tt.wantX)
		}
	}
}

func TestTextAlignAgainstWrapWidth(t *testing.T) {
	tx := NewText("t", "AB", loadTestFont(t))
	tx.SetWrapWidth(100)
	tx.SetAlign(TextAlignCenter)

	if got := glyphPositions(tx)[0].X; got != 31 {
		t.Errorf("A x = %v, want 31", got)
	}
	want := Bounds{MaxX: 100, MaxY: 40}
	if got := tx.Bounds(); got != want {
		t.Errorf("Bounds = %+v, want %+v", got, want)
	}
}

func TestTextLineHeightOverride(t *testing.T) {
	tx := NewText("t", "A\nB", loadTestFont(t))
	tx.SetLineHeight(50)
	if got := glyphPositions(tx)[1].Y; got != 52 {
		t.Errorf("second line y = %v, want 52", got)
	}
	if h := tx.Size().Height; h != 100 {
		t.Errorf("Height = %v, want 100", h)
	}
	tx.SetLineHeight(0)
	if h := tx.Size().Height; h != 80 {
		t.Errorf("Height after reset = %v, want 80", h)
	}
}

func TestTextColorTint(t *testing.T) {
	tx := NewText("t", "AB", loadTestFont(t))
	red := Color{R: 1, A: 1}
	tx.SetColor(red)
	for i := 0; i < tx.NumMembers(); i++ {
		if got := tx.MemberAt(i).(*Sprite).Color(); got != red {
			t.Errorf("member %d color = %v, want %v", i, got, red)
		}
	}
}

func TestTextOutline(t *testing.T) {
	tx := NewText("t", "AB", loadTestFont(t))
	black := Color{A: 1}
	tx.SetOutline(&Outline{Color: black, Thickness: 1})

	// 8 outline copies per glyph, then the fill.
	if tx.NumMembers() != 18 {
		t.Fatalf("NumMembers = %d, want 18", tx.NumMembers())
	}
	first := tx.MemberAt(0).(*Sprite)
	if first.Color() != black || first.Position() != (Vec2{X: 0, Y: 2}) {
		t.Errorf("first outline member = %v at %v, want black at (0, 2)", first.Color(), first.Position())
	}
	fill := tx.MemberAt(16).(*Sprite)
	if fill.Color() != ColorWhite || fill.Position() != (Vec2{X: 1, Y: 2}) {
		t.Errorf("first fill member = %v at %v, want white at (1, 2)", fill.Color(), fill.Position())
	}

	tx.SetOutline(nil)
	if tx.NumMembers() != 2 {
		t.Errorf("NumMembers after clearing outline = %d, want 2", tx.NumMembers())
	}
}

func TestTextNilFont(t *testing.T) {
	tx := NewText("t", "AB", nil)
	if tx.NumMembers() != 0 {
		t.Errorf("NumMembers = %d, want 0", tx.NumMembers())
	}
	if s := tx.Size(); s.Width != 0 || s.Height != 0 {
		t.Errorf("Size = %+v, want zero", s)
	}
	tx.SetFont(loadTestFont(t))
	if tx.NumMembers() != 2 {
		t.Errorf("NumMembers after SetFont = %d, want 2", tx.NumMembers())
	}
}

// --- Members and rendering ---

func TestTextReusesMembers(t *testing.T) {
	tx := NewText("t", "AB", loadTestFont(t))
	first := tx.MemberAt(0)
	tx.SetText("CD")
	if tx.MemberAt(0) != first {
		t.Error("same glyph count should reuse member sprites")
	}
	if got := tx.MemberAt(0).(*Sprite).Texture(); got != tx.Font().(*BitmapFont).glyph('C').tex {
		t.Error("member texture should follow the new glyph")
	}
}

func TestTextShrinkDestroysExtraMembers(t *testing.T) {
	tx := NewText("t", "ABC", loadTestFont(t))
	last := tx.MemberAt(2).(*Sprite)
	tx.SetText("A")
	if tx.NumMembers() != 1 {
		t.Fatalf("NumMembers = %d, want 1", tx.NumMembers())
	}
	if !last.IsDestroyed() {
		t.Error("dropped member should be destroyed")
	}
	if last.Owner() != nil {
		t.Error("dropped member should be released")
	}
}

func TestTextRendersOneBatch(t *testing.T) {
	root := NewGroupContainer("root")
	tx := NewText("t", "ABC", loadTestFont(t))
	root.AddChild(tx)

	r := NewRenderer(NewDefaultRegistry())
	mustRender(t, r, root)

	set := root.OwnGroup().Instructions()
	if set.Len() != 1 {
		t.Fatalf("instructions = %d, want 1 batch", set.Len())
	}
	if got := set.At(0).(*Batch).Len(); got != 3 {
		t.Errorf("batch len = %d, want 3", got)
	}
}

func TestTextSameLengthUpdatesInPlace(t *testing.T) {
	root := NewGroupContainer("root")
	tx := NewText("t", "AB", loadTestFont(t))
	root.AddChild(tx)
	r := NewRenderer(NewDefaultRegistry())
	mustRender(t, r, root)

	tx.SetText("CD")
	if root.OwnGroup().NeedsRebuild() {
		t.Error("same glyph count should not invalidate the instruction set")
	}
	st := mustRender(t, r, root)
	if st.Rebuilds != 0 || st.Updates != 1 {
		t.Errorf("stats = %+v, want 0 rebuilds and 1 update", st)
	}

	tx.SetText("CDE")
	if !root.OwnGroup().NeedsRebuild() {
		t.Error("glyph count change should invalidate the instruction set")
	}
	st = mustRender(t, r, root)
	if st.Rebuilds != 1 {
		t.Errorf("Rebuilds = %d, want 1", st.Rebuilds)
	}
	if got := root.OwnGroup().Instructions().At(0).(*Batch).Len(); got != 3 {
		t.Errorf("batch len = %d, want 3", got)
	}
}

// --- Destroy ---

func TestTextDestroyDestroysMembers(t *testing.T) {
	tx := NewText("t", "AB", loadTestFont(t))
	members := []*Sprite{tx.MemberAt(0).(*Sprite), tx.MemberAt(1).(*Sprite)}
	font := tx.Font().(*BitmapFont)

	tx.Destroy()
	tx.Destroy()

	for i, m := range members {
		if !m.IsDestroyed() {
			t.Errorf("member %d not destroyed", i)
		}
	}
	if tx.NumMembers() != 0 {
		t.Errorf("NumMembers = %d, want 0", tx.NumMembers())
	}
	if font.glyph('A').tex.IsDestroyed() {
		t.Error("font textures are shared and should survive")
	}
}

func TestTextDestroyedMemberLeavesText(t *testing.T) {
	tx := NewText("t", "ABC", loadTestFont(t))
	mid := tx.MemberAt(1).(*Sprite)
	mid.Destroy()

	if tx.NumMembers() != 2 {
		t.Fatalf("NumMembers = %d, want 2", tx.NumMembers())
	}
	if tx.MemberAt(1) == Renderable(mid) {
		t.Error("destroyed member still listed")
	}
}

func TestTextSettersAfterDestroyAreNoops(t *testing.T) {
	tx := NewText("t", "AB", loadTestFont(t))
	tx.Destroy()
	tx.SetText("ABCD")
	if tx.NumMembers() != 0 {
		t.Errorf("NumMembers = %d, want 0", tx.NumMembers())
	}
}

// --- TTF ---

func TestTextTTFSingleMember(t *testing.T) {
	f, err := LoadTTFFont(goregular.TTF, 16)
	if err != nil {
		t.Fatalf("LoadTTFFont: %v", err)
	}
	if f.LineHeight() <= 0 {
		t.Errorf("LineHeight = %v, want > 0", f.LineHeight())
	}

	tx := NewText("t", "Hello", f)
	if tx.NumMembers() != 1 {
		t.Fatalf("NumMembers = %d, want 1", tx.NumMembers())
	}
	w, h := f.MeasureString("Hello")
	if s := tx.Size(); s.Width != w || s.Height != h {
		t.Errorf("Size = %+v, want %vx%v", s, w, h)
	}
	m := tx.MemberAt(0).(*Sprite)
	if m.Texture().Source() != tx.ttfImage {
		t.Error("member should show the rendered text image")
	}

	tx.SetText("")
	if tx.NumMembers() != 0 {
		t.Errorf("NumMembers for empty text = %d, want 0", tx.NumMembers())
	}
	tx.Destroy()
	if tx.ttfImage != nil {
		t.Error("rendered image should be released on destroy")
	}
}

func TestTextTTFEmptyReleasesImage(t *testing.T) {
	f, err := LoadTTFFont(goregular.TTF, 16)
	if err != nil {
		t.Fatalf("LoadTTFFont: %v", err)
	}
	tx := NewText("t", "Hello", f)
	if tx.ttfImage == nil {
		t.Fatal("non-empty text should have a rendered image")
	}

	tx.SetText("")
	if tx.ttfImage != nil || tx.ttfTex != nil {
		t.Error("rendered image should be released when the text measures empty")
	}
	if s := tx.Size(); s.Width != 0 || s.Height != 0 {
		t.Errorf("Size = %+v, want zero", s)
	}

	tx.SetText("Hi")
	if tx.ttfImage == nil || tx.NumMembers() != 1 {
		t.Errorf("image = %v, NumMembers = %d, want a new image and 1 member", tx.ttfImage, tx.NumMembers())
	}
}

// --- Benchmarks ---

func BenchmarkBitmapFontMeasureString(b *testing.B) {
	f := loadTestFont(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		f.MeasureString("ABCDEFGHIJ ABCDEFGHIJ ABCDEFGHIJ")
	}
}

func BenchmarkTextRelayout(b *testing.B) {
	tx := NewText("t", "ABCDEFGHIJ ABCDEFGHIJ ABCDEFGHIJ", loadTestFont(b))
	tx.SetWrapWidth(200)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		tx.relayout()
	}
}

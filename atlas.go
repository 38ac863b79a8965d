package sprig

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// Atlas holds one or more page images and the textures cut from them.
// Every lookup of the same name returns the same *Texture, so sprites built
// from an atlas share texture references and batch together per page.
type Atlas struct {
	// Pages contains the atlas page images indexed by page number.
	Pages    []*ebiten.Image
	textures map[string]*Texture
}

// Texture returns the texture for the given name.
// If the name doesn't exist, it logs a warning (debug mode only) and returns
// a shared 1×1 magenta placeholder.
func (a *Atlas) Texture(name string) *Texture {
	if t, ok := a.textures[name]; ok {
		return t
	}
	if globalDebug {
		log.Printf("sprig: atlas texture %q not found, using magenta placeholder", name)
	}
	return magentaTexture()
}

// Has reports whether the atlas contains a texture with the given name.
func (a *Atlas) Has(name string) bool {
	_, ok := a.textures[name]
	return ok
}

// Len returns the number of named textures.
func (a *Atlas) Len() int {
	return len(a.textures)
}

// magenta placeholder singleton (no sync.Once — sprig is single-threaded)
var magentaTex *Texture

func magentaTexture() *Texture {
	if magentaTex == nil {
		img := ebiten.NewImage(1, 1)
		img.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
		magentaTex = NewTexture("magenta", img, TextureRegion{Width: 1, Height: 1})
	}
	return magentaTex
}

// LoadAtlas parses TexturePacker JSON data and associates the given page images.
// Supports both the hash format (single "frames" object) and the array format
// ("textures" array with per-page frame lists).
func LoadAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	// Read only the top-level keys to detect the format.
	var head struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &head); err != nil {
		return nil, fmt.Errorf("sprig: failed to parse atlas JSON: %w", err)
	}

	atlas := &Atlas{
		Pages:    pages,
		textures: make(map[string]*Texture),
	}

	switch {
	case head.Textures != nil:
		if err := parseArrayFormat(head.Textures, atlas); err != nil {
			return nil, err
		}
	case head.Frames != nil:
		if err := parseHashFrames(head.Frames, 0, atlas); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("sprig: atlas JSON has neither \"frames\" nor \"textures\" key")
	}

	return atlas, nil
}

// --- JSON structure types ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

// parseHashFrames parses the hash format: {"name": {frame...}, ...}
func parseHashFrames(raw json.RawMessage, page int, atlas *Atlas) error {
	var frames map[string]jsonFrame
	if err := json.Unmarshal(raw, &frames); err != nil {
		return fmt.Errorf("sprig: failed to parse atlas frames: %w", err)
	}
	return addFrames(frames, page, atlas)
}

// parseArrayFormat parses the array format: [{"image":"...", "frames":{...}}, ...]
func parseArrayFormat(raw json.RawMessage, atlas *Atlas) error {
	var textures []jsonTexturePage
	if err := json.Unmarshal(raw, &textures); err != nil {
		return fmt.Errorf("sprig: failed to parse atlas textures array: %w", err)
	}
	for i, tex := range textures {
		if err := addFrames(tex.Frames, i, atlas); err != nil {
			return err
		}
	}
	return nil
}

func addFrames(frames map[string]jsonFrame, page int, atlas *Atlas) error {
	var img *ebiten.Image
	if page < len(atlas.Pages) {
		img = atlas.Pages[page]
	} else if len(frames) > 0 {
		return fmt.Errorf("sprig: atlas references page %d but only %d page images were given", page, len(atlas.Pages))
	}
	for name, f := range frames {
		atlas.textures[name] = NewTexture(name, img, frameToRegion(f))
	}
	return nil
}

// frameToRegion converts a TexturePacker frame. Frame sizes are the visual
// (unrotated) size; rotated frames occupy h×w on the page.
func frameToRegion(f jsonFrame) TextureRegion {
	r := TextureRegion{
		X:         uint16(f.Frame.X),
		Y:         uint16(f.Frame.Y),
		Width:     uint16(f.Frame.W),
		Height:    uint16(f.Frame.H),
		OriginalW: uint16(f.SourceSize.W),
		OriginalH: uint16(f.SourceSize.H),
		Rotated:   f.Rotated,
	}
	if f.Trimmed {
		r.OffsetX = int16(f.SpriteSourceSize.X)
		r.OffsetY = int16(f.SpriteSourceSize.Y)
	}
	return r
}

package sprig

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsWidget is a sprite showing the current FPS and TPS. Its image is
// redrawn every ~0.5 seconds; the sprite itself never changes, so the
// redraw costs no instruction updates.
type fpsWidget struct {
	sprite  *Sprite
	img     *ebiten.Image
	elapsed float64
}

func newFPSWidget() *fpsWidget {
	// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
	img := ebiten.NewImage(100, 32)
	s := NewSprite("fps_widget", NewTextureFromImage("fps_widget", img))
	s.SetZIndex(1 << 30) // draw on top
	w := &fpsWidget{sprite: s, img: img}
	w.redraw()
	return w
}

func (w *fpsWidget) update(dt float64) {
	w.elapsed += dt
	if w.elapsed < 0.5 {
		return
	}
	w.elapsed = 0
	w.redraw()
}

func (w *fpsWidget) redraw() {
	w.img.Clear()
	// Semi-transparent background for readability
	w.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(w.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
}

// ShowFPS adds or removes an FPS/TPS readout in the top-left corner.
func (s *Scene) ShowFPS(show bool) {
	if show == (s.fps != nil) {
		return
	}
	if !show {
		s.fps.sprite.DestroyWith(DestroyOptions{Texture: true, TextureSource: true})
		s.fps = nil
		return
	}
	s.fps = newFPSWidget()
	s.root.AddChild(s.fps.sprite)
}

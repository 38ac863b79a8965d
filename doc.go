// Package sprig is a retained-mode 2D scene graph for [Ebitengine] whose
// rendering is split into pluggable render pipes.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := sprig.NewScene()
//	// ... add nodes ...
//	sprig.Run(scene, sprig.RunConfig{
//		Title: "My Game", Width: 640, Height: 480,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Update] and [Scene.Draw] directly. The window settings can also be
// read from YAML with [LoadRunConfig].
//
// # Scene graph
//
// Every element embeds a [Node]. Nodes form a tree rooted at [Scene.Root];
// children inherit their parent's transform and alpha. Attributes are private
// and changed through setters, which record the change and notify the
// nearest [RenderGroup] at most once per frame.
//
//	hero := sprig.NewSprite("hero", atlas.Texture("hero_idle"))
//	hero.SetAnchor(0.5, 1)
//	hero.SetPosition(100, 50)
//	scene.Root().AddChild(hero)
//
// A [Sprite] derives its size from its scale and the original size of its
// [Texture]: [Sprite.SetWidth] adjusts the scale, keeping any flip.
// [Sprite.Bounds] and [Sprite.SourceBounds] are cached and only recomputed
// after the texture or anchor changes.
//
// # Render pipes
//
// Each node kind names a pipe id. A [Registry] maps ids to [Pipe]
// implementations, which translate nodes into instructions. Every frame a
// render group validates the nodes that changed; when all instructions are
// still valid they are patched in place, otherwise the group rebuilds its
// [InstructionSet] from scratch.
//
//	reg := sprig.NewDefaultRegistry()
//	reg.Register("outline", &outlinePipe{})
//	scene := sprig.NewSceneWithRegistry(reg)
//
// A [ParticleContainer] owns its particles as members rather than children.
// It is dispatched as one unit, and the [CompositePipe] forwards every pipe
// operation to the pipe of each member, so particles batch exactly like
// sprites. Any kind implementing [Composite] can reuse it. [Text] does: it
// lays out a string with a [BitmapFont] and owns one sprite per glyph, or a
// single sprite for [TTFFont] text.
//
// [NewGroupContainer] gives a subtree its own instruction set. Changes below
// it never force the enclosing group to rebuild.
//
// # Destruction
//
// [Node.Destroy] detaches a node and releases what its pipe holds for it.
// Textures are shared and survive unless [DestroyOptions] asks otherwise.
// Destroying twice is a no-op.
//
// [Ebitengine]: https://ebitengine.org
package sprig

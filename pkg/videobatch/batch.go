// Package videobatch implements a fixed-capacity quad batch that
// accumulates video-textured sprites and flushes them to the screen via
// SDL2's RenderGeometry: one draw call per occupied texture slot, since
// SDL2 has no texture-array sampler to bind all 32 slots in a single call.
package videobatch

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	MaxQuads        = 20000
	MaxVertices     = MaxQuads * 4
	MaxIndices      = MaxQuads * 6
	MaxTextureSlots = 32
)

// Vertex is one RenderGeometry input vertex, matching the GPU vertex layout
// a real shader-backed renderer would consume: world-space position, tint,
// UV, UV tiling factor, saturation, and an entity id for picking. SDL2's
// RenderGeometry only consumes X/Y/color/UV; the remaining fields ride along
// so the batch's vertex stream is format-compatible with a shader pipeline.
type Vertex struct {
	X, Y, Z    float32
	R, G, B, A float32
	U, V       float32
	TilingU    float32
	TilingV    float32
	Saturation float32
	EntityID   int32
}

// Camera holds the world-space right/up basis vectors a billboarded quad
// faces into. Extracted from a view matrix's first two rows, which for a
// pure rotation+translation view equal the camera's world-space axes
// (VideoRenderer.cpp's RenderVideo/RenderFrame camera sampling).
type Camera struct {
	Right, Up mgl32.Vec3
}

// NewCamera derives a billboard camera basis from view.
func NewCamera(view mgl32.Mat4) Camera {
	return Camera{
		Right: mgl32.Vec3{view[0], view[4], view[8]},
		Up:    mgl32.Vec3{view[1], view[5], view[9]},
	}
}

// Transform is one entity's placement, mirroring VideoRendererComponent's
// translation/scale/rotation triple. Rotation is the zero Mat4 when unused
// (treated as identity) so callers that never rotate anything can leave it
// unset.
type Transform struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Mat4
}

// Matrix composes t's translate*rotate*scale model matrix, used for the
// non-billboard vertex path.
func (t Transform) Matrix() mgl32.Mat4 {
	rot := t.Rotation
	if rot == (mgl32.Mat4{}) {
		rot = mgl32.Ident4()
	}
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(rot).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Renderer accumulates quads across texture slots and flushes them as one
// RenderGeometry call per occupied slot. Slot 0 always holds a 1x1 white
// texture so untextured quads can still be drawn through the same path.
type Renderer struct {
	sdlRenderer *sdl.Renderer
	whiteTex    *sdl.Texture

	slots     [MaxTextureSlots]*sdl.Texture
	slotCount int

	vertices [][]Vertex // one vertex slice per occupied slot
	indices  [][]int32  // matching index slice per occupied slot

	useBillboard bool
	camera       Camera
}

// quadVertexPositions is the unit quad in model space, centered at origin.
var quadVertexPositions = [4][2]float32{
	{-0.5, -0.5},
	{0.5, -0.5},
	{0.5, 0.5},
	{-0.5, 0.5},
}

// New creates a batch renderer bound to sdlRenderer, allocating the white
// fallback texture for slot 0. The camera defaults to the identity basis so
// billboarding works even before the caller ever sets one.
func New(sdlRenderer *sdl.Renderer) (*Renderer, error) {
	white, err := sdlRenderer.CreateTexture(sdl.PIXELFORMAT_RGBA32, sdl.TEXTUREACCESS_STATIC, 1, 1)
	if err != nil {
		return nil, err
	}
	if err := white.Update(nil, []byte{255, 255, 255, 255}, 4); err != nil {
		white.Destroy()
		return nil, err
	}

	r := &Renderer{
		sdlRenderer: sdlRenderer,
		whiteTex:    white,
		camera:      Camera{Right: mgl32.Vec3{1, 0, 0}, Up: mgl32.Vec3{0, 1, 0}},
	}
	r.StartBatch()
	return r, nil
}

func (r *Renderer) SetBillboard(enabled bool) { r.useBillboard = enabled }
func (r *Renderer) SetCamera(c Camera)        { r.camera = c }

// StartBatch resets the slot table back to just the white texture at slot 0,
// ready to accumulate a new frame's worth of quads.
func (r *Renderer) StartBatch() {
	r.slots = [MaxTextureSlots]*sdl.Texture{}
	r.slots[0] = r.whiteTex
	r.slotCount = 1
	r.vertices = make([][]Vertex, MaxTextureSlots)
	r.indices = make([][]int32, MaxTextureSlots)
}

// NextBatch flushes whatever has accumulated so far and starts a fresh one.
// Called when a new texture would exceed MaxTextureSlots or a quad would
// exceed MaxQuads, before the quad or texture that triggered it is
// (re-)submitted.
func (r *Renderer) NextBatch() {
	r.Flush()
	r.StartBatch()
}

// slotFor returns the slot index for tex, allocating a new slot (and
// flushing first via NextBatch if the table is full) if tex has not been
// seen yet this batch. Texture identity is the live *sdl.Texture pointer.
func (r *Renderer) slotFor(tex *sdl.Texture) int {
	if tex == nil {
		return 0
	}
	for i := 1; i < r.slotCount; i++ {
		if r.slots[i] == tex {
			return i
		}
	}
	if r.slotCount >= MaxTextureSlots {
		r.NextBatch()
	}
	idx := r.slotCount
	r.slots[idx] = tex
	r.slotCount++
	return idx
}

// PushQuad submits one textured quad centered at (x, y) with the given size,
// tinted by color (straight alpha), sampling tex across its full extent, at
// full saturation with no tiling and no entity id. Kept for simple 2D
// overlay draws that don't need per-entity transform/saturation/picking.
func (r *Renderer) PushQuad(tex *sdl.Texture, x, y, w, h float32, color [4]float32) {
	r.PushVideoSprite(tex, Transform{
		Translation: mgl32.Vec3{x, y, 0},
		Scale:       mgl32.Vec3{w, h, 1},
	}, color, 1, [2]float32{1, 1}, 0)
}

// PushVideoSprite submits one textured quad for an entity: its world-space
// position is billboarded into the active camera when SetBillboard(true) was
// called, or driven by transform's full model matrix otherwise
// (VideoRenderer.cpp's RenderVideo/RenderFrame vertex-emission loops, which
// both branch the same way on the same flag). saturation and tiling ride
// along per vertex so a shader-backed renderer could apply them; entityID
// supports mouse-picking via a colour/id attachment.
func (r *Renderer) PushVideoSprite(tex *sdl.Texture, transform Transform, color [4]float32, saturation float32, tiling [2]float32, entityID int32) {
	slot := r.slotFor(tex)

	queued := 0
	for _, v := range r.vertices {
		queued += len(v)
	}
	if queued+4 > MaxVertices {
		r.NextBatch()
		slot = r.slotFor(tex)
	}

	uv := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	base := int32(len(r.vertices[slot]))

	positions := r.quadPositions(transform)
	for i, pos := range positions {
		r.vertices[slot] = append(r.vertices[slot], Vertex{
			X: pos[0], Y: pos[1], Z: pos[2],
			R: color[0], G: color[1], B: color[2], A: color[3],
			U: uv[i][0], V: uv[i][1],
			TilingU:    tiling[0],
			TilingV:    tiling[1],
			Saturation: saturation,
			EntityID:   entityID,
		})
	}
	r.indices[slot] = append(r.indices[slot],
		base+0, base+1, base+2,
		base+2, base+3, base+0,
	)
}

// quadPositions computes the four world-space corners of the unit quad
// under transform, either billboarded into the active camera's right/up
// vectors or passed through transform's full model matrix.
func (r *Renderer) quadPositions(t Transform) [4]mgl32.Vec3 {
	var out [4]mgl32.Vec3
	if r.useBillboard {
		for i, p := range quadVertexPositions {
			right := r.camera.Right.Mul(p[0] * t.Scale[0])
			up := r.camera.Up.Mul(p[1] * t.Scale[1])
			out[i] = right.Add(up).Add(t.Translation)
		}
		return out
	}

	m := t.Matrix()
	for i, p := range quadVertexPositions {
		v4 := m.Mul4x1(mgl32.Vec4{p[0], p[1], 0, 1})
		out[i] = mgl32.Vec3{v4[0], v4[1], v4[2]}
	}
	return out
}

// Flush issues one RenderGeometry call per occupied texture slot, since
// SDL2 has no texture-array sampler to draw every slot in one call, and
// clears the accumulated geometry without resetting the slot table
// (callers end a frame by calling Flush directly; StartBatch/NextBatch
// reset slots).
// SDL2's RenderGeometry is a pure 2D rasterizer, so only X/Y survive into
// the draw call; Z and the shader-only attributes exist for vertex-layout
// fidelity, not for this backend's actual draw.
func (r *Renderer) Flush() {
	for slot := 0; slot < r.slotCount; slot++ {
		verts := r.vertices[slot]
		if len(verts) == 0 {
			continue
		}
		sdlVerts := make([]sdl.Vertex, len(verts))
		for i, v := range verts {
			sdlVerts[i] = sdl.Vertex{
				Position: sdl.FPoint{X: v.X, Y: v.Y},
				Color:    sdl.Color{R: toByte(v.R), G: toByte(v.G), B: toByte(v.B), A: toByte(v.A)},
				TexCoord: sdl.FPoint{X: v.U, Y: v.V},
			}
		}
		r.sdlRenderer.RenderGeometry(r.slots[slot], sdlVerts, r.indices[slot])
		r.vertices[slot] = r.vertices[slot][:0]
		r.indices[slot] = r.indices[slot][:0]
	}
}

func toByte(f float32) uint8 {
	v := f * 255
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Close releases the white fallback texture.
func (r *Renderer) Close() {
	if r.whiteTex != nil {
		r.whiteTex.Destroy()
		r.whiteTex = nil
	}
}

package videobatch

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
)

// fakeTextureBacking gives each fake texture id its own address. sdl.Texture
// is an opaque C type that cannot be allocated from Go; the tests only need
// distinct non-nil pointers and never dereference them.
var fakeTextureBacking [MaxTextureSlots]byte

func fakeTexturePtr(id int) *sdl.Texture {
	return (*sdl.Texture)(unsafe.Pointer(&fakeTextureBacking[id]))
}

func TestToByteClamps(t *testing.T) {
	cases := []struct {
		in   float32
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 127},
		{1, 255},
		{2, 255},
	}
	for _, c := range cases {
		if got := toByte(c.in); got != c.want {
			t.Errorf("toByte(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSlotForReusesExistingSlot(t *testing.T) {
	r := &Renderer{}
	r.StartBatch()

	first := r.slotFor(nil)
	second := r.slotFor(nil)
	if first != second {
		t.Fatalf("slotFor(nil) returned different slots on repeated calls: %d vs %d", first, second)
	}
	if first != 0 {
		t.Fatalf("slotFor(nil) = %d, want 0 (white texture slot)", first)
	}
}

func TestSlotForAllocatesNewSlotPerTexture(t *testing.T) {
	r := &Renderer{}
	r.StartBatch()

	a := fakeTexturePtr(1)
	b := fakeTexturePtr(2)

	slotA := r.slotFor(a)
	slotB := r.slotFor(b)
	if slotA == slotB {
		t.Fatalf("expected distinct slots for distinct textures, got %d and %d", slotA, slotB)
	}
	if r.slotFor(a) != slotA {
		t.Fatalf("slotFor should return the same slot for a texture seen earlier in the batch")
	}
}

func TestPushQuadEmitsSixIndicesPerQuad(t *testing.T) {
	r := &Renderer{}
	r.StartBatch()

	r.PushQuad(nil, 0, 0, 10, 10, [4]float32{1, 1, 1, 1})
	if got := len(r.indices[0]); got != 6 {
		t.Fatalf("PushQuad() produced %d indices, want 6", got)
	}
	if got := len(r.vertices[0]); got != 4 {
		t.Fatalf("PushQuad() produced %d vertices, want 4", got)
	}
}

func TestPushVideoSpriteCarriesSaturationAndEntityID(t *testing.T) {
	r := &Renderer{}
	r.StartBatch()

	transform := Transform{Translation: mgl32.Vec3{1, 2, 0}, Scale: mgl32.Vec3{4, 4, 1}}
	r.PushVideoSprite(nil, transform, [4]float32{1, 1, 1, 1}, 0.5, [2]float32{2, 2}, 7)

	if got := len(r.vertices[0]); got != 4 {
		t.Fatalf("PushVideoSprite() produced %d vertices, want 4", got)
	}
	for _, v := range r.vertices[0] {
		if v.Saturation != 0.5 {
			t.Errorf("vertex saturation = %v, want 0.5", v.Saturation)
		}
		if v.EntityID != 7 {
			t.Errorf("vertex entity id = %v, want 7", v.EntityID)
		}
		if v.TilingU != 2 || v.TilingV != 2 {
			t.Errorf("vertex tiling = (%v, %v), want (2, 2)", v.TilingU, v.TilingV)
		}
	}
}

func TestBillboardVertexPositionsFaceCamera(t *testing.T) {
	r := &Renderer{camera: Camera{Right: mgl32.Vec3{1, 0, 0}, Up: mgl32.Vec3{0, 1, 0}}}
	r.useBillboard = true
	r.StartBatch()

	transform := Transform{Translation: mgl32.Vec3{5, 5, 0}, Scale: mgl32.Vec3{2, 2, 1}}
	r.PushVideoSprite(nil, transform, [4]float32{1, 1, 1, 1}, 1, [2]float32{1, 1}, 0)

	// Unit quad corner (-0.5,-0.5) scaled by (2,2) and billboarded against
	// the camera's right/up axes lands at translation + (-1, -1, 0).
	got := r.vertices[0][0]
	if got.X != 4 || got.Y != 4 {
		t.Fatalf("billboarded corner = (%v, %v), want (4, 4)", got.X, got.Y)
	}
}

func TestNonBillboardVertexPositionsUseTransformMatrix(t *testing.T) {
	r := &Renderer{}
	r.StartBatch()

	transform := Transform{Translation: mgl32.Vec3{10, 0, 0}, Scale: mgl32.Vec3{2, 2, 1}}
	r.PushVideoSprite(nil, transform, [4]float32{1, 1, 1, 1}, 1, [2]float32{1, 1}, 0)

	got := r.vertices[0][0]
	if got.X != 9 || got.Y != -1 {
		t.Fatalf("transformed corner = (%v, %v), want (9, -1)", got.X, got.Y)
	}
}

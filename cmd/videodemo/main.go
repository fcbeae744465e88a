// Command videodemo drives the full pipeline end to end: open a media
// file, decode and upload its video frames through a persistent GPU
// texture, play its audio through an SDL2 device, and batch-draw the
// result every frame, controlled interactively via keyboard.
package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/joho/godotenv"
	"github.com/veandco/go-sdl2/sdl"

	"videocore/pkg/config"
	"videocore/pkg/input"
	"videocore/pkg/performance"
	"videocore/pkg/playback"
	"videocore/pkg/videobatch"
	"videocore/pkg/videotexture"
)

const (
	fallbackWidth  = 1280
	fallbackHeight = 720
)

func main() {
	runtime.LockOSThread()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <video-file>", os.Args[0])
	}
	path := os.Args[1]

	settings := config.Load()

	if err := initializeSDL2(); err != nil {
		log.Fatalf("Failed to initialize SDL2: %v", err)
	}
	defer sdl.Quit()

	window, renderer, err := createWindowAndRenderer()
	if err != nil {
		log.Fatalf("Failed to create window/renderer: %v", err)
	}
	defer window.Destroy()
	defer renderer.Destroy()

	batch, err := videobatch.New(renderer)
	if err != nil {
		log.Fatalf("Failed to create batch renderer: %v", err)
	}
	defer batch.Close()
	batch.SetBillboard(settings.BillboardEnabled)

	texture, err := videotexture.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer texture.Close()
	texture.SetVolumeFactor(settings.MasterVolume)

	if err := texture.EnsureTexture(renderer); err != nil {
		log.Fatalf("Failed to allocate video texture: %v", err)
	}

	controller := playback.NewController(texture)
	if os.Getenv("VIDEOCORE_ADAPTIVE_PACING") != "" {
		controller.EnableAdaptivePacing()
	}

	vd := playback.NewVideoData()
	vd.Loop = settings.DefaultLoop
	vd.PlayVideo = true

	runLoop(window, renderer, batch, texture, controller, vd, settings.TargetFPS, float32(settings.DefaultSaturation))

	log.Println("videodemo shutting down")
}

// runLoop is the per-frame update/draw cycle: poll input, advance playback,
// push one quad for the video texture, and present (teacher's runGameLoop
// idiom, generalized from a fixed game object to the playback pipeline).
func runLoop(window *sdl.Window, renderer *sdl.Renderer, batch *videobatch.Renderer, texture *videotexture.VideoTexture, controller *playback.Controller, vd *playback.VideoData, targetFPS float64, saturation float32) {
	if targetFPS <= 0 {
		targetFPS = 60
	}
	frameTime := time.Duration(float64(time.Second) / targetFPS)

	// A fixed straight-on camera: billboarded sprites face it squarely since
	// this demo never moves the viewpoint.
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	batch.SetCamera(videobatch.NewCamera(view))

	keys := input.NewKeyPressTracker()
	var drag input.ScrubDragTracker
	var dragBaseFrame int64
	var inDrag, playBeforeDrag bool
	running := true
	lastTime := time.Now()

	for running {
		frameStart := time.Now()
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if _, ok := event.(*sdl.QuitEvent); ok {
				running = false
			}
		}

		keyState := sdl.GetKeyboardState()
		if keys.IsPressed(keyState, sdl.SCANCODE_SPACE) {
			vd.PauseVideo = !vd.PauseVideo
		}
		if keys.IsPressed(keyState, sdl.SCANCODE_RIGHT) {
			vd.FramePosition += 30
		}
		if keys.IsPressed(keyState, sdl.SCANCODE_LEFT) {
			if vd.FramePosition >= 30 {
				vd.FramePosition -= 30
			} else {
				vd.FramePosition = 0
			}
		}
		if keys.IsPressed(keyState, sdl.SCANCODE_ESCAPE) {
			running = false
		}

		// Dragging the left mouse button scrubs directly: every 10px of
		// horizontal movement steps one frame, independent of the
		// left/right arrow keys' fixed 30-frame jumps.
		mouseX, _, mouseState := sdl.GetMouseState()
		if dragging, deltaX := drag.Update(mouseState, mouseX); dragging {
			if !inDrag {
				inDrag = true
				playBeforeDrag = vd.PlayVideo
			}
			if deltaX == 0 {
				dragBaseFrame = vd.FramePosition
			}
			vd.PlayVideo = false
			vd.FramePosition = dragBaseFrame + int64(deltaX/10)
			if vd.FramePosition < 0 {
				vd.FramePosition = 0
			}
		} else if inDrag {
			// Releasing the drag resumes playback if it was playing when
			// the drag began.
			inDrag = false
			vd.PlayVideo = playBeforeDrag
		}

		if err := controller.DrawVideoSprite(vd); err != nil {
			log.Printf("playback error: %v", err)
		}

		renderer.SetDrawColor(0, 0, 0, 255)
		renderer.Clear()

		w, h := texture.Dimensions()
		transform := videobatch.Transform{
			Translation: mgl32.Vec3{float32(w) / 2, float32(h) / 2, 0},
			Scale:       mgl32.Vec3{float32(w), float32(h), 1},
		}
		batch.PushVideoSprite(texture.Texture(), transform, [4]float32{1, 1, 1, 1}, saturation, [2]float32{1, 1}, 0)
		batch.Flush()

		renderer.Present()

		if time.Since(lastTime) > 5*time.Second {
			performance.LogMemorySnapshot()
			lastTime = time.Now()
		}

		elapsed := time.Since(frameStart)
		if elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
}

func initializeSDL2() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("SDL_INIT_VIDEO failed: %w", err)
	}
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}
	return nil
}

func createWindowAndRenderer() (*sdl.Window, *sdl.Renderer, error) {
	window, err := sdl.CreateWindow("videocore", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		fallbackWidth, fallbackHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		renderer, err = sdl.CreateRenderer(window, -1, sdl.RENDERER_SOFTWARE)
		if err != nil {
			window.Destroy()
			return nil, nil, err
		}
	}
	renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND)

	return window, renderer, nil
}

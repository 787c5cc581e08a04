package audio

import (
	"context"
	"sync"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.FrameLength != 320 {
		t.Errorf("DefaultConfig().FrameLength = %d, want 320", cfg.FrameLength)
	}
}

func TestNew(t *testing.T) {
	capture := New(Config{DeviceIndex: 2, SampleRate: 8000, FrameLength: 240})

	if capture == nil {
		t.Fatal("New() returned nil")
	}
	if capture.config.DeviceIndex != 2 {
		t.Errorf("capture.config.DeviceIndex = %d, want 2", capture.config.DeviceIndex)
	}
	if capture.framer.Size() != 240 {
		t.Errorf("framer size = %d, want 240", capture.framer.Size())
	}
	if cap(capture.Frames) != 64 {
		t.Errorf("capture.Frames capacity = %d, want 64", cap(capture.Frames))
	}
}

func TestCapture_IsRunning_InitialState(t *testing.T) {
	capture := New(DefaultConfig())

	if capture.IsRunning() {
		t.Error("IsRunning() = true for new capture, want false")
	}
	if capture.closed.Load() {
		t.Error("closed flag should be false initially")
	}
}

func TestCapture_SetCallback(t *testing.T) {
	capture := New(DefaultConfig())

	capture.SetCallback(func([]int16) {})
	if capture.callbackPtr.Load() == nil {
		t.Error("SetCallback() did not set callback")
	}

	capture.SetCallback(nil)
	if capture.callbackPtr.Load() != nil {
		t.Error("SetCallback(nil) did not clear callback")
	}
}

func TestCapture_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	if _, err := capture.ListDevices(); err != ErrNotInitialized {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
	if err := capture.Start(context.Background()); err != ErrNotInitialized {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_AlreadyRunning(t *testing.T) {
	capture := New(DefaultConfig())
	capture.running = true

	if err := capture.Start(context.Background()); err != ErrAlreadyRunning {
		t.Errorf("Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestCapture_Start_ZeroFrameLength(t *testing.T) {
	capture := New(Config{DeviceIndex: -1, SampleRate: 16000})

	if err := capture.Start(context.Background()); err != ErrInvalidFrame {
		t.Errorf("Start() error = %v, want ErrInvalidFrame", err)
	}
}

func TestCapture_Stop_NotRunning(t *testing.T) {
	capture := New(DefaultConfig())

	if err := capture.Stop(); err != ErrNotRunning {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestCapture_DeliverFramesThroughFramer(t *testing.T) {
	capture := New(Config{DeviceIndex: -1, SampleRate: 8000, FrameLength: 2})

	var got [][]int16
	capture.SetCallback(func(fr []int16) { got = append(got, fr) })

	capture.framer.Write(encodeS16(1, 2, 3, 4, 5), capture.deliver)

	if len(got) != 2 {
		t.Fatalf("callback got %d frames, want 2", len(got))
	}
	if len(capture.Frames) != 2 {
		t.Errorf("channel holds %d frames, want 2", len(capture.Frames))
	}
	first := <-capture.Frames
	if first[0] != 1 || first[1] != 2 {
		t.Errorf("first frame = %v", first)
	}
}

func TestCapture_SafeSend_ChannelFull(t *testing.T) {
	capture := &Capture{
		config: DefaultConfig(),
		Frames: make(chan []int16, 1),
	}

	if !capture.safeSend([]int16{1}) {
		t.Fatal("first send dropped")
	}
	capture.deliver([]int16{2})

	if capture.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", capture.Dropped())
	}
	frame := <-capture.Frames
	if frame[0] != 1 {
		t.Errorf("expected first frame, got %v", frame)
	}
}

func TestCapture_SafeSend_AfterClose(t *testing.T) {
	capture := New(DefaultConfig())
	if err := capture.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if capture.safeSend([]int16{1, 2, 3}) {
		t.Error("safeSend reported success after Close")
	}
}

func TestCapture_DeliverAfterClose(t *testing.T) {
	capture := New(Config{DeviceIndex: -1, SampleRate: 8000, FrameLength: 1})
	called := false
	capture.SetCallback(func([]int16) { called = true })

	if err := capture.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	capture.deliver([]int16{1})

	if called {
		t.Error("callback invoked after Close")
	}
	if capture.Dropped() != 0 {
		t.Errorf("Dropped() = %d after Close, want 0", capture.Dropped())
	}
}

func TestCapture_CloseWithoutInit(t *testing.T) {
	capture := New(DefaultConfig())

	if err := capture.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !capture.closed.Load() {
		t.Error("closed flag should be true after Close()")
	}
	if _, ok := <-capture.Frames; ok {
		t.Error("Frames channel not closed")
	}

	// Second close must not panic on the channel.
	if err := capture.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestCapture_ConcurrentCloses(t *testing.T) {
	capture := New(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = capture.Close()
		}()
	}
	wg.Wait()

	if !capture.closed.Load() {
		t.Error("capture should be closed")
	}
}

// Run with -race: sends and the channel close must be ordered by sendMu.
func TestCapture_ConcurrentDeliverAndClose(t *testing.T) {
	for i := 0; i < 100; i++ {
		capture := New(Config{DeviceIndex: -1, SampleRate: 8000, FrameLength: 1})

		var wg sync.WaitGroup
		wg.Add(3)
		for w := 0; w < 2; w++ {
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					capture.deliver([]int16{int16(j)})
				}
			}()
		}
		go func() {
			defer wg.Done()
			_ = capture.Close()
		}()
		wg.Wait()

		// Everything sent before Close is still readable, then the channel ends.
		n := 0
		for range capture.Frames {
			n++
		}
		if n > cap(capture.Frames) {
			t.Fatalf("iteration %d: read %d frames from a channel of %d", i, n, cap(capture.Frames))
		}
		if !capture.closed.Load() {
			t.Fatalf("iteration %d: capture should be closed", i)
		}
	}
}

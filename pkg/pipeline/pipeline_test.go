package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

// mockSource serves copies of a fixed frame.
type mockSource struct {
	frame  gocv.Mat
	width  int
	height int

	// ReadFunc overrides the default behavior when set.
	ReadFunc func(dst *gocv.Mat) error
}

func (s *mockSource) Read(dst *gocv.Mat) error {
	if s.ReadFunc != nil {
		return s.ReadFunc(dst)
	}
	s.frame.CopyTo(dst)
	return nil
}

func (s *mockSource) Size() (int, int) { return s.width, s.height }

// mockMasker returns a uniform mask matching the frame.
type mockMasker struct {
	value float64

	GetFunc func(ctx context.Context, frame gocv.Mat) (gocv.Mat, error)
}

func (m *mockMasker) GetWithRetry(ctx context.Context, frame gocv.Mat) (gocv.Mat, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, frame)
	}
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(m.value, 0, 0, 0),
		frame.Rows(), frame.Cols(), gocv.MatTypeCV8U), nil
}

// mockSink records written frames and cancels the loop after a target
// count.
type mockSink struct {
	mu     sync.Mutex
	frames []gocv.Mat

	target int
	cancel context.CancelFunc
}

func (s *mockSink) Write(frame gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame.Clone())
	if s.cancel != nil && len(s.frames) >= s.target {
		s.cancel()
	}
	return nil
}

func (s *mockSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.frames {
		s.frames[i].Close()
	}
	s.frames = nil
}

func (s *mockSink) frame(i int) gocv.Mat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[i]
}

func (s *mockSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func newTestSource(t *testing.T, rows, cols int, b, g, r float64) *mockSource {
	t.Helper()
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), rows, cols, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	return &mockSource{frame: frame, width: cols, height: rows}
}

func runPipeline(t *testing.T, opts Options, frames int) *mockSink {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	sink := &mockSink{target: frames, cancel: cancel}
	t.Cleanup(sink.close)
	opts.Sink = sink

	p, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if got := sink.count(); got < frames {
		t.Fatalf("sink received %d frames, want at least %d", got, frames)
	}
	return sink
}

// A saturated mask must reproduce the foreground: output is the solid
// camera color in RGB order, regardless of the background behind it.
func TestRunForegroundDominatesWithFullMask(t *testing.T) {
	src := newTestSource(t, 32, 32, 10, 200, 30) // BGR

	sink := runPipeline(t, Options{
		Source: src,
		Masker: &mockMasker{value: 255},
	}, 1)

	out := sink.frame(0)
	// BGR (10,200,30) converted to RGB order.
	want := []uint8{30, 200, 10}
	for c := 0; c < 3; c++ {
		got := out.GetUCharAt(16, 16*3+c)
		if diff := int(got) - int(want[c]); diff < -2 || diff > 2 {
			t.Errorf("channel %d = %d, want ~%d", c, got, want[c])
		}
	}
}

// A zero mask must reproduce the background; with none configured the
// privacy blur of a uniform frame is the frame itself.
func TestRunBackgroundDominatesWithEmptyMask(t *testing.T) {
	src := newTestSource(t, 32, 32, 50, 60, 70)

	sink := runPipeline(t, Options{
		Source: src,
		Masker: &mockMasker{value: 0},
	}, 1)

	out := sink.frame(0)
	want := []uint8{70, 60, 50}
	for c := 0; c < 3; c++ {
		got := out.GetUCharAt(16, 16*3+c)
		if diff := int(got) - int(want[c]); diff < -2 || diff > 2 {
			t.Errorf("channel %d = %d, want ~%d", c, got, want[c])
		}
	}
}

// Pushing {background: absent, hologram: false, mirror: true} must
// mirror the next frame.
func TestRunAppliesQueuedMirrorUpdate(t *testing.T) {
	const rows, cols = 16, 16
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	// Bright left edge so mirroring is observable.
	for r := 0; r < rows; r++ {
		frame.SetUCharAt(r, 0*3+1, 255)
	}
	src := &mockSource{frame: frame, width: cols, height: rows}

	queue := NewQueue(0)
	if err := queue.Push(Update{Background: nil, Hologram: false, Mirror: true}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	sink := runPipeline(t, Options{
		Source: src,
		Masker: &mockMasker{value: 255},
		Queue:  queue,
	}, 2)

	first := sink.frame(0)
	second := sink.frame(1)

	// First frame: update not yet polled, bright edge stays left.
	if l, r := first.GetUCharAt(8, 0*3+1), first.GetUCharAt(8, (cols-1)*3+1); l < r {
		t.Errorf("frame 0: left=%d right=%d, want unmirrored", l, r)
	}
	// Second frame: mirrored, bright edge moves right.
	if l, r := second.GetUCharAt(8, 0*3+1), second.GetUCharAt(8, (cols-1)*3+1); r < l {
		t.Errorf("frame 1: left=%d right=%d, want mirrored", l, r)
	}
}

func TestRunHologramChangesOutput(t *testing.T) {
	src := newTestSource(t, 20, 20, 40, 80, 120)

	plain := runPipeline(t, Options{
		Source:  src,
		Masker:  &mockMasker{value: 255},
		Initial: LiveConfig{Hologram: false},
	}, 1)
	styled := runPipeline(t, Options{
		Source:  src,
		Masker:  &mockMasker{value: 255},
		Initial: LiveConfig{Hologram: true},
	}, 1)

	a := plain.frame(0)
	b := styled.frame(0)
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	channels := gocv.Split(diff)
	nonZero := 0
	for _, ch := range channels {
		nonZero += gocv.CountNonZero(ch)
		ch.Close()
	}
	if nonZero == 0 {
		t.Error("hologram effect produced identical output")
	}
}

func TestRunPropagatesCaptureFailure(t *testing.T) {
	readErr := errors.New("device unplugged")
	src := newTestSource(t, 8, 8, 1, 2, 3)
	src.ReadFunc = func(dst *gocv.Mat) error { return readErr }

	p, err := New(Options{
		Source: src,
		Masker: &mockMasker{value: 255},
		Sink:   &mockSink{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Run(context.Background()); !errors.Is(err, readErr) {
		t.Fatalf("Run() error = %v, want wrapped read error", err)
	}
}

func TestRunStopsWhenMaskerObservesCancellation(t *testing.T) {
	src := newTestSource(t, 8, 8, 1, 2, 3)
	masker := &mockMasker{
		GetFunc: func(ctx context.Context, frame gocv.Mat) (gocv.Mat, error) {
			<-ctx.Done()
			return gocv.Mat{}, ctx.Err()
		},
	}

	p, err := New(Options{Source: src, Masker: masker, Sink: &mockSink{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not shut down while blocked on the masker")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("New() error = %v, want ErrNotConfigured", err)
	}
}

func TestStatusReflectsConfig(t *testing.T) {
	src := newTestSource(t, 12, 20, 0, 0, 0)

	p, err := New(Options{
		Source:  src,
		Masker:  &mockMasker{value: 255},
		Sink:    &mockSink{},
		Initial: LiveConfig{Hologram: true, Mirror: true},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	st := p.Status()
	if st.Width != 20 || st.Height != 12 {
		t.Errorf("status resolution = %dx%d, want 20x12", st.Width, st.Height)
	}
	if !st.Hologram || !st.Mirror {
		t.Errorf("status toggles = %+v, want hologram and mirror on", st)
	}
}

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gocv.io/x/gocv"

	"github.com/ayusman/handcast/internal/capture"
	"github.com/ayusman/handcast/internal/detector"
	"github.com/ayusman/handcast/internal/gesture"
	"github.com/ayusman/handcast/internal/payload"
	"github.com/ayusman/handcast/internal/preview"
)

type fakeSender struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

func (s *fakeSender) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, append([]byte(nil), data...))
	return nil
}

func (s *fakeSender) Close() error { return nil }

func (s *fakeSender) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

type fakeDisplay struct {
	shown  int
	quitAt int
}

func (d *fakeDisplay) Show(frame gocv.Mat) bool {
	d.shown++
	return d.quitAt > 0 && d.shown >= d.quitAt
}

type fakeRecorder struct {
	payloads []payload.Payload
	sizes    [][2]int
}

func (r *fakeRecorder) SetFrameSize(width, height int) error {
	r.sizes = append(r.sizes, [2]int{width, height})
	return nil
}

func (r *fakeRecorder) Record(p payload.Payload, at time.Time) error {
	r.payloads = append(r.payloads, p)
	return nil
}

func newFrame(t *testing.T) *gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return &m
}

func decode(t *testing.T, data []byte, withSignal bool) payload.Payload {
	t.Helper()
	p, err := payload.ListFormat{WithSignal: withSignal}.Unmarshal(data)
	if err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return p
}

func TestProcessFrame_NoHands(t *testing.T) {
	det := detector.NewMockDetector()
	sender := &fakeSender{}
	a := New(Config{Detector: det, Sender: sender})

	res, err := a.ProcessFrame(context.Background(), newFrame(t))
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	if res.Hands != 0 || res.Payload != nil || res.Sent {
		t.Errorf("result = %+v, want empty", res)
	}
	if len(sender.Sent()) != 0 {
		t.Errorf("sender called %d times without hands", len(sender.Sent()))
	}
	if det.Calls() != 1 {
		t.Errorf("detector calls = %d, want 1", det.Calls())
	}
}

func TestProcessFrame_SendsFirstHand(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks(), detector.FistLandmarks()})
	sender := &fakeSender{}
	a := New(Config{Detector: det, Sender: sender})

	res, err := a.ProcessFrame(context.Background(), newFrame(t))
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	if !res.Sent || res.Hands != 2 {
		t.Errorf("result = %+v, want sent with 2 hands", res)
	}

	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("sender called %d times, want 1", len(sent))
	}

	open := detector.OpenPalmLandmarks()
	want := payload.Coordinates(open.Pixels(640, 480), 480)
	got := decode(t, sent[0], false)
	if diff := cmp.Diff(want, got.Coords); diff != "" {
		t.Errorf("coords mismatch (-want +got):\n%s", diff)
	}
	if len(got.Coords) != detector.NumLandmarks*payload.ValuesPerLandmark {
		t.Errorf("coords length = %d, want %d", len(got.Coords), detector.NumLandmarks*payload.ValuesPerLandmark)
	}
	if got.Signal != nil {
		t.Error("signal sent outside gesture mode")
	}
}

func TestProcessFrame_FlipsY(t *testing.T) {
	det := detector.NewMockDetector()
	hand := detector.OpenPalmLandmarks()
	det.SetHands([]detector.HandLandmarks{hand})
	sender := &fakeSender{}
	a := New(Config{Detector: det, Sender: sender})

	a.ProcessFrame(context.Background(), newFrame(t))

	got := decode(t, sender.Sent()[0], false)
	wrist := hand.Pixels(640, 480)[detector.Wrist]
	if got.Coords[0] != wrist.X || got.Coords[1] != 480-wrist.Y || got.Coords[2] != wrist.Z {
		t.Errorf("wrist = %v, want [%d %d %d]", got.Coords[:3], wrist.X, 480-wrist.Y, wrist.Z)
	}
}

func TestProcessFrame_GestureSignal(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want gesture.Signal
	}{
		{name: "fist", hand: detector.FistLandmarks(), want: gesture.SignalClosed},
		{name: "open palm", hand: detector.OpenPalmLandmarks(), want: gesture.SignalOpen},
		{name: "pointing", hand: detector.PointingLandmarks(), want: gesture.SignalUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := detector.NewMockDetector()
			det.SetHands([]detector.HandLandmarks{tt.hand})
			sender := &fakeSender{}

			var signals []gesture.Signal
			a := New(Config{
				Detector: det,
				Sender:   sender,
				Gesture:  true,
				OnSignal: func(s gesture.Signal) { signals = append(signals, s) },
			})

			if _, err := a.ProcessFrame(context.Background(), newFrame(t)); err != nil {
				t.Fatalf("ProcessFrame() error = %v", err)
			}

			got := decode(t, sender.Sent()[0], true)
			if got.Signal == nil || *got.Signal != tt.want {
				t.Errorf("signal = %v, want %v", got.Signal, tt.want)
			}
			if len(got.Values()) != detector.NumLandmarks*payload.ValuesPerLandmark+1 {
				t.Errorf("values length = %d", len(got.Values()))
			}
			if diff := cmp.Diff([]gesture.Signal{tt.want}, signals); diff != "" {
				t.Errorf("OnSignal mismatch (-want +got):\n%s", diff)
			}
			if n := testutil.ToFloat64(a.Metrics().Signals.WithLabelValues(tt.want.String())); n != 1 {
				t.Errorf("signal counter = %v, want 1", n)
			}
		})
	}
}

func TestProcessFrame_DetectorError(t *testing.T) {
	det := detector.NewMockDetector()
	detErr := errors.New("model crashed")
	det.SetError(detErr)
	sender := &fakeSender{}
	a := New(Config{Detector: det, Sender: sender})

	_, err := a.ProcessFrame(context.Background(), newFrame(t))
	if !errors.Is(err, detErr) {
		t.Fatalf("ProcessFrame() error = %v, want %v", err, detErr)
	}
	if len(sender.Sent()) != 0 {
		t.Error("sender called after detector error")
	}
	if n := testutil.ToFloat64(a.Metrics().DetectErrors); n != 1 {
		t.Errorf("detect errors = %v, want 1", n)
	}
}

func TestProcessFrame_SendError(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
	sendErr := errors.New("network unreachable")
	a := New(Config{Detector: det, Sender: &fakeSender{err: sendErr}})

	res, err := a.ProcessFrame(context.Background(), newFrame(t))
	if !errors.Is(err, sendErr) {
		t.Fatalf("ProcessFrame() error = %v, want %v", err, sendErr)
	}
	if res.Sent {
		t.Error("result reports sent after send error")
	}
	if n := testutil.ToFloat64(a.Metrics().SendErrors); n != 1 {
		t.Errorf("send errors = %v, want 1", n)
	}
}

func TestProcessFrame_Paused(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
	sender := &fakeSender{}
	a := New(Config{Detector: det, Sender: sender})

	a.SetEnabled(false)
	res, err := a.ProcessFrame(context.Background(), newFrame(t))
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	if res.Payload == nil || res.Sent {
		t.Errorf("result = %+v, want payload built but not sent", res)
	}
	if len(sender.Sent()) != 0 {
		t.Error("sender called while paused")
	}

	a.SetEnabled(true)
	a.ProcessFrame(context.Background(), newFrame(t))
	if len(sender.Sent()) != 1 {
		t.Errorf("sender calls after resume = %d, want 1", len(sender.Sent()))
	}
}

func TestProcessFrame_FramedFormat(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
	sender := &fakeSender{}
	a := New(Config{Detector: det, Sender: sender, Format: payload.FramedFormat{}, Gesture: true})

	a.ProcessFrame(context.Background(), newFrame(t))

	got, err := payload.FramedFormat{}.Unmarshal(sender.Sent()[0])
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Signal == nil || *got.Signal != gesture.SignalClosed {
		t.Errorf("signal = %v, want closed", got.Signal)
	}
}

func TestProcessFrame_RecordsAndPublishes(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	hub := preview.NewHub()
	rec := &fakeRecorder{}
	a := New(Config{Detector: det, Sender: &fakeSender{}, Hub: hub, Recorder: rec})

	frames, cancel := hub.SubscribeFrames()
	defer cancel()

	if _, err := a.ProcessFrame(context.Background(), newFrame(t)); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	if len(rec.payloads) != 1 {
		t.Errorf("recorded %d payloads, want 1", len(rec.payloads))
	}
	if diff := cmp.Diff([][2]int{{640, 480}}, rec.sizes); diff != "" {
		t.Errorf("frame sizes mismatch (-want +got):\n%s", diff)
	}
	if u, ok := hub.LatestPayload(); !ok || u.Landmarks != detector.NumLandmarks {
		t.Errorf("LatestPayload() = %+v, %v", u, ok)
	}
	select {
	case jpeg := <-frames:
		if len(jpeg) == 0 {
			t.Error("empty preview frame")
		}
	default:
		t.Error("no preview frame published")
	}
}

func TestProcessFrame_RecordsActualFrameSizeOnce(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
	rec := &fakeRecorder{}
	a := New(Config{Detector: det, Sender: &fakeSender{}, Recorder: rec})

	frame := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 3; i++ {
		if _, err := a.ProcessFrame(context.Background(), &frame); err != nil {
			t.Fatalf("ProcessFrame() error = %v", err)
		}
	}

	if diff := cmp.Diff([][2]int{{1280, 720}}, rec.sizes); diff != "" {
		t.Errorf("frame sizes mismatch (-want +got):\n%s", diff)
	}
	if len(rec.payloads) != 3 {
		t.Errorf("recorded %d payloads, want 3", len(rec.payloads))
	}
}

func TestRun_StopsAfterReadFailures(t *testing.T) {
	frames := []*gocv.Mat{newFrame(t), newFrame(t), newFrame(t)}
	cam := capture.NewMockCamera(frames, false)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
	sender := &fakeSender{}
	display := &fakeDisplay{}

	a := New(Config{Camera: cam, Detector: det, Sender: sender, Display: display, MaxReadFailures: 2})

	err := a.Run(context.Background())
	if !errors.Is(err, ErrTooManyReadFailures) {
		t.Fatalf("Run() error = %v, want ErrTooManyReadFailures", err)
	}
	if !errors.Is(err, capture.ErrNoMoreFrames) {
		t.Errorf("Run() error = %v, should wrap the last read error", err)
	}

	if len(sender.Sent()) != 3 {
		t.Errorf("sender calls = %d, want 3", len(sender.Sent()))
	}
	if display.shown != 3 {
		t.Errorf("frames shown = %d, want 3", display.shown)
	}
	if cam.Reads() != 5 {
		t.Errorf("camera reads = %d, want 5", cam.Reads())
	}
	if cam.IsOpen() {
		t.Error("camera left open after Run")
	}
	if n := testutil.ToFloat64(a.Metrics().FramesCaptured); n != 3 {
		t.Errorf("frames captured = %v, want 3", n)
	}
}

func TestRun_DisplaysFramesWithoutHands(t *testing.T) {
	cam := capture.NewMockCamera([]*gocv.Mat{newFrame(t), newFrame(t)}, false)
	sender := &fakeSender{}
	display := &fakeDisplay{}

	a := New(Config{Camera: cam, Detector: detector.NewMockDetector(), Sender: sender, Display: display, MaxReadFailures: 1})
	a.Run(context.Background())

	if display.shown != 2 {
		t.Errorf("frames shown = %d, want 2", display.shown)
	}
	if len(sender.Sent()) != 0 {
		t.Errorf("sender calls = %d, want 0", len(sender.Sent()))
	}
}

func TestRun_DetectorErrorKeepsRunning(t *testing.T) {
	cam := capture.NewMockCamera([]*gocv.Mat{newFrame(t), newFrame(t)}, false)
	det := detector.NewMockDetector()
	det.SetError(errors.New("boom"))
	display := &fakeDisplay{}

	a := New(Config{Camera: cam, Detector: det, Sender: &fakeSender{}, Display: display, MaxReadFailures: 1})
	a.Run(context.Background())

	if det.Calls() != 2 || display.shown != 2 {
		t.Errorf("detector calls = %d, shown = %d, want 2 and 2", det.Calls(), display.shown)
	}
}

func TestRun_QuitFromDisplay(t *testing.T) {
	cam := capture.NewMockCamera([]*gocv.Mat{newFrame(t)}, true)
	display := &fakeDisplay{quitAt: 3}

	a := New(Config{Camera: cam, Detector: detector.NewMockDetector(), Sender: &fakeSender{}, Display: display})

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if display.shown != 3 {
		t.Errorf("frames shown = %d, want 3", display.shown)
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	cam := capture.NewMockCamera([]*gocv.Mat{newFrame(t)}, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(Config{Camera: cam, Detector: detector.NewMockDetector(), Sender: &fakeSender{}})

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if cam.Reads() != 0 {
		t.Errorf("camera reads = %d after cancel, want 0", cam.Reads())
	}
}

func TestRun_CameraOpenError(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	openErr := errors.New("no such device")
	cam.SetOpenError(openErr)

	a := New(Config{Camera: cam, Detector: detector.NewMockDetector(), Sender: &fakeSender{}})

	if err := a.Run(context.Background()); !errors.Is(err, openErr) {
		t.Errorf("Run() error = %v, want %v", err, openErr)
	}
}

func TestNew_Defaults(t *testing.T) {
	a := New(Config{Gesture: true})

	if !a.IsEnabled() {
		t.Error("new app should start enabled")
	}
	if a.format.Name() != payload.FormatList {
		t.Errorf("default format = %s, want list", a.format.Name())
	}
	if a.config.MaxReadFailures != DefaultMaxReadFailures {
		t.Errorf("MaxReadFailures = %d, want %d", a.config.MaxReadFailures, DefaultMaxReadFailures)
	}
	if a.Metrics() == nil {
		t.Error("metrics should default to a private registry")
	}
}

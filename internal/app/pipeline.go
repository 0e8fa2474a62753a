package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/handcast/internal/detector"
	"github.com/ayusman/handcast/internal/gesture"
	"github.com/ayusman/handcast/internal/payload"
	"github.com/ayusman/handcast/internal/preview"
)

const readRetryDelay = 10 * time.Millisecond

// Result describes what happened to one frame.
type Result struct {
	// Hands is the number of hands the detector returned.
	Hands int
	// Payload is the payload built from the first hand, nil without hands.
	Payload *payload.Payload
	// Sent reports whether the payload went out on the transport.
	Sent bool
}

// ProcessFrame runs detection on frame, builds the payload from the first
// hand and sends it. The frame is annotated in place when it will be shown.
// Frames without hands produce no payload. Detector and send errors are
// returned after the frame has been published for preview.
func (a *App) ProcessFrame(ctx context.Context, frame *gocv.Mat) (Result, error) {
	var res Result
	width, height := frame.Cols(), frame.Rows()

	start := time.Now()
	hands, err := a.config.Detector.Detect(frame)
	a.metrics.DetectSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.DetectErrors.Inc()
		a.publishFrame(frame, nil)
		return res, fmt.Errorf("detect hands: %w", err)
	}

	res.Hands = len(hands)
	a.publishFrame(frame, hands)
	if len(hands) == 0 {
		return res, nil
	}
	a.metrics.HandsDetected.Inc()

	p := a.buildPayload(&hands[0], width, height)
	res.Payload = &p

	if !a.IsEnabled() {
		return res, nil
	}

	data, err := a.format.Marshal(p)
	if err != nil {
		return res, fmt.Errorf("encode payload: %w", err)
	}
	if err := a.config.Sender.Send(ctx, data); err != nil {
		a.metrics.SendErrors.Inc()
		return res, fmt.Errorf("send payload: %w", err)
	}
	res.Sent = true
	a.metrics.PayloadsSent.Inc()

	now := time.Now()
	if p.Signal != nil {
		a.metrics.Signals.WithLabelValues(p.Signal.String()).Inc()
		if a.config.OnSignal != nil {
			a.config.OnSignal(*p.Signal)
		}
	}
	if a.config.Hub != nil {
		a.config.Hub.PublishPayload(preview.NewUpdate(p, now))
	}
	if a.config.Recorder != nil {
		a.sizeOnce.Do(func() {
			if err := a.config.Recorder.SetFrameSize(width, height); err != nil {
				a.logger.Warn("record frame size failed", zap.Error(err))
			}
		})
		if err := a.config.Recorder.Record(p, now); err != nil {
			a.logger.Warn("record payload failed", zap.Error(err))
		}
	}

	return res, nil
}

func (a *App) buildPayload(hand *detector.HandLandmarks, width, height int) payload.Payload {
	px := hand.Pixels(width, height)
	if !a.config.Gesture {
		return payload.New(px, height)
	}
	signal := gesture.FromFingers(gesture.FingersUp(hand.Handedness, px))
	return payload.WithSignal(px, height, signal)
}

// publishFrame annotates frame and hands it to the hub when anything will
// look at it.
func (a *App) publishFrame(frame *gocv.Mat, hands []detector.HandLandmarks) {
	wantsJPEG := a.config.Hub != nil && a.config.Hub.WantsFrames()
	if a.config.Display == nil && !wantsJPEG {
		return
	}

	preview.Annotate(frame, hands)

	if wantsJPEG {
		jpeg, err := preview.EncodeJPEG(*frame)
		if err != nil {
			a.logger.Debug("encode preview frame failed", zap.Error(err))
			return
		}
		a.config.Hub.PublishFrame(jpeg)
	}
}

// Run opens the camera and processes frames until ctx is canceled, the
// display asks to quit, or the camera fails MaxReadFailures times in a row.
// The camera is closed on return.
func (a *App) Run(ctx context.Context) error {
	camera := a.config.Camera
	if err := camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := camera.Close(); err != nil {
			a.logger.Warn("close camera failed", zap.Error(err))
		}
	}()

	a.logger.Info("pipeline started",
		zap.Bool("gesture", a.config.Gesture),
		zap.String("format", a.format.Name()),
	)

	failures := 0
	for {
		if ctx.Err() != nil {
			a.logger.Info("pipeline stopped")
			return nil
		}

		frame, err := camera.ReadFrame()
		if err != nil {
			a.metrics.ReadErrors.Inc()
			failures++
			a.logger.Warn("camera read failed", zap.Error(err), zap.Int("consecutive", failures))
			if failures >= a.config.MaxReadFailures {
				return fmt.Errorf("%w: %w", ErrTooManyReadFailures, err)
			}
			select {
			case <-ctx.Done():
			case <-time.After(readRetryDelay):
			}
			continue
		}
		failures = 0
		a.metrics.FramesCaptured.Inc()

		quit := a.handleFrame(ctx, frame)
		frame.Close()
		if quit {
			a.logger.Info("preview closed by user")
			return nil
		}
	}
}

func (a *App) handleFrame(ctx context.Context, frame *gocv.Mat) bool {
	res, err := a.ProcessFrame(ctx, frame)
	switch {
	case err != nil && errors.Is(err, context.Canceled):
	case err != nil:
		a.logger.Warn("frame dropped", zap.Error(err), zap.Int("hands", res.Hands))
	case res.Sent:
		a.logger.Debug("payload sent", zap.Int("values", len(res.Payload.Values())))
	}

	if a.config.Display == nil {
		return false
	}
	return a.config.Display.Show(*frame)
}

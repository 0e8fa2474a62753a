package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/handcast/internal/payload"
	"github.com/ayusman/handcast/internal/store"
	"github.com/ayusman/handcast/internal/transport"
)

// ErrInvalidSpeed is returned by Replay for a non-positive speed factor.
var ErrInvalidSpeed = errors.New("replay speed must be positive")

// Replay re-sends recorded frames through sender, encoded with format. The
// gaps between capture times are kept, divided by speed. onSent, if set, is
// called after every frame. It returns how many frames were sent; a canceled
// ctx stops the replay without error.
func Replay(ctx context.Context, frames []store.Frame, sender transport.Sender, format payload.Format, speed float64, onSent func()) (int, error) {
	if speed <= 0 {
		return 0, ErrInvalidSpeed
	}

	sent := 0
	for i, f := range frames {
		if i > 0 {
			gap := f.CapturedAt.Sub(frames[i-1].CapturedAt)
			if !wait(ctx, time.Duration(float64(gap)/speed)) {
				return sent, nil
			}
		}
		if ctx.Err() != nil {
			return sent, nil
		}

		data, err := format.Marshal(f.Payload)
		if err != nil {
			return sent, fmt.Errorf("encode frame %d: %w", f.Sequence, err)
		}
		if err := sender.Send(ctx, data); err != nil {
			return sent, fmt.Errorf("send frame %d: %w", f.Sequence, err)
		}
		sent++
		if onSent != nil {
			onSent()
		}
	}
	return sent, nil
}

// wait sleeps for d and reports false if ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

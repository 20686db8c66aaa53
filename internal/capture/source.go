package capture

import "context"

// NullSource reports no display on every call. It stands in for a platform
// capture backend on headless hosts and in tests.
type NullSource struct{}

func (NullSource) Capture(ctx context.Context) (Frame, bool, error) {
	return Frame{}, false, nil
}

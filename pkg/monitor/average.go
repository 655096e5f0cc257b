package monitor

import (
	"time"

	"github.com/itohio/tempseg/pkg/logger"
)

// Stage transforms a stream of readings. The output closes when the input does.
type Stage func(in <-chan Reading) <-chan Reading

// NewAverager creates a stage that replaces each reading with the mean of the
// last window readings. It keeps the timestamp of the newest one.
func NewAverager(window int, bufSize int) Stage {
	if window <= 0 {
		window = 1
	}
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	return func(in <-chan Reading) <-chan Reading {
		out := make(chan Reading, bufSize)

		go func() {
			defer close(out)

			buffer := make([]Reading, 0, window)
			for r := range in {
				buffer = append(buffer, r)
				if len(buffer) > window {
					buffer = buffer[1:]
				}

				select {
				case out <- average(buffer):
				case <-time.After(time.Second):
					logger.Warn().Msg("Averager output channel full, dropping reading")
				}
			}
		}()

		return out
	}
}

// average returns the mean of readings stamped with the newest timestamp.
func average(readings []Reading) Reading {
	if len(readings) == 0 {
		return Reading{}
	}

	var sum float64
	for _, r := range readings {
		sum += r.Value
	}
	return Reading{
		Timestamp: readings[len(readings)-1].Timestamp,
		Value:     sum / float64(len(readings)),
	}
}

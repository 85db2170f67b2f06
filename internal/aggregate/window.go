package aggregate

import (
	"errors"

	"devicelab/internal/domain"
)

var ErrWindowSize = errors.New("window size must be a positive integer")

// Window is the most recent slice of launch-time measurements plus their mean.
// Average is nil when Items is empty; callers must check before formatting.
type Window struct {
	Items   []domain.LaunchTime
	Average *float64
}

// ComputeWindow selects the last min(len(items), size) elements of an
// ascending-by-timestamp sequence, preserving order, and computes the mean of
// StartupTimeMs over exactly those elements. A non-positive size is a caller
// bug and fails without a partial result.
func ComputeWindow(items []domain.LaunchTime, size int) (Window, error) {
	if size <= 0 {
		return Window{}, ErrWindowSize
	}

	if len(items) > size {
		items = items[len(items)-size:]
	}

	w := Window{Items: items}
	if len(items) == 0 {
		return w, nil
	}

	var sum int64
	for _, item := range items {
		sum += item.StartupTimeMs
	}
	avg := float64(sum) / float64(len(items))
	w.Average = &avg

	return w, nil
}

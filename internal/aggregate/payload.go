package aggregate

import (
	"time"

	"devicelab/internal/domain"
)

const payloadTimeFormat = "2006-01-02 15:04:05"

type ChartPoint struct {
	Timestamp    string              `json:"timestamp"`
	StartupTime  int64               `json:"startup_time"`
	StartupState domain.StartupState `json:"startup_state"`
}

// ChartPayload is the wire format consumed by the chart. Data is ordered
// oldest to newest; average is omitted entirely for an empty window rather
// than serialized as zero.
type ChartPayload struct {
	Data    []ChartPoint `json:"data"`
	Average *float64     `json:"average,omitempty"`
}

// BuildPayload shapes a window into the chart wire format. Pure: same window
// in, same payload out.
func BuildPayload(w Window) ChartPayload {
	points := make([]ChartPoint, 0, len(w.Items))
	for _, item := range w.Items {
		points = append(points, ChartPoint{
			Timestamp:    time.Unix(item.Timestamp, 0).UTC().Format(payloadTimeFormat),
			StartupTime:  item.StartupTimeMs,
			StartupState: item.StartupState,
		})
	}

	return ChartPayload{Data: points, Average: w.Average}
}

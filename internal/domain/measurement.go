package domain

import (
	"context"
	"fmt"
)

type StartupState string

const (
	StartupCold StartupState = "COLD"
	StartupWarm StartupState = "WARM"
)

// ParseStartupState maps the LaunchState reported by "am start -W" onto the two
// chart categories. HOT is a warm-process start, so it folds into WARM. Anything
// else is a data-integrity error, not a third category.
func ParseStartupState(s string) (StartupState, error) {
	switch s {
	case "COLD":
		return StartupCold, nil
	case "WARM", "HOT":
		return StartupWarm, nil
	default:
		return "", fmt.Errorf("unrecognized startup state: %q", s)
	}
}

type LaunchTime struct {
	ID             int64        `json:"id"`
	Timestamp      int64        `json:"timestamp"`
	IPAddress      string       `json:"ip_address"`
	Device         string       `json:"device"`
	AndroidVersion string       `json:"android_version"`
	Application    string       `json:"application"`
	StartupState   StartupState `json:"startup_state"`
	StartupTimeMs  int64        `json:"startup_time"`
}

type ResourceUsage struct {
	ID             int64   `json:"id"`
	Timestamp      int64   `json:"timestamp"`
	IPAddress      string  `json:"ip_address"`
	Device         string  `json:"device"`
	AndroidVersion string  `json:"android_version"`
	Application    string  `json:"application"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryUsedKB   float64 `json:"memory_used_kb"`
	MemoryPercent  float64 `json:"memory_percent"`
}

// Store is an append-only record of test results. Reads return rows ordered
// ascending by timestamp, ties broken by insertion order. An empty application
// filter matches every row.
type Store interface {
	Init() error
	StoreLaunchTime(ctx context.Context, lt LaunchTime) error
	LaunchTimes(ctx context.Context, application string) ([]LaunchTime, error)
	StoreResourceUsage(ctx context.Context, ru ResourceUsage) error
	ResourceUsages(ctx context.Context, application string) ([]ResourceUsage, error)
	Close() error
}

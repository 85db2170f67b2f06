package adb

import (
	"fmt"
	"strconv"
	"strings"

	"devicelab/internal/domain"
)

type LaunchResult struct {
	State       domain.StartupState
	TotalTimeMs int64
}

// parseLaunchOutput extracts LaunchState and TotalTime from "am start -W"
// output. Both lines are required; a launch report without them means the
// activity manager refused the start.
func parseLaunchOutput(out string) (LaunchResult, error) {
	var (
		stateRaw string
		totalRaw string
	)

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(line, "LaunchState"):
			stateRaw = fields[len(fields)-1]
		case strings.HasPrefix(line, "TotalTime"):
			totalRaw = fields[len(fields)-1]
		}
	}

	if stateRaw == "" || totalRaw == "" {
		return LaunchResult{}, fmt.Errorf("launch report missing LaunchState or TotalTime: %q", strings.TrimSpace(out))
	}

	state, err := domain.ParseStartupState(stateRaw)
	if err != nil {
		return LaunchResult{}, err
	}

	total, err := strconv.ParseInt(totalRaw, 10, 64)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("error parsing TotalTime %q: %w", totalRaw, err)
	}

	return LaunchResult{State: state, TotalTimeMs: total}, nil
}

// parseCPUUsage finds the package's line in dumpsys cpuinfo output, e.g.
//
//	4.5% 1893/com.google.android.youtube: 2.9% user + 1.5% kernel
//
// and returns the leading total percentage. The match is anchored on
// "/<pkg>:" so a package does not match its own sub-packages
// (youtube vs youtube.music).
func parseCPUUsage(out, pkg string) (float64, error) {
	needle := "/" + strings.ToLower(pkg) + ":"

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		return sanitizeNumeric(fields[0])
	}
	return 0, fmt.Errorf("%w: %s in cpuinfo", ErrProcessNotSeen, pkg)
}

// parseMemUsage finds the package's process line in dumpsys meminfo output,
// e.g. "123456: youtube (pid 1893)", and returns the leading KB figure.
func parseMemUsage(out, pkg string) (float64, error) {
	needle := strings.ToLower(shortPackageName(pkg))

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		v, err := sanitizeNumeric(fields[0])
		if err != nil {
			continue
		}
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s in meminfo", ErrProcessNotSeen, pkg)
}

// parseMemTotal reads the MemTotal line of /proc/meminfo, in KB.
func parseMemTotal(out string) (float64, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "MemTotal") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		return sanitizeNumeric(fields[1])
	}
	return 0, fmt.Errorf("MemTotal not found in /proc/meminfo output")
}

// parseStorage reads the /data line of "df /data" output, e.g.
//
//	Filesystem      1K-blocks     Used Available Use% Mounted on
//	/dev/block/dm-5 115249564 98765432  16484132  86% /data
//
// returning the used KB and the use percentage.
func parseStorage(out string) (StorageUsage, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 || fields[0] == "Filesystem" {
			continue
		}

		used, err := sanitizeNumeric(fields[2])
		if err != nil {
			return StorageUsage{}, fmt.Errorf("error parsing storage used %q: %w", fields[2], err)
		}
		percent, err := sanitizeNumeric(fields[4])
		if err != nil {
			return StorageUsage{}, fmt.Errorf("error parsing storage percent %q: %w", fields[4], err)
		}
		return StorageUsage{UsedKB: used, Percent: percent}, nil
	}
	return StorageUsage{}, fmt.Errorf("no filesystem line in df output: %q", strings.TrimSpace(out))
}

// parseUptime reads the first field of /proc/uptime, the device uptime in
// seconds.
func parseUptime(out string) (float64, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty /proc/uptime output")
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing uptime %q: %w", fields[0], err)
	}
	return v, nil
}

// parseBadFrames reads the janky-frame count from "dumpsys gfxinfo" output,
// e.g. "Janky frames: 123 (4.50%)".
func parseBadFrames(out string) (int64, error) {
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "Janky frames:") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 3 {
			break
		}

		v, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("error parsing janky frame count %q: %w", fields[2], err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("no janky frame line in gfxinfo output")
}

// countCPUCores counts processor entries in /proc/cpuinfo output.
func countCPUCores(out string) (int, error) {
	cores := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "processor") {
			cores++
		}
	}
	if cores == 0 {
		return 0, fmt.Errorf("no processor entries in /proc/cpuinfo output")
	}
	return cores, nil
}

// shortPackageName returns the last dotted component, the name dumpsys
// meminfo prints for the process.
func shortPackageName(pkg string) string {
	if i := strings.LastIndex(pkg, "."); i >= 0 && i+1 < len(pkg) {
		return pkg[i+1:]
	}
	return pkg
}

// sanitizeNumeric strips a trailing unit or separator (G, M, K, %, :) before
// converting to a float. A value that still fails to convert is a
// data-integrity error, never silently zero.
func sanitizeNumeric(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	if strings.ContainsRune("GMK%:", rune(value[len(value)-1])) {
		value = value[:len(value)-1]
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting %q to a numeric value: %w", value, err)
	}
	return v, nil
}

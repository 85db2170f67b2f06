package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

var (
	ErrInvalidIP      = errors.New("invalid device IP address")
	ErrConnectFailed  = errors.New("failed to connect to device")
	ErrCommandFailed  = errors.New("adb command failed")
	ErrProcessNotSeen = errors.New("application process not found in dumpsys output")
)

// Runner executes one adb invocation and returns its standard output.
// Production code shells out; tests substitute canned output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, "adb", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: adb %s: %v: %s",
			ErrCommandFailed, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

type DeviceInfo struct {
	Name           string
	AndroidVersion string
}

type MemoryUsage struct {
	UsedKB  float64
	Percent float64
}

type StorageUsage struct {
	UsedKB  float64
	Percent float64
}

// Client drives a device over the adb CLI. Every operation validates the
// device IP before touching the process table.
type Client struct {
	runner Runner
}

func NewClient() *Client {
	return &Client{runner: execRunner{}}
}

func NewClientWithRunner(r Runner) *Client {
	return &Client{runner: r}
}

func validIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

func (c *Client) run(ctx context.Context, ip string, args ...string) (string, error) {
	if !validIP(ip) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	return c.runner.Run(ctx, append([]string{"-s", ip}, args...)...)
}

// Connect issues "adb connect" and checks the textual acknowledgement; adb
// exits zero even when the connection is refused.
func (c *Client) Connect(ctx context.Context, ip string) error {
	if !validIP(ip) {
		return fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	out, err := c.runner.Run(ctx, "connect", ip)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(out), "connected") {
		return fmt.Errorf("%w: %s: %s", ErrConnectFailed, ip, strings.TrimSpace(out))
	}
	return nil
}

func (c *Client) Disconnect(ctx context.Context, ip string) error {
	if !validIP(ip) {
		return fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	out, err := c.runner.Run(ctx, "disconnect", ip)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(out), "disconnected") {
		return fmt.Errorf("%w: disconnect %s: %s", ErrCommandFailed, ip, strings.TrimSpace(out))
	}
	return nil
}

func (c *Client) DeviceInfo(ctx context.Context, ip string) (DeviceInfo, error) {
	name, err := c.run(ctx, ip, "shell", "getprop", "ro.product.name")
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("error reading device name: %w", err)
	}

	version, err := c.run(ctx, ip, "shell", "getprop", "ro.build.version.release")
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("error reading android version: %w", err)
	}

	return DeviceInfo{
		Name:           strings.TrimSpace(name),
		AndroidVersion: strings.TrimSpace(version),
	}, nil
}

// StartApp launches the activity with -W so the activity manager reports the
// launch state and total startup time, and parses both from the output.
func (c *Client) StartApp(ctx context.Context, ip, pkg, activity string) (LaunchResult, error) {
	out, err := c.run(ctx, ip, "shell", "am", "start", "-W", pkg+"/"+activity)
	if err != nil {
		return LaunchResult{}, err
	}
	return parseLaunchOutput(out)
}

func (c *Client) StopApp(ctx context.Context, ip, pkg string) error {
	_, err := c.run(ctx, ip, "shell", "am", "force-stop", pkg)
	return err
}

// CPUUsage scrapes the package's line from "dumpsys cpuinfo" and returns the
// total CPU percentage.
func (c *Client) CPUUsage(ctx context.Context, ip, pkg string) (float64, error) {
	out, err := c.run(ctx, ip, "shell", "dumpsys", "cpuinfo")
	if err != nil {
		return 0, err
	}
	return parseCPUUsage(out, pkg)
}

// MemUsage scrapes the package's PSS from "dumpsys meminfo" and computes the
// share of device memory from /proc/meminfo MemTotal.
func (c *Client) MemUsage(ctx context.Context, ip, pkg string) (MemoryUsage, error) {
	out, err := c.run(ctx, ip, "shell", "dumpsys", "meminfo", pkg)
	if err != nil {
		return MemoryUsage{}, err
	}
	usedKB, err := parseMemUsage(out, pkg)
	if err != nil {
		return MemoryUsage{}, err
	}

	memInfo, err := c.run(ctx, ip, "shell", "cat", "/proc/meminfo")
	if err != nil {
		return MemoryUsage{}, err
	}
	totalKB, err := parseMemTotal(memInfo)
	if err != nil {
		return MemoryUsage{}, err
	}

	return MemoryUsage{
		UsedKB:  usedKB,
		Percent: usedKB / totalKB * 100.0,
	}, nil
}

// StorageUsage reports the used space and fill percentage of the data
// partition.
func (c *Client) StorageUsage(ctx context.Context, ip string) (StorageUsage, error) {
	out, err := c.run(ctx, ip, "shell", "df", "/data")
	if err != nil {
		return StorageUsage{}, err
	}
	return parseStorage(out)
}

// Uptime reports the device uptime in seconds.
func (c *Client) Uptime(ctx context.Context, ip string) (float64, error) {
	out, err := c.run(ctx, ip, "shell", "cat", "/proc/uptime")
	if err != nil {
		return 0, err
	}
	return parseUptime(out)
}

// BadFrames reports the janky-frame count of the app under test from
// "dumpsys gfxinfo".
func (c *Client) BadFrames(ctx context.Context, ip, pkg string) (int64, error) {
	out, err := c.run(ctx, ip, "shell", "dumpsys", "gfxinfo", pkg)
	if err != nil {
		return 0, err
	}
	return parseBadFrames(out)
}

// CPUCores reports the number of CPU cores from /proc/cpuinfo.
func (c *Client) CPUCores(ctx context.Context, ip string) (int, error) {
	out, err := c.run(ctx, ip, "shell", "cat", "/proc/cpuinfo")
	if err != nil {
		return 0, err
	}
	return countCPUCores(out)
}

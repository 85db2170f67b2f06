package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"devicelab/internal/adb"
	"devicelab/internal/domain"
	"devicelab/internal/util"
)

// Collector runs device tests over adb and persists the results. Periodic
// resource monitoring runs one goroutine per device, tracked in cancels.
type Collector struct {
	adb      *adb.Client
	store    domain.Store
	logger   *util.EventLogger
	pkg      string
	activity string
	interval time.Duration

	mu           sync.Mutex
	cancels      map[string]context.CancelFunc
	frameCancels map[string]context.CancelFunc
	wg           sync.WaitGroup
}

func New(client *adb.Client, store domain.Store, logger *util.EventLogger, pkg, activity string, interval time.Duration) *Collector {
	InitMetrics()

	return &Collector{
		adb:          client,
		store:        store,
		logger:       logger,
		pkg:          pkg,
		activity:     activity,
		interval:     interval,
		cancels:      make(map[string]context.CancelFunc),
		frameCancels: make(map[string]context.CancelFunc),
	}
}

// shortAppName is the label stored with every record, the last dotted
// component of the package.
func (c *Collector) shortAppName() string {
	if i := strings.LastIndex(c.pkg, "."); i >= 0 && i+1 < len(c.pkg) {
		return c.pkg[i+1:]
	}
	return c.pkg
}

// MeasureLaunchTime force-starts the activity with -W, records the reported
// launch state and total time, then stops the app so the next run starts from
// a known state.
func (c *Collector) MeasureLaunchTime(ctx context.Context, ip string) (domain.LaunchTime, error) {
	result, err := c.adb.StartApp(ctx, ip, c.pkg, c.activity)
	if err != nil {
		return domain.LaunchTime{}, fmt.Errorf("error measuring launch time on %s: %w", ip, err)
	}

	info, err := c.adb.DeviceInfo(ctx, ip)
	if err != nil {
		return domain.LaunchTime{}, err
	}

	lt := domain.LaunchTime{
		Timestamp:      time.Now().Unix(),
		IPAddress:      ip,
		Device:         info.Name,
		AndroidVersion: info.AndroidVersion,
		Application:    c.shortAppName(),
		StartupState:   result.State,
		StartupTimeMs:  result.TotalTimeMs,
	}

	if err := c.store.StoreLaunchTime(ctx, lt); err != nil {
		return domain.LaunchTime{}, err
	}

	startupTimeGauge.WithLabelValues(ip, string(result.State)).Set(float64(result.TotalTimeMs))

	if err := c.adb.StopApp(ctx, ip, c.pkg); err != nil {
		c.logger.Warnf("Failed to stop %s on %s after launch measurement: %v", c.pkg, ip, err)
	}

	return lt, nil
}

// MeasureResourceUsage takes one CPU and memory snapshot of the app under
// test and persists it.
func (c *Collector) MeasureResourceUsage(ctx context.Context, ip string) (domain.ResourceUsage, error) {
	cpu, err := c.adb.CPUUsage(ctx, ip, c.pkg)
	if err != nil {
		return domain.ResourceUsage{}, fmt.Errorf("error measuring CPU on %s: %w", ip, err)
	}

	mem, err := c.adb.MemUsage(ctx, ip, c.pkg)
	if err != nil {
		return domain.ResourceUsage{}, fmt.Errorf("error measuring memory on %s: %w", ip, err)
	}

	info, err := c.adb.DeviceInfo(ctx, ip)
	if err != nil {
		return domain.ResourceUsage{}, err
	}

	ru := domain.ResourceUsage{
		Timestamp:      time.Now().Unix(),
		IPAddress:      ip,
		Device:         info.Name,
		AndroidVersion: info.AndroidVersion,
		Application:    c.shortAppName(),
		CPUPercent:     cpu,
		MemoryUsedKB:   mem.UsedKB,
		MemoryPercent:  mem.Percent,
	}

	if err := c.store.StoreResourceUsage(ctx, ru); err != nil {
		return domain.ResourceUsage{}, err
	}

	cpuUsageGauge.WithLabelValues(ip).Set(cpu)
	memUsedGauge.WithLabelValues(ip).Set(mem.UsedKB)
	memPercentGauge.WithLabelValues(ip).Set(mem.Percent)

	return ru, nil
}

// MeasureStorage takes one snapshot of the data partition fill level.
func (c *Collector) MeasureStorage(ctx context.Context, ip string) (adb.StorageUsage, error) {
	storage, err := c.adb.StorageUsage(ctx, ip)
	if err != nil {
		return adb.StorageUsage{}, fmt.Errorf("error measuring storage on %s: %w", ip, err)
	}

	storageUsedGauge.WithLabelValues(ip).Set(storage.UsedKB)
	storagePercentGauge.WithLabelValues(ip).Set(storage.Percent)

	return storage, nil
}

// MeasureUptime reads the device uptime in seconds.
func (c *Collector) MeasureUptime(ctx context.Context, ip string) (float64, error) {
	uptime, err := c.adb.Uptime(ctx, ip)
	if err != nil {
		return 0, fmt.Errorf("error measuring uptime on %s: %w", ip, err)
	}

	uptimeGauge.WithLabelValues(ip).Set(uptime)

	return uptime, nil
}

// MeasureBadFrames reads the janky-frame count of the app under test.
func (c *Collector) MeasureBadFrames(ctx context.Context, ip string) (int64, error) {
	frames, err := c.adb.BadFrames(ctx, ip, c.pkg)
	if err != nil {
		return 0, fmt.Errorf("error measuring bad frames on %s: %w", ip, err)
	}

	badFramesGauge.WithLabelValues(ip).Set(float64(frames))

	return frames, nil
}

// RunAllTests takes one snapshot of every one-shot metric: resource usage,
// storage, uptime and bad frames.
func (c *Collector) RunAllTests(ctx context.Context, ip string) error {
	if _, err := c.MeasureResourceUsage(ctx, ip); err != nil {
		return err
	}
	if _, err := c.MeasureStorage(ctx, ip); err != nil {
		return err
	}
	if _, err := c.MeasureUptime(ctx, ip); err != nil {
		return err
	}
	if _, err := c.MeasureBadFrames(ctx, ip); err != nil {
		return err
	}
	return nil
}

// StartMonitoring begins periodic resource collection for the device.
// Starting an already-monitored device is a no-op.
func (c *Collector) StartMonitoring(ip string) {
	c.startLoop(c.cancels, ip, "resource", c.resourceTick)
}

// StopMonitoring cancels the device's resource collection loop. Stopping a
// device that is not monitored is a no-op.
func (c *Collector) StopMonitoring(ip string) {
	c.stopLoop(c.cancels, ip, "resource")
}

// Monitoring reports whether a resource collection loop is running for the
// device.
func (c *Collector) Monitoring(ip string) bool {
	return c.looping(c.cancels, ip)
}

// StartFrameMonitoring begins periodic bad-frame collection for the device,
// independent of the resource loop.
func (c *Collector) StartFrameMonitoring(ip string) {
	c.startLoop(c.frameCancels, ip, "bad-frame", c.frameTick)
}

func (c *Collector) StopFrameMonitoring(ip string) {
	c.stopLoop(c.frameCancels, ip, "bad-frame")
}

func (c *Collector) FrameMonitoring(ip string) bool {
	return c.looping(c.frameCancels, ip)
}

func (c *Collector) resourceTick(ctx context.Context, ip string) error {
	_, err := c.MeasureResourceUsage(ctx, ip)
	return err
}

func (c *Collector) frameTick(ctx context.Context, ip string) error {
	_, err := c.MeasureBadFrames(ctx, ip)
	return err
}

func (c *Collector) startLoop(registry map[string]context.CancelFunc, ip, kind string,
	tick func(context.Context, string) error) {

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, running := registry[ip]; running {
		c.logger.Infof("%s monitoring already running for %s", kind, ip)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	registry[ip] = cancel

	c.wg.Add(1)
	go c.monitorLoop(ctx, ip, kind, tick)

	c.logger.Infof("%s monitoring started for %s", kind, ip)
}

func (c *Collector) monitorLoop(ctx context.Context, ip, kind string,
	tick func(context.Context, string) error) {

	defer c.wg.Done()

	// the core count does not change mid-run; record it once per loop like
	// the other device facts
	if cores, err := c.adb.CPUCores(ctx, ip); err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Warnf("Failed to read CPU core count for %s: %v", ip, err)
	} else {
		cpuCoresGauge.WithLabelValues(ip).Set(float64(cores))
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := tick(ctx, ip); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Errorf("%s measurement failed for %s: %v", kind, ip, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Collector) stopLoop(registry map[string]context.CancelFunc, ip, kind string) {
	c.mu.Lock()
	cancel, running := registry[ip]
	if running {
		delete(registry, ip)
	}
	c.mu.Unlock()

	if !running {
		c.logger.Warnf("No active %s monitoring for %s", kind, ip)
		return
	}

	cancel()
	c.logger.Infof("%s monitoring stopped for %s", kind, ip)
}

func (c *Collector) looping(registry map[string]context.CancelFunc, ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, running := registry[ip]
	return running
}

// StopAll cancels every collection loop and waits for them to exit.
func (c *Collector) StopAll() {
	c.mu.Lock()
	for ip, cancel := range c.cancels {
		cancel()
		delete(c.cancels, ip)
	}
	for ip, cancel := range c.frameCancels {
		cancel()
		delete(c.frameCancels, ip)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

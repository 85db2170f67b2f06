package collector

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"devicelab/internal/adb"
	"devicelab/internal/domain"
)

type fakeRunner struct {
	Output map[string]string
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) (string, error) {
	joined := strings.Join(args, " ")
	for needle, out := range f.Output {
		if strings.Contains(joined, needle) {
			return out, nil
		}
	}
	return "", nil
}

type memStore struct {
	mu          sync.Mutex
	launchTimes []domain.LaunchTime
	usages      []domain.ResourceUsage
}

func (m *memStore) Init() error { return nil }

func (m *memStore) StoreLaunchTime(ctx context.Context, lt domain.LaunchTime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launchTimes = append(m.launchTimes, lt)
	return nil
}

func (m *memStore) LaunchTimes(ctx context.Context, application string) ([]domain.LaunchTime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LaunchTime(nil), m.launchTimes...), nil
}

func (m *memStore) StoreResourceUsage(ctx context.Context, ru domain.ResourceUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usages = append(m.usages, ru)
	return nil
}

func (m *memStore) ResourceUsages(ctx context.Context, application string) ([]domain.ResourceUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ResourceUsage(nil), m.usages...), nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) usageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.usages)
}

func deviceOutputs() map[string]string {
	return map[string]string{
		"am start":                 "Status: ok\nLaunchState: COLD\nTotalTime: 835\nWaitTime: 851\n",
		"ro.product.name":          "raven\n",
		"ro.build.version.release": "14\n",
		"dumpsys cpuinfo":          "  4.5% 1893/com.google.android.youtube: 2.9% user + 1.5% kernel\n",
		"dumpsys meminfo":          "Total PSS by process:\n    245812: youtube (pid 1893)\n",
		"/proc/meminfo":            "MemTotal:        5896192 kB\n",
		"df /data":                 "Filesystem 1K-blocks Used Available Use% Mounted on\n/dev/block/dm-5 115249564 98765432 16484132 86% /data\n",
		"/proc/uptime":             "84321.45 335211.12\n",
		"gfxinfo":                  "Total frames rendered: 3512\nJanky frames: 123 (3.50%)\n",
		"/proc/cpuinfo":            "processor\t: 0\nprocessor\t: 1\n",
	}
}

func newTestCollector(store domain.Store, interval time.Duration) *Collector {
	client := adb.NewClientWithRunner(&fakeRunner{Output: deviceOutputs()})
	return New(client, store, nil, "com.google.android.youtube", ".HomeActivity", interval)
}

func TestMeasureLaunchTime(t *testing.T) {
	store := &memStore{}
	c := newTestCollector(store, time.Second)

	lt, err := c.MeasureLaunchTime(context.Background(), "192.168.1.50")
	assert.NoError(t, err)
	assert.Equal(t, domain.StartupCold, lt.StartupState)
	assert.Equal(t, int64(835), lt.StartupTimeMs)
	assert.Equal(t, "raven", lt.Device)
	assert.Equal(t, "14", lt.AndroidVersion)
	assert.Equal(t, "youtube", lt.Application)

	stored, err := store.LaunchTimes(context.Background(), "youtube")
	assert.NoError(t, err)
	assert.Len(t, stored, 1, "Measurement should be persisted")
	assert.Equal(t, lt, stored[0])
}

func TestMeasureLaunchTimeInvalidIP(t *testing.T) {
	store := &memStore{}
	c := newTestCollector(store, time.Second)

	_, err := c.MeasureLaunchTime(context.Background(), "not-an-ip")
	assert.ErrorIs(t, err, adb.ErrInvalidIP)
	assert.Empty(t, store.launchTimes, "Nothing should be persisted on failure")
}

func TestMeasureResourceUsage(t *testing.T) {
	store := &memStore{}
	c := newTestCollector(store, time.Second)

	ru, err := c.MeasureResourceUsage(context.Background(), "192.168.1.50")
	assert.NoError(t, err)
	assert.Equal(t, 4.5, ru.CPUPercent)
	assert.Equal(t, 245812.0, ru.MemoryUsedKB)
	assert.InDelta(t, 4.168, ru.MemoryPercent, 0.01)
	assert.Equal(t, 1, store.usageCount())
}

func TestMonitoringLifecycle(t *testing.T) {
	store := &memStore{}
	c := newTestCollector(store, 20*time.Millisecond)

	assert.False(t, c.Monitoring("192.168.1.50"))

	c.StartMonitoring("192.168.1.50")
	assert.True(t, c.Monitoring("192.168.1.50"))

	// starting again must not spawn a second loop
	c.StartMonitoring("192.168.1.50")

	assert.Eventually(t, func() bool {
		return store.usageCount() >= 2
	}, 2*time.Second, 10*time.Millisecond, "Loop should persist snapshots periodically")

	c.StopMonitoring("192.168.1.50")
	assert.False(t, c.Monitoring("192.168.1.50"))

	c.StopAll()

	settled := store.usageCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, store.usageCount(), "No snapshots after the loop stops")
}

func TestMeasureStorage(t *testing.T) {
	c := newTestCollector(&memStore{}, time.Second)

	storage, err := c.MeasureStorage(context.Background(), "192.168.1.50")
	assert.NoError(t, err)
	assert.Equal(t, 98765432.0, storage.UsedKB)
	assert.Equal(t, 86.0, storage.Percent)
}

func TestMeasureUptime(t *testing.T) {
	c := newTestCollector(&memStore{}, time.Second)

	uptime, err := c.MeasureUptime(context.Background(), "192.168.1.50")
	assert.NoError(t, err)
	assert.Equal(t, 84321.45, uptime)
}

func TestMeasureBadFrames(t *testing.T) {
	c := newTestCollector(&memStore{}, time.Second)

	frames, err := c.MeasureBadFrames(context.Background(), "192.168.1.50")
	assert.NoError(t, err)
	assert.Equal(t, int64(123), frames)
}

func TestRunAllTests(t *testing.T) {
	store := &memStore{}
	c := newTestCollector(store, time.Second)

	err := c.RunAllTests(context.Background(), "192.168.1.50")
	assert.NoError(t, err)
	assert.Equal(t, 1, store.usageCount(), "Combined run persists one resource snapshot")
}

func TestFrameMonitoringLifecycle(t *testing.T) {
	store := &memStore{}
	c := newTestCollector(store, 20*time.Millisecond)

	assert.False(t, c.FrameMonitoring("192.168.1.50"))

	c.StartFrameMonitoring("192.168.1.50")
	assert.True(t, c.FrameMonitoring("192.168.1.50"))

	// the frame loop runs independently of the resource loop
	assert.False(t, c.Monitoring("192.168.1.50"))

	c.StopFrameMonitoring("192.168.1.50")
	assert.False(t, c.FrameMonitoring("192.168.1.50"))

	c.StopAll()
}

func TestStopMonitoringUnknownDevice(t *testing.T) {
	store := &memStore{}
	c := newTestCollector(store, time.Second)

	// must not panic or block
	c.StopMonitoring("192.168.1.99")
}

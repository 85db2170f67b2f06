package collector

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	startupTimeGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_startup_time_ms",
		Help: "Last measured app startup time in milliseconds",
	}, []string{"device", "state"})

	cpuUsageGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_cpu_percent",
		Help: "CPU usage of the app under test in percent",
	}, []string{"device"})

	memUsedGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_mem_used_kb",
		Help: "Memory usage of the app under test in KB",
	}, []string{"device"})

	memPercentGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_mem_usage_percent",
		Help: "Memory usage of the app under test as a share of device memory",
	}, []string{"device"})

	storageUsedGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_storage_used_kb",
		Help: "Used space on the device data partition in KB",
	}, []string{"device"})

	storagePercentGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_storage_usage_percent",
		Help: "Fill percentage of the device data partition",
	}, []string{"device"})

	uptimeGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_uptime_seconds",
		Help: "Device uptime in seconds",
	}, []string{"device"})

	badFramesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_bad_frames",
		Help: "Janky frame count of the app under test",
	}, []string{"device"})

	cpuCoresGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "android_cpu_cores",
		Help: "Number of CPU cores on the device",
	}, []string{"device"})

	registerOnce sync.Once
)

// InitMetrics registers all Prometheus collectors used by the service.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			startupTimeGauge,
			cpuUsageGauge,
			memUsedGauge,
			memPercentGauge,
			storageUsedGauge,
			storagePercentGauge,
			uptimeGauge,
			badFramesGauge,
			cpuCoresGauge,
		)
	})
}

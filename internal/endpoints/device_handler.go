package endpoints

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"devicelab/internal/adb"
	"devicelab/internal/collector"
	"devicelab/internal/util"
)

type DeviceRequest struct {
	IP string `json:"ip"`
}

// Devices exposes device connection and test execution over HTTP.
type Devices struct {
	Response  APIResponse
	logger    *util.EventLogger
	adb       *adb.Client
	collector *collector.Collector
}

func (d *Devices) Init(client *adb.Client, coll *collector.Collector, logger *util.EventLogger) {
	d.adb = client
	d.collector = coll
	d.logger = logger
}

func (d *Devices) decodeDeviceRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req DeviceRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.logger.Errorf("Failed to decode device request: %v", err)
		d.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidRequestBody, http.StatusBadRequest)
		return "", false
	}

	if req.IP == "" {
		d.logger.Errorf("Device request is missing the ip field")
		d.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidRequestBody, http.StatusBadRequest)
		return "", false
	}

	if net.ParseIP(req.IP) == nil {
		d.logger.Errorf("Rejected device request with invalid IP %q", req.IP)
		d.Response.WriteErrorResponseWithStatusCode(w,
			fmt.Errorf("%w: %q", adb.ErrInvalidIP, req.IP), http.StatusBadRequest)
		return "", false
	}
	return req.IP, true
}

func (d *Devices) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	if err := d.adb.Connect(r.Context(), ip); err != nil {
		d.logger.Errorf("Failed to connect to %s: %v", ip, err)
		d.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadGateway)
		return
	}

	info, err := d.adb.DeviceInfo(r.Context(), ip)
	if err != nil {
		d.logger.Errorf("Connected to %s but device info failed: %v", ip, err)
		d.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadGateway)
		return
	}

	d.logger.Infof("Connected to device %s (%s, Android %s)", ip, info.Name, info.AndroidVersion)
	d.Response.WriteResultResponse(w, map[string]string{
		"ip":              ip,
		"device":          info.Name,
		"android_version": info.AndroidVersion,
	})
}

func (d *Devices) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	// monitoring must not keep commanding a device we just let go of
	d.collector.StopMonitoring(ip)
	d.collector.StopFrameMonitoring(ip)

	if err := d.adb.Disconnect(r.Context(), ip); err != nil {
		d.logger.Errorf("Failed to disconnect from %s: %v", ip, err)
		d.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadGateway)
		return
	}

	d.logger.Infof("Disconnected from device %s", ip)
	d.Response.WriteResultResponse(w, map[string]string{"ip": ip})
}

// LaunchTestHandler runs one launch-time measurement and returns the stored
// record.
func (d *Devices) LaunchTestHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	lt, err := d.collector.MeasureLaunchTime(r.Context(), ip)
	if err != nil {
		d.logger.Errorf("Launch test failed for %s: %v", ip, err)
		d.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadGateway)
		return
	}

	d.Response.WriteResultResponse(w, lt)
}

func (d *Devices) StartResourceTestHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	d.collector.StartMonitoring(ip)
	d.Response.WriteResultResponse(w, map[string]string{"ip": ip, "monitoring": "started"})
}

func (d *Devices) StopResourceTestHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	d.collector.StopMonitoring(ip)
	d.Response.WriteResultResponse(w, map[string]string{"ip": ip, "monitoring": "stopped"})
}

// StorageTestHandler takes one storage snapshot and returns it.
func (d *Devices) StorageTestHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	storage, err := d.collector.MeasureStorage(r.Context(), ip)
	if err != nil {
		d.logger.Errorf("Storage test failed for %s: %v", ip, err)
		d.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadGateway)
		return
	}

	d.Response.WriteResultResponse(w, map[string]float64{
		"storage_used_kb": storage.UsedKB,
		"storage_percent": storage.Percent,
	})
}

// UptimeTestHandler reads the device uptime and returns it.
func (d *Devices) UptimeTestHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	uptime, err := d.collector.MeasureUptime(r.Context(), ip)
	if err != nil {
		d.logger.Errorf("Uptime test failed for %s: %v", ip, err)
		d.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadGateway)
		return
	}

	d.Response.WriteResultResponse(w, map[string]float64{"uptime_seconds": uptime})
}

func (d *Devices) StartFrameTestHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	d.collector.StartFrameMonitoring(ip)
	d.Response.WriteResultResponse(w, map[string]string{"ip": ip, "frame_monitoring": "started"})
}

func (d *Devices) StopFrameTestHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	d.collector.StopFrameMonitoring(ip)
	d.Response.WriteResultResponse(w, map[string]string{"ip": ip, "frame_monitoring": "stopped"})
}

// AllTestsHandler runs every one-shot measurement once.
func (d *Devices) AllTestsHandler(w http.ResponseWriter, r *http.Request) {
	ip, ok := d.decodeDeviceRequest(w, r)
	if !ok {
		return
	}

	if err := d.collector.RunAllTests(r.Context(), ip); err != nil {
		d.logger.Errorf("Combined test run failed for %s: %v", ip, err)
		d.Response.WriteErrorResponseWithStatusCode(w, err, http.StatusBadGateway)
		return
	}

	d.Response.WriteResultResponse(w, map[string]string{"ip": ip, "tests": "completed"})
}

// Package simulator generates synthetic health metrics for a fixed device
// fleet. Sampling does no I/O; all metrics are drawn from fixed ranges.
package simulator

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/akvarma/devpulse/internal/model"
)

// statusRules are evaluated top to bottom; a later match overrides an
// earlier one, so a device that is both over-temperature and under-voltage
// classifies as Low Voltage. The order is load-bearing.
var statusRules = []struct {
	status string
	match  func(temp, mem int, volt float64) bool
}{
	{model.StatusMemoryLeak, func(_, mem int, _ float64) bool { return mem > 95 }},
	{model.StatusOverheating, func(temp, _ int, _ float64) bool { return temp > 100 }},
	{model.StatusLowVoltage, func(_, _ int, volt float64) bool { return volt < 3.0 }},
}

// Classify derives the status classification from raw metric values. It is a
// pure function: replaying the same values yields the same status.
func Classify(temp, mem int, volt float64) string {
	status := model.StatusOK
	for _, r := range statusRules {
		if r.match(temp, mem, volt) {
			status = r.status
		}
	}
	return status
}

// Fleet owns the device set, in the stable order devices were configured.
type Fleet struct {
	devices []model.Device
	byID    map[string]model.Device
}

// NewFleet creates a fleet from the configured devices.
func NewFleet(devices []model.Device) *Fleet {
	f := &Fleet{
		devices: make([]model.Device, len(devices)),
		byID:    make(map[string]model.Device, len(devices)),
	}
	copy(f.devices, devices)
	for _, d := range devices {
		f.byID[d.ID] = d
	}
	return f
}

// Devices returns the fleet in stable configuration order.
func (f *Fleet) Devices() []model.Device {
	out := make([]model.Device, len(f.devices))
	copy(out, f.devices)
	return out
}

// Device looks up a device by ID.
func (f *Fleet) Device(id string) (model.Device, bool) {
	d, ok := f.byID[id]
	return d, ok
}

// Sample produces one synthetic snapshot for the device. Safe for concurrent
// use; the package-level rand/v2 generators are goroutine-safe.
func (f *Fleet) Sample(d model.Device) model.Snapshot {
	temp := rand.IntN(101) + 20        // [20,120]
	mem := rand.IntN(91) + 10          // [10,100]
	volt := 2.5 + rand.Float64()*3.0   // [2.5,5.5]
	volt = math.Round(volt*100) / 100  // 2 decimal places
	cpu := rand.IntN(100) + 1          // [1,100]
	ioPct := rand.IntN(100) + 1        // [1,100]

	return model.Snapshot{
		Timestamp:   time.Now().UTC().Unix(),
		DeviceID:    d.ID,
		Temperature: temp,
		Memory:      mem,
		Voltage:     volt,
		CPU:         cpu,
		IO:          ioPct,
		Status:      Classify(temp, mem, volt),
	}
}

// SampleAll produces one preview snapshot per device, keyed by device ID.
// Nothing is persisted; this backs the on-demand status queries.
func (f *Fleet) SampleAll() map[string]model.Snapshot {
	out := make(map[string]model.Snapshot, len(f.devices))
	for _, d := range f.devices {
		out[d.ID] = f.Sample(d)
	}
	return out
}

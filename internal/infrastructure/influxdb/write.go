package influxdb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the panel.
const (
	MeasurementCommands = "rf_commands"
	MeasurementPresses  = "button_presses"
)

// CommandMetric describes one transmitted socket command.
type CommandMetric struct {
	Address uint32
	Socket  int
	State   string
	// Result is "sent" or "failed".
	Result string
}

// PressMetric describes one dispatched button press.
type PressMetric struct {
	Page     int
	Label    string
	State    string
	Status   string
	Sent     int
	Failed   int
	Duration time.Duration
}

// WriteCommand queues one rf_commands point. It never blocks.
func (c *Client) WriteCommand(m CommandMetric) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(commandPoint(m, time.Now()))
}

// WritePress queues one button_presses point.
func (c *Client) WritePress(m PressMetric) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(pressPoint(m, time.Now()))
}

func commandPoint(m CommandMetric, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementCommands,
		map[string]string{
			"address": fmt.Sprintf("0x%X", m.Address),
			"socket":  strconv.Itoa(m.Socket),
			"state":   m.State,
			"result":  m.Result,
		},
		map[string]interface{}{
			"count": 1,
		},
		ts,
	)
}

func pressPoint(m PressMetric, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementPresses,
		map[string]string{
			"page":   strconv.Itoa(m.Page),
			"label":  m.Label,
			"state":  m.State,
			"status": m.Status,
		},
		map[string]interface{}{
			"sent":        m.Sent,
			"failed":      m.Failed,
			"duration_ms": m.Duration.Milliseconds(),
		},
		ts,
	)
}

package main

import (
	"time"

	"github.com/nerrad567/rfpanel-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// metricsClient is the subset of *influxdb.Client the press pipeline uses.
type metricsClient interface {
	WriteCommand(m influxdb.CommandMetric)
	WritePress(m influxdb.PressMetric)
}

// influxMetrics adapts the InfluxDB client to power.MetricsWriter.
type influxMetrics struct {
	client metricsClient
}

// RecordCommand writes one rf_commands point.
func (m influxMetrics) RecordCommand(cmd power.Command, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.client.WriteCommand(influxdb.CommandMetric{
		Address: cmd.Address,
		Socket:  cmd.Socket,
		State:   string(cmd.State),
		Result:  result,
	})
}

// RecordPress writes one button_presses point.
func (m influxMetrics) RecordPress(exec *power.Execution) {
	m.client.WritePress(influxdb.PressMetric{
		Page:     exec.Button.Page,
		Label:    exec.Label,
		State:    string(exec.State),
		Status:   string(exec.Status),
		Sent:     exec.CommandsSent,
		Failed:   exec.CommandsFailed,
		Duration: time.Duration(exec.DurationMS) * time.Millisecond,
	})
}

// fanout delivers every event to each broadcaster in order.
type fanout []power.EventBroadcaster

// Broadcast implements power.EventBroadcaster.
func (f fanout) Broadcast(channel string, payload any) {
	for _, b := range f {
		b.Broadcast(channel, payload)
	}
}

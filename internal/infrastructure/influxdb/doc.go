// Package influxdb writes RF panel metrics to InfluxDB 2.x.
//
// Two measurements are recorded:
//
//   - rf_commands: one point per socket command, tagged address, socket,
//     state and result (sent or failed), with field count=1
//   - button_presses: one point per press, tagged page, label, state and
//     status, with fields sent, failed and duration_ms
//
// Points are batched by influxdb-client-go and flushed in the background.
// Batch failures arrive on the SetOnError callback wrapped in
// ErrWriteFailed; Connect and HealthCheck return their errors directly.
package influxdb

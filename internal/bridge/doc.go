// Package bridge connects the dumper to the charting host.
//
// The host pushes chart state over a WebSocket as small JSON messages
// (bars, quotes, depth levels, volume-at-price decompositions, study
// arrays, time & sales batches). The Feed decodes them into the per-chart
// stores of a source.Hub and wakes the engine registered for the chart.
//
// The connection is read-mostly: the dumper never requests data, the host
// decides what to push and when. Reconnect is automatic with exponential
// backoff, and an unbounded queue decouples socket reads from store
// writes.
package bridge

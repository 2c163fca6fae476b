// Package prometheus renders authengine metrics in Prometheus text
// exposition format without importing a Prometheus client library.
package prometheus

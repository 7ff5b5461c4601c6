// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus collectors for the confmod pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmod_source_loads_total",
		Help: "Source configuration load attempts by outcome",
	}, []string{"outcome"}) // outcome=success|empty|missing|unreadable|malformed

	sourceReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmod_source_reloads_total",
		Help: "Source configuration reloads by trigger",
	}, []string{"trigger"}) // trigger=watch|emit|manual

	moduleLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmod_module_loads_total",
		Help: "Virtual module body generations by build mode",
	}, []string{"mode"}) // mode=develop|produce

	assetsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmod_assets_emitted_total",
		Help: "Configuration assets emitted by emission style",
	}, []string{"style"}) // style=integrated|standalone

	assetWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confmod_asset_write_errors_total",
		Help: "Total number of asset write failures",
	})

	hotUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confmod_hot_updates_total",
		Help: "Total number of hot-update invalidations pushed to clients",
	})

	rebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmod_rebuilds_total",
		Help: "Development session rebuilds by outcome",
	}, []string{"outcome"}) // outcome=success|failure|skipped

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "confmod_ws_clients",
		Help: "Currently connected hot-update websocket clients",
	})
)

// RecordSourceLoad counts one source load attempt with the given outcome.
func RecordSourceLoad(outcome string) {
	sourceLoadsTotal.WithLabelValues(outcome).Inc()
}

// RecordSourceReload counts one reload with the given trigger.
func RecordSourceReload(trigger string) {
	sourceReloadsTotal.WithLabelValues(trigger).Inc()
}

// RecordModuleLoad counts one virtual module body generation.
func RecordModuleLoad(mode string) {
	moduleLoadsTotal.WithLabelValues(mode).Inc()
}

// RecordAssetEmitted counts one emitted configuration asset.
func RecordAssetEmitted(style string) {
	assetsEmittedTotal.WithLabelValues(style).Inc()
}

// RecordAssetWriteError counts one asset write failure.
func RecordAssetWriteError() {
	assetWriteErrorsTotal.Inc()
}

// RecordHotUpdate counts one hot-update push.
func RecordHotUpdate() {
	hotUpdatesTotal.Inc()
}

// RecordRebuild counts one dev-session rebuild with the given outcome.
func RecordRebuild(outcome string) {
	rebuildsTotal.WithLabelValues(outcome).Inc()
}

// WSClientConnected increments the connected websocket client gauge.
func WSClientConnected() {
	wsClients.Inc()
}

// WSClientDisconnected decrements the connected websocket client gauge.
func WSClientDisconnected() {
	wsClients.Dec()
}

package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FieldMissTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extract_field_miss_total",
			Help: "Fields left at their default because the markup was missing or unparseable",
		},
		[]string{"field"},
	)
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_total",
			Help: "Page snapshots acquired, by acquisition mode",
		},
		[]string{"mode"},
	)
	ProductsSyncedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "products_synced_total",
			Help: "Product records committed to the store",
		},
	)
	SyncFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_failures_total",
			Help: "Sync transactions rolled back",
		},
	)
)

func Start(port string) {
	prometheus.MustRegister(FieldMissTotal, FetchTotal, ProductsSyncedTotal, SyncFailuresTotal)
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":"+port, nil)
}

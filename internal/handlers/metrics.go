package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the registry in the Prometheus text format
func Metrics(registry *prometheus.Registry) gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return gin.WrapH(h)
}

package monitor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter serves the metrics, the latest readings and the live feed.
func NewRouter(sampler *Sampler, hub *Hub, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/readings", func(c *gin.Context) {
		c.JSON(http.StatusOK, sampler.Latest())
	})
	r.GET("/ws", gin.WrapH(hub))
	return r
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the liveness body expected by the hosting platform.
type HealthResponse struct {
	Status string `json:"status"`
	Bot    string `json:"bot"`
}

// Health answers liveness probes. It must respond even while the processing
// loop is mid-cycle, which it does trivially: the HTTP server runs on its own
// goroutines and shares no locks with the reply pipeline.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Bot: "alive"})
}

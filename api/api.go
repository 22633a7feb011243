package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/LuciG420/bsky-dm-cli/daemon"
)

// StatsProvider reports a point-in-time view of the pipeline counters.
type StatsProvider interface {
	Stats() daemon.Snapshot
}

// Register wires up the operational routes on the provided Echo instance.
func Register(e *echo.Echo, stats StatsProvider, logger *log.Logger) {
	e.GET("/healthz", healthz())
	e.GET("/stats", getStats(stats, logger))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getStats(stats StatsProvider, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := stats.Stats()
		logger.WithField("runId", snap.RunID).Debug("served stats snapshot")
		return c.JSON(http.StatusOK, snap)
	}
}

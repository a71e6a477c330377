// Package health reports process and dependency status.
package health

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var startedAt = time.Now()

// Handlers serves GET /health/json.
type Handlers struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

// DepStatus is one dependency's status line.
type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// JSON reports uptime and dependency health.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	deps := map[string]DepStatus{
		"database": h.databaseStatus(),
		"redis":    h.redisStatus(c),
	}

	status := "ok"
	if deps["database"].Status != "connected" {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status": status,
		"runtime": fiber.Map{
			"uptimeSeconds": int64(time.Since(startedAt).Seconds()),
			"goVersion":     runtime.Version(),
			"platform":      runtime.GOOS,
		},
		"dependencies": deps,
	})
}

func (h *Handlers) databaseStatus() DepStatus {
	if h.DB == nil {
		return DepStatus{Status: "disconnected", PingMs: nil}
	}
	sqlDB, err := h.DB.DB()
	if err != nil {
		return DepStatus{Status: "disconnected", PingMs: nil}
	}
	start := time.Now()
	if err := sqlDB.Ping(); err != nil {
		return DepStatus{Status: "disconnected", PingMs: nil}
	}
	return DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds()}
}

func (h *Handlers) redisStatus(c *fiber.Ctx) DepStatus {
	if h.Rdb == nil {
		return DepStatus{Status: "not configured", PingMs: nil}
	}
	start := time.Now()
	if err := h.Rdb.Ping(c.Context()).Err(); err != nil {
		return DepStatus{Status: "disconnected", PingMs: nil}
	}
	return DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds()}
}

package web

import (
	"errors"
	"time"

	"github.com/dukex/notiair/pkg/metrics"
	"github.com/gofiber/fiber/v3"
)

// Metrics records request counts and latencies by route pattern.
func Metrics(collector *metrics.Collector) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()

		if err != nil {
			status = fiber.StatusInternalServerError

			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		collector.ObserveHTTP(c.Method(), c.Route().Path, status, time.Since(start))

		return err
	}
}

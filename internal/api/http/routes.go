package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/renewabletx/gridmix/internal/dashboard"
	"github.com/renewabletx/gridmix/internal/store"
)

var validate = validator.New()

// Deps bundles what the HTTP handlers need.
type Deps struct {
	Dashboard *dashboard.Service
	Sources   *store.SourceRepo
	Snapshots *store.SnapshotRepo

	// ChartDir, when set, is served read-only at /images.
	ChartDir string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.ChartDir != "" {
		app.Static("/images", deps.ChartDir)
	}

	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		// Malformed timespans fall back to the default window; this
		// endpoint never 400s on them.
		timespan := c.Query("timespan", "5D")

		labels, datasets, err := deps.Dashboard.Series(timespan)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build dashboard series")
		}

		return c.JSON(fiber.Map{
			"labels":   labels,
			"datasets": datasets,
		})
	})

	v1.Get("/generation/daily", func(c *fiber.Ctx) error {
		var req dailyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		chartData, rows, err := deps.Dashboard.GenerationByDay(req.Days)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build daily generation")
		}

		return c.JSON(fiber.Map{
			"chart": chartData,
			"table": rows,
		})
	})

	v1.Get("/sources", func(c *fiber.Ctx) error {
		sources, err := deps.Sources.List()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list sources")
		}
		return c.JSON(fiber.Map{"sources": sources})
	})

	v1.Get("/snapshots/latest", func(c *fiber.Ctx) error {
		snap, err := deps.Snapshots.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no snapshots ingested yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest snapshot")
		}

		return c.JSON(fiber.Map{
			"timestamp":    snap.Timestamp,
			"createdAt":    snap.CreatedAt,
			"totalMw":      snap.TotalMW(),
			"renewableMw":  snap.RenewableMW(),
			"renewablePct": snap.RenewablePct(),
			"readings":     snap.Readings,
		})
	})
}

// dailyQuery holds query parameters for the daily generation endpoint.
type dailyQuery struct {
	Days int `validate:"min=1,max=365"`
}

func (q *dailyQuery) bind(c *fiber.Ctx) error {
	daysStr := c.Query("days", "30")
	days, err := strconv.Atoi(daysStr)
	if err != nil {
		return errors.New("days must be an integer")
	}
	q.Days = days
	return nil
}

// Package httpapi is the thin delivery layer over the simulation core. It
// binds and validates requests, calls the core operations, and maps the
// error taxonomy onto HTTP statuses; it holds no simulation logic.
package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"berryfarm/internal/apperrors"
	"berryfarm/internal/farm"
	"berryfarm/internal/growth"
	"berryfarm/internal/market"
	"berryfarm/internal/weather"
)

var validate = validator.New()

// Deps bundles the core services the routes call into.
type Deps struct {
	Farms     *farm.Service
	Locations *farm.LocationService
	Weather   *weather.Cache
	Prices    *market.Prices
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/farms/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid farm id")
		}

		f, stale, err := deps.Farms.Get(c.Context(), uint(id))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"farm": f, "stale": stale})
	})

	v1.Post("/farms/:id/sync", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid farm id")
		}

		f, err := deps.Farms.Sync(c.Context(), uint(id))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"farm": f})
	})

	v1.Post("/farms/:id/crops", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid farm id")
		}

		var req plantRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		crop, err := deps.Farms.Plant(c.Context(), uint(id), req.Berry, req.X, req.Y)
		if err != nil {
			return mapError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(crop)
	})

	v1.Post("/crops/:id/water", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid crop id")
		}

		var req waterRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		crop, err := deps.Farms.Water(c.Context(), uint(id), req.Amount, req.Absolute)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(crop)
	})

	v1.Post("/crops/:id/harvest", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid crop id")
		}

		result, err := deps.Farms.Harvest(c.Context(), uint(id))
		if err != nil {
			return mapError(err)
		}
		unitPrice := deps.Prices.UnitPrice(result.Berry)
		return c.JSON(fiber.Map{
			"berry":     result.Berry,
			"yield":     result.Yield,
			"unitPrice": unitPrice,
			"proceeds":  unitPrice * float64(result.Yield),
		})
	})

	v1.Post("/crops/moisture", func(c *fiber.Ctx) error {
		var req moistureRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		args := growth.MoistureArgs{Moisture: req.Moisture, DryRate: req.DryRate}
		moisture, err := deps.Farms.ProjectMoisture(c.Context(), req.CropID, args, time.Duration(req.ElapsedSeconds)*time.Second)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"moisture": moisture})
	})

	v1.Post("/locations", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := deps.Locations.Create(c.Context(), req.Name, req.Region, req.Country)
		if err != nil {
			return mapError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(loc)
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var req weatherQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		summaries, err := deps.Weather.FetchRange(c.Context(), req.LocationID, req.From, req.To)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{
			"location": req.LocationID,
			"days":     summaries,
		})
	})

	v1.Get("/market/prices", func(c *fiber.Ctx) error {
		return c.JSON(deps.Prices.Snapshot())
	})
}

type plantRequest struct {
	Berry string `json:"berry" validate:"required"`
	X     int    `json:"x" validate:"gte=0"`
	Y     int    `json:"y" validate:"gte=0"`
}

type waterRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Absolute bool    `json:"absolute"`
}

// moistureRequest projects a moisture level forward in time, seeded either
// from a crop or from explicit values.
type moistureRequest struct {
	CropID         *uint    `json:"crop_id"`
	Moisture       *float64 `json:"moisture"`
	DryRate        *float64 `json:"dry_rate"`
	ElapsedSeconds int      `json:"elapsed_seconds" validate:"gte=0"`
}

type locationRequest struct {
	Name    string `json:"name" validate:"required"`
	Region  string `json:"region"`
	Country string `json:"country" validate:"required"`
}

// weatherQuery holds query parameters for the weather range endpoint.
type weatherQuery struct {
	LocationID uint
	From       time.Time
	To         time.Time
}

func (q *weatherQuery) bind(c *fiber.Ctx) error {
	id := c.QueryInt("location")
	if id <= 0 {
		return errors.New("location query parameter is required")
	}
	q.LocationID = uint(id)

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseDay(fromStr)
	if err != nil {
		return err
	}
	to, err := parseDay(toStr)
	if err != nil {
		return err
	}
	q.From = from
	q.To = to
	return nil
}

// parseDay accepts YYYY-MM-DD or RFC3339.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("invalid date; use YYYY-MM-DD or RFC3339")
}

// mapError converts core errors into fiber errors. Staleness is not an
// error to the core, but over HTTP it becomes a distinct non-200 status the
// client must branch on.
func mapError(err error) error {
	if errors.Is(err, farm.ErrFarmStale) {
		return fiber.NewError(fiber.StatusPreconditionRequired, err.Error())
	}
	if errors.Is(err, apperrors.ErrExceededRetries) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case apperrors.KindInvalidArgument:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case apperrors.KindUnauthenticated:
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case apperrors.KindPermissionDenied:
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case apperrors.KindConflict:
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

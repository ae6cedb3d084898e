package httpapi

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/search"
)

var (
	validate = validator.New()
	tracer   = otel.Tracer("skimeister.internal.api.http")
)

const errResortNotFound = "Resort not found"

// ErrorHandler renders every error as {"success": false, "error": msg}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, repo resort.Repository, engine *search.Engine, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "skimeister",
		})
	})

	api := app.Group("/api")

	api.Get("/resorts", func(c *fiber.Ctx) error {
		all, err := repo.ListResorts(c.UserContext())
		if err != nil {
			log.Error("list resorts", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load resorts")
		}

		resorts := search.Filter(all, parseFilters(c))
		return c.JSON(fiber.Map{
			"success": true,
			"count":   len(resorts),
			"resorts": resorts,
		})
	})

	api.Get("/search", func(c *fiber.Ctx) error {
		ctx, span := tracer.Start(c.UserContext(), "httpapi.search")
		defer span.End()

		var loc locationQuery
		if err := loc.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Missing lat or lng parameters")
		}

		all, err := repo.ListResorts(ctx)
		if err != nil {
			span.RecordError(err)
			log.Error("list resorts", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load resorts")
		}

		q := search.Query{
			Origin:   search.Point{Lat: *loc.Lat, Lng: *loc.Lng},
			RadiusKm: queryFloat(c, "radius"),
			Filters:  parseFilters(c),
			Sort:     search.SortKey(c.Query("sort", string(search.SortDistance))),
		}
		result := engine.Search(all, q)
		span.SetAttributes(
			attribute.Float64("search.radius_km", result.RadiusKm),
			attribute.Int("search.count", result.Count),
			attribute.String("search.sort", string(q.Sort)),
		)

		return c.JSON(fiber.Map{
			"success":       true,
			"count":         result.Count,
			"user_location": result.Origin,
			"radius_km":     result.RadiusKm,
			"resorts":       result.Items,
		})
	})

	api.Get("/resort/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusNotFound, errResortNotFound)
		}

		r, err := repo.GetResort(c.UserContext(), uint(id))
		if err != nil {
			if errors.Is(err, resort.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, errResortNotFound)
			}
			log.Error("get resort", "id", id, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load resort")
		}

		return c.JSON(fiber.Map{
			"success": true,
			"resort":  r,
		})
	})

	api.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := repo.Stats(c.UserContext())
		if err != nil {
			log.Error("stats", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load stats")
		}
		return c.JSON(fiber.Map{
			"success": true,
			"stats":   stats,
		})
	})
}

// locationQuery holds the origin of a proximity search.
type locationQuery struct {
	Lat *float64 `validate:"required,min=-90,max=90"`
	Lng *float64 `validate:"required,min=-180,max=180"`
}

func (l *locationQuery) bind(c *fiber.Ctx) error {
	l.Lat = queryFloat(c, "lat")
	l.Lng = queryFloat(c, "lng")
	return validate.Struct(l)
}

// parseFilters reads the optional filters. Values that do not parse are
// dropped and therefore do not constrain the result.
func parseFilters(c *fiber.Ctx) search.Filters {
	var f search.Filters

	if n, err := strconv.Atoi(strings.TrimSpace(c.Query("min_snow"))); err == nil {
		f.MinSnow = &n
	}
	if s, ok := resort.ParseStatus(c.Query("status")); ok {
		f.Status = &s
	}
	f.MinSlopes = queryFloat(c, "min_slopes")
	f.MaxPrice = queryFloat(c, "max_price")
	if v := strings.TrimSpace(c.Query("country")); v != "" {
		f.Country = &v
	}
	return f
}

func queryFloat(c *fiber.Ctx, key string) *float64 {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/city-islands/internal/dashboard"
	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/pipeline"
	"github.com/i474232898/city-islands/internal/ski"
	"github.com/i474232898/city-islands/internal/store"
	"github.com/i474232898/city-islands/internal/traffic"
	"github.com/i474232898/city-islands/internal/weather"
)

var validate = validator.New()

// History serves retained weather snapshots.
type History interface {
	GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error)
}

// Geocoder resolves free-form place names.
type Geocoder interface {
	Configured() bool
	Geocode(ctx context.Context, city, country string) (island.Coordinate, error)
}

// Deps are the services behind the routes. Geocoder may be nil.
type Deps struct {
	Dashboard *dashboard.Service
	Sessions  *dashboard.Sessions
	History   History
	Geocoder  Geocoder
}

// ErrorHandler renders every error as {"error":true,"message":...} with a
// status derived from the error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, dashboard.ErrUnknownCity),
		errors.Is(err, dashboard.ErrUnknownSession),
		errors.Is(err, dashboard.ErrUnknownWidget),
		errors.Is(err, store.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, dashboard.ErrSuperseded), errors.Is(err, dashboard.ErrNoSelection):
		code = fiber.StatusConflict
	case errors.Is(err, pipeline.ErrNotConfigured):
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/", pageHandler(d.Dashboard))

	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(d.Dashboard.Directory().All())
	})

	v1.Get("/cities/:key/islands", func(c *fiber.Ctx) error {
		islands, err := d.Dashboard.Refresh(c.UserContext(), c.Params("key"))
		if err != nil {
			return err
		}
		return c.JSON(islands)
	})

	v1.Get("/hubs/resolve", func(c *fiber.Ctx) error {
		var q resolveQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p := island.Coordinate{Lat: q.Lat, Lon: q.Lon}
		if q.Capability == "" {
			return c.JSON(fiber.Map{"point": p, "matches": d.Dashboard.Resolver().ResolveAll(p)})
		}
		m, ok := d.Dashboard.Resolver().Resolve(p, island.Capability(q.Capability))
		resp := fiber.Map{"point": p, "capability": q.Capability, "matched": ok}
		if ok {
			resp["match"] = m
		}
		return c.JSON(resp)
	})

	v1.Get("/traffic/monitoring", func(c *fiber.Ctx) error {
		city := c.Query("city")
		if city == "" {
			return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
		}
		return c.JSON(fiber.Map{
			"city":      city,
			"monitored": traffic.HasMonitoring(city),
			"points":    traffic.MonitoringPoints(city),
		})
	})

	v1.Get("/traffic/estimate", func(c *fiber.Ctx) error {
		var q trafficQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(d.Dashboard.EstimateTraffic(q.City, traffic.Conditions{
			Rain:    q.Rain,
			Holiday: q.Holiday,
			Hour:    q.Hour,
		}))
	})

	v1.Get("/ski/estimate", func(c *fiber.Ctx) error {
		var q skiQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		est := d.Dashboard.EstimateSki(q.Resort, q.inputs())
		if est == nil {
			return fiber.NewError(fiber.StatusNotFound, "unknown resort: "+q.Resort)
		}
		return c.JSON(est)
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		if d.Geocoder == nil || !d.Geocoder.Configured() {
			return pipeline.ErrNotConfigured
		}
		var q locationQuery
		q.City = c.Query("city")
		q.Country = c.Query("country", "TR")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := d.Geocoder.Geocode(c.UserContext(), q.City, q.Country)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{"point": p, "matches": d.Dashboard.Resolver().ResolveAll(p)})
	})

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusCreated).JSON(d.Sessions.Open())
	})

	v1.Get("/sessions/:id", func(c *fiber.Ctx) error {
		view, err := d.Sessions.Get(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(view)
	})

	v1.Put("/sessions/:id/city", func(c *fiber.Ctx) error {
		var body selectCityBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		islands, err := d.Sessions.Select(c.UserContext(), c.Params("id"), body.City)
		if err != nil {
			return err
		}
		return c.JSON(islands)
	})

	v1.Post("/sessions/:id/widgets/:kind/retry", func(c *fiber.Ctx) error {
		kind, err := dashboard.ParseKind(c.Params("kind"))
		if err != nil {
			return err
		}
		st, err := d.Sessions.Retry(c.UserContext(), c.Params("id"), kind)
		if err != nil {
			return err
		}
		return c.JSON(st)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		p, ok := d.Dashboard.Directory().Lookup(req.City)
		if !ok {
			return dashboard.ErrUnknownCity
		}
		loc := weather.ProfileLocation(p)
		snapshots, err := d.History.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":  loc,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})
}

// locationQuery holds query parameters for identifying a place.
type locationQuery struct {
	City    string `validate:"required"`
	Country string `validate:"required,len=2"`
}

type resolveQuery struct {
	Lat        float64 `validate:"gte=-90,lte=90"`
	Lon        float64 `validate:"gte=-180,lte=180"`
	Capability string  `validate:"omitempty,oneof=marine traffic ski"`
}

func (q *resolveQuery) bind(c *fiber.Ctx) error {
	lat, err := requiredFloat(c, "lat")
	if err != nil {
		return err
	}
	lon, err := requiredFloat(c, "lon")
	if err != nil {
		return err
	}
	q.Lat, q.Lon = lat, lon
	q.Capability = c.Query("capability")
	return validate.Struct(q)
}

type trafficQuery struct {
	City    string `validate:"required"`
	Rain    bool
	Holiday bool
	Hour    *int `validate:"omitempty,gte=0,lte=23"`
}

func (q *trafficQuery) bind(c *fiber.Ctx) error {
	q.City = c.Query("city")
	q.Rain = c.QueryBool("rain", false)
	q.Holiday = c.QueryBool("holiday", false)
	if v := c.Query("hour"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("hour must be an integer")
		}
		q.Hour = &h
	}
	return validate.Struct(q)
}

type skiQuery struct {
	Resort   string   `validate:"required"`
	Temp     float64  `validate:"gte=-60,lte=50"`
	Precip   float64  `validate:"gte=0,lte=500"`
	Wind     float64  `validate:"gte=0,lte=300"`
	Cloud    float64  `validate:"gte=0,lte=100"`
	Snowfall *float64 `validate:"omitempty,gte=0,lte=300"`
}

func (q *skiQuery) bind(c *fiber.Ctx) error {
	q.Resort = c.Query("resort")
	var err error
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"temp", &q.Temp},
		{"precip", &q.Precip},
		{"wind", &q.Wind},
		{"cloud", &q.Cloud},
	} {
		if *f.dst, err = optionalFloat(c, f.key, 0); err != nil {
			return err
		}
	}
	if v := c.Query("snowfall"); v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("snowfall must be a number")
		}
		q.Snowfall = &s
	}
	return validate.Struct(q)
}

func (q skiQuery) inputs() ski.Inputs {
	return ski.Inputs{
		CurrentTemp:   q.Temp,
		Precipitation: q.Precip,
		WindSpeed:     q.Wind,
		CloudCover:    q.Cloud,
		Snowfall:      q.Snowfall,
	}
}

type selectCityBody struct {
	City string `json:"city" validate:"required"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	City string    `validate:"required"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.City = c.Query("city")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

func requiredFloat(c *fiber.Ctx, key string) (float64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, errors.New(key + " query parameter is required")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return f, nil
}

func optionalFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	if c.Query(key) == "" {
		return def, nil
	}
	return requiredFloat(c, key)
}

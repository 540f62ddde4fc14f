package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-analyzer/internal/common"
	"github.com/i474232898/weather-analyzer/internal/weather"
)

var validate = newValidator()

// newValidator reports fields by their query or json name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")
	w := v1.Group("/weather")

	// Static paths first so they are not captured by /:id.
	w.Get("/all", func(c *fiber.Ctx) error {
		records, err := service.GetAll(c.UserContext())
		if err != nil {
			return internalError(err, "failed to fetch weather records")
		}
		if records == nil {
			records = []weather.Record{}
		}
		return c.JSON(records)
	})

	w.Get("/latest", func(c *fiber.Ctx) error {
		rec, err := service.GetLatest(c.UserContext())
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather records stored")
			}
			return internalError(err, "failed to fetch latest weather record")
		}
		return c.JSON(rec)
	})

	w.Get("/history", func(c *fiber.Ctx) error {
		var q historyQuery
		start, end, err := q.bind(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		avg, err := service.GetInTimestampRange(c.UserContext(), start, end)
		if err != nil {
			return internalError(err, "failed to compute weather history")
		}
		return c.JSON(avg)
	})

	w.Get("/historyByDate", func(c *fiber.Ctx) error {
		var q historyByDateQuery
		start, end, err := q.bind(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		avg, err := service.GetInDateRange(c.UserContext(), start, end)
		if err != nil {
			return internalError(err, "failed to compute weather history")
		}
		return c.JSON(avg)
	})

	w.Get("/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid id %q", c.Params("id")))
		}
		// Stores assign ids from 1.
		if id <= 0 {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("weather record %d not found", id))
		}

		rec, err := service.GetByID(c.UserContext(), int64(id))
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("weather record %d not found", id))
			}
			return internalError(err, "failed to fetch weather record")
		}
		return c.JSON(rec)
	})

	v1.Post("/weather", func(c *fiber.Ctx) error {
		var req submitRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		rec, err := req.toRecord()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		stored, err := service.Submit(c.UserContext(), rec)
		if err != nil {
			if errors.Is(err, weather.ErrDuplicate) {
				return fiber.NewError(fiber.StatusConflict, "weather record for this location and timestamp already exists")
			}
			return internalError(err, "failed to store weather record")
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	})
}

// internalError logs the cause and hides it from the client.
func internalError(err error, msg string) error {
	slog.Error(msg, "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

// historyQuery holds query parameters for the timestamp range endpoint.
type historyQuery struct {
	StartDateTime string `query:"startDateTime" validate:"required"`
	EndDateTime   string `query:"endDateTime" validate:"required"`
}

func (h *historyQuery) bind(c *fiber.Ctx) (time.Time, time.Time, error) {
	if err := c.QueryParser(h); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := validate.Struct(h); err != nil {
		return time.Time{}, time.Time{}, validationError(err)
	}

	start, err := common.ParseTime(h.StartDateTime, common.DateTimeLayouts...)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("startDateTime: %w", err)
	}
	end, err := common.ParseTime(h.EndDateTime, common.DateTimeLayouts...)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("endDateTime: %w", err)
	}
	return start, end, nil
}

// historyByDateQuery holds query parameters for the date range endpoint.
type historyByDateQuery struct {
	StartDate string `query:"startDate" validate:"required"`
	EndDate   string `query:"endDate" validate:"required"`
}

func (h *historyByDateQuery) bind(c *fiber.Ctx) (time.Time, time.Time, error) {
	if err := c.QueryParser(h); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := validate.Struct(h); err != nil {
		return time.Time{}, time.Time{}, validationError(err)
	}

	start, err := common.ParseTime(h.StartDate, common.DateLayout)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("startDate: %w", err)
	}
	end, err := common.ParseTime(h.EndDate, common.DateLayout)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("endDate: %w", err)
	}
	return start, end, nil
}

// submitRequest is the POST body. Any id sent by the client is ignored.
type submitRequest struct {
	Temperature float32 `json:"temperature"`
	Wind        float32 `json:"wind"`
	Pressure    float32 `json:"pressure"`
	Humidity    float32 `json:"humidity"`
	Location    string  `json:"location" validate:"required"`
	Timestamp   string  `json:"timestamp" validate:"required"`
}

func (r submitRequest) toRecord() (weather.Record, error) {
	r.Location = strings.TrimSpace(r.Location)
	if err := validate.Struct(r); err != nil {
		return weather.Record{}, validationError(err)
	}
	ts, err := common.ParseTime(r.Timestamp, common.DateTimeLayouts...)
	if err != nil {
		return weather.Record{}, fmt.Errorf("timestamp: %w", err)
	}
	return weather.Record{
		Temperature: r.Temperature,
		Wind:        r.Wind,
		Pressure:    r.Pressure,
		Humidity:    r.Humidity,
		Location:    r.Location,
		Timestamp:   weather.Naive(ts),
	}, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ilosync/ilosync/internal/history"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/labstack/echo/v4"
)

func registerHistoryEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/history")

	group.GET("/", func(c echo.Context) error {
		domain, err := ilo.ParseDomain(c.QueryParam("domain"))
		if err != nil {
			return returnBadRequest(c, err.Error())
		}
		from, to, err := parseTimeRange(c)
		if err != nil {
			return returnBadRequest(c, err.Error())
		}

		points, err := deps.History.Range(c.Request().Context(), domain, from, to)
		if err != nil {
			return returnError(c, err)
		}
		return c.JSONPretty(http.StatusOK, points, indentationChar)
	})

	group.GET("/aggregated/", func(c echo.Context) error {
		domain, err := ilo.ParseDomain(c.QueryParam("domain"))
		if err != nil {
			return returnBadRequest(c, err.Error())
		}
		rangeMinutes, err := positiveIntParam(c, "range", 60)
		if err != nil {
			return returnBadRequest(c, err.Error())
		}
		bucketMinutes, err := positiveIntParam(c, "bucket", 5)
		if err != nil {
			return returnBadRequest(c, err.Error())
		}

		aggregated, err := deps.History.Aggregate(
			c.Request().Context(),
			domain,
			time.Duration(rangeMinutes)*time.Minute,
			time.Duration(bucketMinutes)*time.Minute,
			time.Now(),
		)
		if err != nil {
			return returnError(c, err)
		}
		return c.JSONPretty(http.StatusOK, aggregated, indentationChar)
	})

	// streamed, the result set is never materialized server-side
	group.GET("/export/", func(c echo.Context) error {
		domain, err := ilo.ParseDomain(c.QueryParam("table"))
		if err != nil {
			return returnBadRequest(c, err.Error())
		}
		format, err := history.ParseFormat(c.QueryParam("format"))
		if err != nil {
			return returnBadRequest(c, err.Error())
		}
		from, to, err := parseTimeRange(c)
		if err != nil {
			return returnBadRequest(c, err.Error())
		}

		response := c.Response()
		response.Header().Set(echo.HeaderContentType, format.ContentType())
		response.Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s.%s"`, domain, format))
		response.WriteHeader(http.StatusOK)

		return deps.History.Export(c.Request().Context(), response, domain, format, from, to)
	})
}

// parseTimeRange reads the from/to query parameters as unix seconds,
// defaulting to the trailing hour.
func parseTimeRange(c echo.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.Add(-1 * time.Hour)
	to := now

	if raw := c.QueryParam("from"); raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'from' timestamp: %s", raw)
		}
		from = time.Unix(unix, 0)
	}
	if raw := c.QueryParam("to"); raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'to' timestamp: %s", raw)
		}
		to = time.Unix(unix, 0)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("'to' must not be before 'from'")
	}
	return from, to, nil
}

func positiveIntParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid '%s' parameter: %s", name, raw)
	}
	return value, nil
}

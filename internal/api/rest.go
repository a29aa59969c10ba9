package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ilosync/ilosync/internal/cache"
	"github.com/ilosync/ilosync/internal/executor"
	"github.com/ilosync/ilosync/internal/history"
	"github.com/ilosync/ilosync/internal/hwerr"
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/ilosync/ilosync/internal/overrides"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	indentationChar = "  "
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}

	// snapshotResponse is the envelope for all cached reads. Pending is true
	// until the first successful poll; Stale signals advisory staleness and
	// never blocks the data.
	snapshotResponse struct {
		Data      interface{} `json:"data,omitempty"`
		FetchedAt *time.Time  `json:"fetchedAt,omitempty"`
		Stale     bool        `json:"stale"`
		Pending   bool        `json:"pending"`
		LastError string      `json:"lastError,omitempty"`
	}
)

// Deps are the engine components the route layer talks to. The handlers hold
// no state of their own.
type Deps struct {
	Cache       *cache.Cache
	Executor    *executor.Executor
	Invalidator *cache.Invalidator
	History     *history.Store
	Ledger      *overrides.Ledger
}

func CreateRestService(deps *Deps) *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())

	echoRest.Use(middleware.Logger())
	echoRest.Use(middleware.Recover())
	echoRest.Use(echoprometheus.NewMiddleware("ilosync"))

	echoRest.GET("/alive/", isAlive)

	registerSensorEndpoints(echoRest, deps)
	registerFanEndpoints(echoRest, deps)
	registerPowerEndpoints(echoRest, deps)
	registerPidEndpoints(echoRest, deps)
	registerHistoryEndpoints(echoRest, deps)

	// active overrides across all domains
	echoRest.GET("/overrides/", func(c echo.Context) error {
		active := deps.Ledger.Active()
		if active == nil {
			active = []overrides.Override{}
		}
		return c.JSONPretty(http.StatusOK, active, indentationChar)
	})

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// readSnapshot answers a cached read. It never triggers remote I/O.
func readSnapshot(c echo.Context, deps *Deps, domain ilo.Domain) error {
	result := deps.Cache.Read(domain)
	if !result.Ready {
		response := snapshotResponse{Pending: true}
		if result.LastError != nil {
			response.LastError = result.LastError.Error()
		}
		return c.JSONPretty(http.StatusOK, &response, indentationChar)
	}

	response := snapshotResponse{
		Data:      result.Data,
		FetchedAt: &result.FetchedAt,
		Stale:     result.Stale,
	}
	if result.LastError != nil {
		response.LastError = result.LastError.Error()
	}
	return c.JSONPretty(http.StatusOK, &response, indentationChar)
}

// return a "bad request" message
func returnBadRequest(c echo.Context, message string) error {
	return c.JSONPretty(http.StatusBadRequest, &Result{
		Name:    "Bad Request",
		Message: message,
	}, indentationChar)
}

// returnCommandError maps engine error kinds onto HTTP status codes.
func returnCommandError(c echo.Context, e error) error {
	var engineErr *hwerr.Error
	if !errors.As(e, &engineErr) {
		return returnError(c, e)
	}

	switch engineErr.Kind() {
	case hwerr.KindValidation:
		return returnBadRequest(c, e.Error())
	case hwerr.KindCommandTimeout:
		return c.JSONPretty(http.StatusGatewayTimeout, &Result{
			Name:    "Command Timeout",
			Message: e.Error(),
		}, indentationChar)
	case hwerr.KindCommandRejected, hwerr.KindRemoteUnreachable:
		return c.JSONPretty(http.StatusBadGateway, &Result{
			Name:    "Controller Error",
			Message: e.Error(),
		}, indentationChar)
	}
	return returnError(c, e)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}

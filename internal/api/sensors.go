package api

import (
	"net/http"

	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/labstack/echo/v4"
)

type (
	overrideRequest struct {
		SensorId string  `json:"sensorId"`
		Value    float64 `json:"value"`
	}

	lowLimitRequest struct {
		Id    string `json:"id"`
		Limit int    `json:"limit"`
	}
)

func registerSensorEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/sensor")

	group.GET("/", func(c echo.Context) error {
		return readSnapshot(c, deps, ilo.DomainSensors)
	})

	group.POST("/override/", func(c echo.Context) error {
		var request overrideRequest
		if err := c.Bind(&request); err != nil {
			return returnBadRequest(c, err.Error())
		}
		if err := deps.Executor.OverrideSensor(c.Request().Context(), request.SensorId, request.Value); err != nil {
			return returnCommandError(c, err)
		}
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "OK",
			Message: "Sensor override applied",
		}, indentationChar)
	})

	group.POST("/reset/", func(c echo.Context) error {
		if err := deps.Executor.ResetOverrides(c.Request().Context()); err != nil {
			return returnCommandError(c, err)
		}
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "OK",
			Message: "Sensor overrides cleared",
		}, indentationChar)
	})

	group.POST("/low-limit/", func(c echo.Context) error {
		var request lowLimitRequest
		if err := c.Bind(&request); err != nil {
			return returnBadRequest(c, err.Error())
		}
		if err := deps.Executor.SetSensorLowLimit(c.Request().Context(), request.Id, request.Limit); err != nil {
			return returnCommandError(c, err)
		}
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "OK",
			Message: "Sensor low limit set",
		}, indentationChar)
	})
}

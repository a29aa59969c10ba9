package api

import (
	"net/http"

	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/labstack/echo/v4"
)

type (
	setAllRequest struct {
		Speed int `json:"speed"`
	}

	lockFanRequest struct {
		FanId int `json:"fanId"`
		Speed int `json:"speed"`
	}
)

func registerFanEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/fan")

	group.GET("/", func(c echo.Context) error {
		return readSnapshot(c, deps, ilo.DomainFans)
	})

	group.POST("/set-all/", func(c echo.Context) error {
		var request setAllRequest
		if err := c.Bind(&request); err != nil {
			return returnBadRequest(c, err.Error())
		}
		if err := deps.Executor.SetAllFanSpeeds(c.Request().Context(), request.Speed); err != nil {
			return returnCommandError(c, err)
		}
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "OK",
			Message: "All fan speeds set",
		}, indentationChar)
	})

	group.POST("/lock/", func(c echo.Context) error {
		var request lockFanRequest
		if err := c.Bind(&request); err != nil {
			return returnBadRequest(c, err.Error())
		}
		if err := deps.Executor.LockFanAtSpeed(c.Request().Context(), request.FanId, request.Speed); err != nil {
			return returnCommandError(c, err)
		}
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "OK",
			Message: "Fan locked",
		}, indentationChar)
	})

	group.POST("/unlock/", func(c echo.Context) error {
		if err := deps.Executor.UnlockFanControl(c.Request().Context()); err != nil {
			return returnCommandError(c, err)
		}
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "OK",
			Message: "Fan control unlocked",
		}, indentationChar)
	})

	// manual eviction, no command issued: the entry is marked stale now and
	// re-polled after the settle delay
	group.POST("/invalidate-cache/", func(c echo.Context) error {
		deps.Invalidator.Invalidate(ilo.DomainFans)
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "OK",
			Message: "Fan cache invalidated",
		}, indentationChar)
	})
}

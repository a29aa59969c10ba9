package api

import (
	"net/http"

	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/labstack/echo/v4"
)

type pidLowLimitRequest struct {
	Id    int `json:"id"`
	Limit int `json:"limit"`
}

func registerPidEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/pid")

	group.GET("/", func(c echo.Context) error {
		return readSnapshot(c, deps, ilo.DomainPid)
	})

	group.POST("/low-limit/", func(c echo.Context) error {
		var request pidLowLimitRequest
		if err := c.Bind(&request); err != nil {
			return returnBadRequest(c, err.Error())
		}
		if err := deps.Executor.SetPidLowLimit(c.Request().Context(), request.Id, request.Limit); err != nil {
			return returnCommandError(c, err)
		}
		return c.JSONPretty(http.StatusOK, &Result{
			Name:    "OK",
			Message: "PID low limit set",
		}, indentationChar)
	})
}

package api

import (
	"github.com/ilosync/ilosync/internal/ilo"
	"github.com/labstack/echo/v4"
)

func registerPowerEndpoints(rest *echo.Echo, deps *Deps) {
	group := rest.Group("/power")

	group.GET("/", func(c echo.Context) error {
		return readSnapshot(c, deps, ilo.DomainPower)
	})
}

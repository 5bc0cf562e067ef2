package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/class"
	"github.com/shuleapp/shule/core/user"
)

type (
	dashboardApi struct {
		users   *user.Service
		classes *class.Service
	}

	Stats struct {
		TotalAdmins   int `json:"total_admins"`
		TotalTeachers int `json:"total_teachers"`
		TotalStudents int `json:"total_students"`
		TotalClasses  int `json:"total_classes"`
	}

	DashboardResponse struct {
		User  user.Profile `json:"user"`
		Stats *Stats       `json:"stats,omitempty"`
	}
)

func registerDashboards(app *echo.Echo, api *dashboardApi, gate func(user.Role) echo.MiddlewareFunc) {
	app.GET(auth.EntryPoint(user.RoleAdmin), api.adminDashboard, gate(user.RoleAdmin))
	app.GET(auth.EntryPoint(user.RoleTeacher), api.dashboard, gate(user.RoleTeacher))
	app.GET(auth.EntryPoint(user.RoleStudent), api.dashboard, gate(user.RoleStudent))
}

func (api *dashboardApi) collectStats(ctx context.Context) (Stats, error) {
	counts, err := api.users.CountByRole(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting users")
	}
	nClasses, err := api.classes.Count(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting classes")
	}
	return Stats{
		TotalAdmins:   counts[user.RoleAdmin],
		TotalTeachers: counts[user.RoleTeacher],
		TotalStudents: counts[user.RoleStudent],
		TotalClasses:  nClasses,
	}, nil
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	stats, err := api.collectStats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) adminDashboard(ctx echo.Context) error {
	usr, _ := getContextUser(ctx)
	stats, err := api.collectStats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DashboardResponse{User: usr, Stats: &stats})
}

func (api *dashboardApi) dashboard(ctx echo.Context) error {
	usr, _ := getContextUser(ctx)
	return ctx.JSON(http.StatusOK, DashboardResponse{User: usr})
}

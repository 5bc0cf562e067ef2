package client_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/shuleapp/shule/apps/api/echo"
	"github.com/shuleapp/shule/client"
	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/class"
	"github.com/shuleapp/shule/core/session"
	"github.com/shuleapp/shule/core/user"
	emailsvc "github.com/shuleapp/shule/services/email"
	inmemdb "github.com/shuleapp/shule/storage/database/inmem"
	"github.com/shuleapp/shule/testutil"
)

func newAPI(t *testing.T) (*httptest.Server, user.Repository) {
	t.Helper()
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)

	validate := core.NewValidator()
	user.InitValidators(validate)
	class.InitValidators(validate)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(logger, conf), conf)

	app := echoapi.NewServer(echoapi.Deps{
		Conf:      conf,
		Logger:    logger,
		Validator: validate,
		Auth: auth.NewAuthenticator(auth.Deps{
			Users:     usrSvc,
			Tokens:    session.NewTokens([]byte(conf.SecretKey), conf.Session.TTL, conf.AppName),
			Revoker:   session.NewMemoryRevoker(),
			Validator: validate,
			Logger:    logger,
		}),
		UserSvc:  usrSvc,
		ClassSvc: class.NewService(inmemdb.NewClassRepository(db), validate),
	})
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)
	return srv, usrRepo
}

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()
	srv, usrRepo := newAPI(t)
	teacher := testutil.CreateUser(t, usrRepo, "teacher@school.test", "Neema", "secret1", user.RoleTeacher)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c, err := client.New(srv.URL+"/", client.WithHTTPClient(&http.Client{Jar: jar}))
	require.NoError(t, err)

	status, profile := c.State()
	assert.Equal(t, client.StatusLoading, status)
	assert.Nil(t, profile)
	assert.Equal(t, auth.Decision{Reason: auth.ReasonPending}, c.Route(user.RoleTeacher))

	require.NoError(t, c.Load(ctx))
	status, _ = c.State()
	assert.Equal(t, client.StatusUnauthenticated, status)
	assert.Equal(t, auth.Decision{Reason: auth.ReasonUnauthenticated, Redirect: "/login"}, c.Route(user.RoleTeacher))

	_, err = c.Login(ctx, "teacher@school.test", "secret2")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid email or password", apiErr.Message)
	status, _ = c.State()
	assert.Equal(t, client.StatusUnauthenticated, status)

	got, err := c.Login(ctx, "teacher@school.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, teacher.Profile(), got)
	assert.True(t, c.Route(user.RoleTeacher).Admit)
	d := c.Route(user.RoleStudent)
	assert.False(t, d.Admit)
	assert.Equal(t, "/teacher-dashboard", d.Redirect)

	// a fresh page load reuses the cookie
	reloaded, err := client.New(srv.URL, client.WithHTTPClient(&http.Client{Jar: jar}))
	require.NoError(t, err)
	require.NoError(t, reloaded.Load(ctx))
	status, profile = reloaded.State()
	assert.Equal(t, client.StatusAuthenticated, status)
	assert.Equal(t, teacher.Profile(), *profile)

	require.NoError(t, c.SignOut(ctx))
	status, _ = c.State()
	assert.Equal(t, client.StatusUnauthenticated, status)
}

func TestClientSignup(t *testing.T) {
	ctx := context.Background()
	srv, _ := newAPI(t)
	c, err := client.New(srv.URL)
	require.NoError(t, err)

	_, err = c.Signup(ctx, user.NewUser{Email: "new@school.test", Password: "secret1", FullName: "New"})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "all fields are required", apiErr.Message)
	assert.Equal(t, map[string]string{"role": "this field is required"}, apiErr.Fields)

	profile, err := c.Signup(ctx, user.NewUser{Email: "new@school.test", Password: "secret1", FullName: "New", Role: "student"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, profile.Role)
	assert.True(t, c.Route(user.RoleStudent).Admit)

	// Load is a no-op once resolved
	require.NoError(t, c.Load(ctx))
	status, _ := c.State()
	assert.Equal(t, client.StatusAuthenticated, status)
}

func TestClientUnreachable(t *testing.T) {
	srv, _ := newAPI(t)
	c, err := client.New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	assert.Error(t, c.Load(context.Background()))
	status, _ := c.State()
	assert.Equal(t, client.StatusUnauthenticated, status)
}

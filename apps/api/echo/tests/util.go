package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/shuleapp/shule/apps/api/echo"
	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/class"
	"github.com/shuleapp/shule/core/session"
	"github.com/shuleapp/shule/core/user"
	emailsvc "github.com/shuleapp/shule/services/email"
	metricsvc "github.com/shuleapp/shule/services/metrics"
	inmemdb "github.com/shuleapp/shule/storage/database/inmem"
	"github.com/shuleapp/shule/testutil"
)

var errUnauthorized = httpErr{Error: "unauthorized"}

type env struct {
	app      *echoapi.Server
	conf     *core.Config
	db       *inmemdb.DB
	usrRepo  user.Repository
	clsRepo  class.Repository
	mailSvc  *emailsvc.ConsoleServiceMock
	tokens   *session.Tokens
	registry *prometheus.Registry
}

func setup(t *testing.T) *env {
	t.Helper()
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	clsRepo := inmemdb.NewClassRepository(db)

	// set up services
	validate := core.NewValidator()
	user.InitValidators(validate)
	class.InitValidators(validate)

	mailSvc := emailsvc.NewConsoleServiceMock(logger, conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	clsSvc := class.NewService(clsRepo, validate)

	registry := prometheus.NewRegistry()
	metrics := metricsvc.New(registry)
	tokens := session.NewTokens([]byte(conf.SecretKey), conf.Session.TTL, conf.AppName)
	authn := auth.NewAuthenticator(auth.Deps{
		Users:     usrSvc,
		Tokens:    tokens,
		Revoker:   session.NewMemoryRevoker(),
		Validator: validate,
		Logger:    logger,
		Recorder:  metrics,
	})

	// set up server
	app := echoapi.NewServer(echoapi.Deps{
		Conf:      conf,
		Logger:    logger,
		Validator: validate,
		Auth:      authn,
		UserSvc:   usrSvc,
		ClassSvc:  clsSvc,
		Metrics:   metrics,
		Gatherer:  registry,
	})

	return &env{
		app:      app,
		conf:     conf,
		db:       db,
		usrRepo:  usrRepo,
		clsRepo:  clsRepo,
		mailSvc:  mailSvc,
		tokens:   tokens,
		registry: registry,
	}
}

// do serves one request, presenting cookie when not nil.
func (e *env) do(method, path string, cookie *http.Cookie, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.app.ServeHTTP(rec, req)
	return rec
}

// loginCookie opens a session for usr without going through the login endpoint.
func (e *env) loginCookie(t *testing.T, usr user.User) *http.Cookie {
	t.Helper()
	token, _, err := e.tokens.Issue(usr.ID)
	if err != nil {
		t.Fatalf("loginCookie() failed: %v", err)
	}
	return &http.Cookie{Name: e.conf.Session.CookieName, Value: token}
}

// sessionCookie returns the session cookie set by the response, if any.
func sessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	cookie   *http.Cookie
	wantCode int
	wantData []byte
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, e *env, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			checkCodeAndData(t, tt, e.do(method, tt.path, tt.cookie, tt.body))
		})
	}
}

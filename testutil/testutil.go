// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"context"
	"io"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/user"
	logsvc "github.com/shuleapp/shule/services/logger"
)

// NewConfig returns the configuration used by tests.
func NewConfig() *core.Config {
	return &core.Config{
		Debug:                     false,
		TestMode:                  true,
		Env:                       core.EnvTest,
		Build:                     "test",
		AppName:                   "Shule",
		SecretKey:                 "test-secret-key-test-secret-key-0123",
		FrontendBaseURL:           "http://school.test",
		DefaultFromEmail:          mail.Address{Name: "Shule", Address: "noreply@school.test"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
		},
		Session: core.SessionConfig{
			CookieName: "auth-token",
			TTL:        7 * 24 * time.Hour,
		},
		Database: core.DatabaseConfig{Engine: "memory"},
	}
}

// NewLogger returns a logger that discards everything and never reports to Rollbar.
func NewLogger(conf *core.Config) core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	l.Enable(false)
	return l
}

func CreateUser(t *testing.T, repo user.Repository, email, name, pwd string, role user.Role, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Email:     email,
		FullName:  name,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Carrier is an in-memory session.Carrier playing the role of a browser cookie jar.
type Carrier struct {
	Token   string
	Present bool
	Stores  int
	Clears  int
	Fail    error // returned by Store when set
}

func (c *Carrier) Store(token string) error {
	if c.Fail != nil {
		return c.Fail
	}
	c.Token, c.Present = token, true
	c.Stores++
	return nil
}

func (c *Carrier) Retrieve() (string, bool) {
	if !c.Present || c.Token == "" {
		return "", false
	}
	return c.Token, true
}

func (c *Carrier) Clear() {
	c.Token, c.Present = "", false
	c.Clears++
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/user"
	emailsvc "github.com/shuleapp/shule/services/email"
	inmemdb "github.com/shuleapp/shule/storage/database/inmem"
	"github.com/shuleapp/shule/testutil"
)

type migration struct {
	command string
	args    []string
}

func setup(t *testing.T) (*commandLine, user.Repository, *[]migration) {
	t.Helper()
	conf := testutil.NewConfig()
	usrRepo := inmemdb.NewUserRepository(inmemdb.Open())
	validate := core.NewValidator()
	user.InitValidators(validate)

	var migrations []migration
	cli := &commandLine{
		usrSvc:   user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(testutil.NewLogger(conf), conf), conf),
		validate: validate,
		migrate: func(_ context.Context, command string, args ...string) error {
			if command == "lol" {
				return fmt.Errorf("%q: no such command", command)
			}
			migrations = append(migrations, migration{command: command, args: args})
			return nil
		},
		out: io.Discard,
	}
	return cli, usrRepo, &migrations
}

// stubPasswords makes the prompts answer pwds in order.
func stubPasswords(t *testing.T, pwds ...string) {
	t.Helper()
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })
	readPasswordFunc = func(int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, nil
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwds    []string
	wantErr error
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPasswords(t, tt.pwds...)
			err := cli.run(context.Background(), append([]string{"admin"}, tt.args...))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, _ := setup(t)
	var out bytes.Buffer
	cli.out = &out

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-username", "lol"}, wantErr: errHelp},
	})
	assert.Contains(t, out.String(), "resetpassword -email EMAIL")
}

func Test_commandLine_addUser(t *testing.T) {
	cli, usrRepo, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "head@school.test", "-name", "Head"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-email", "head@school.test", "-name", "Head", "-role", "superuser"}, pwds: []string{"secret1"}, wantErr: user.ErrInvalidRole},
		{name: "invalid email", args: []string{"adduser", "-email", "head", "-name", "Head"}, pwds: []string{"secret1"}, wantErr: core.ErrInvalidInput},
		{name: "admin by default", args: []string{"adduser", "-email", "head@school.test", "-name", "Head"}, pwds: []string{"secret1"}},
		{name: "teacher", args: []string{"adduser", "-email", "neema@school.test", "-name", "Neema", "-role", "teacher"}, pwds: []string{"secret1"}},
		{name: "duplicate", args: []string{"adduser", "-email", "HEAD@school.test", "-name", "Head"}, pwds: []string{"secret1"}, wantErr: user.ErrEmailExists},
	})

	counts, err := usrRepo.CountUsersByRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[user.Role]int{user.RoleAdmin: 1, user.RoleTeacher: 1}, counts)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo, _ := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "amani@school.test", "Amani Kariuki", "secret1", user.RoleTeacher)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "mismatch", args: []string{"resetpassword", "-email", usr.Email}, pwds: []string{"Gr4de-Book!", "Gr4de-Book?"}, wantErr: errPasswordMismatch},
		{name: "weak", args: []string{"resetpassword", "-email", usr.Email}, pwds: []string{"password", "password"}, wantErr: core.ErrInvalidInput},
		{name: "user not found", args: []string{"resetpassword", "-email", "nobody@school.test"}, pwds: []string{"Gr4de-Book!", "Gr4de-Book!"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "AMANI@school.test"}, pwds: []string{"Gr4de-Book!", "Gr4de-Book!"}},
	})

	refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.CheckPassword("Gr4de-Book!"))
	assert.Equal(t, user.RoleTeacher, refreshed.Role)
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, migrations := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "status", args: []string{"migrate", "status"}},
	})
	assert.Equal(t, []migration{{command: "up", args: []string{}}, {command: "up-to", args: []string{"2"}}, {command: "status", args: []string{}}}, *migrations)

	err := cli.run(context.Background(), []string{"admin", "migrate", "lol"})
	assert.EqualError(t, err, `"lol": no such command`)
}

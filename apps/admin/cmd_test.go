package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
	aisvc "github.com/AmelJaballah/SmartLearn-mern-project/services/ai"
	logsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/logger"
	inmemdb "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/inmem"
)

func newTestCLI(t *testing.T, aiURL string) (*commandLine, *bytes.Buffer) {
	t.Helper()
	mem, err := inmemdb.Open()
	require.NoError(t, err)

	out := new(bytes.Buffer)
	return &commandLine{
		db:      &sql.DB{},
		usrRepo: inmemdb.NewUserRepository(mem),
		ai: aisvc.NewClient(aisvc.NewRegistry(core.AIConfig{
			ExerciseURL:   aiURL,
			ChatURL:       aiURL,
			SentimentURL:  aiURL,
			HealthTimeout: 2 * time.Second,
		}), logsvc.NewNopLogger()),
		out: out,
	}, out
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func TestCommandLine_help(t *testing.T) {
	cli, out := newTestCLI(t, "http://localhost:1")

	for _, args := range [][]string{
		{"admin"},
		{"admin", "unknown"},
		{"admin", "migrate"},
		{"admin", "adduser"},
		{"admin", "resetpassword"},
	} {
		out.Reset()
		assert.Equal(t, errHelp, cli.run(args), args)
		assert.Contains(t, out.String(), "Usage", args)
	}
}

func TestCommandLine_migrate(t *testing.T) {
	cli, _ := newTestCLI(t, "http://localhost:1")

	var gotCmd string
	var gotArgs []string
	orig := migrateFunc
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		gotCmd, gotArgs = command, args
		return nil
	}
	defer func() { migrateFunc = orig }()

	require.NoError(t, cli.run([]string{"admin", "migrate", "down-to", "3"}))
	assert.Equal(t, "down-to", gotCmd)
	assert.Equal(t, []string{"3"}, gotArgs)

	cli.db = nil
	assert.Equal(t, errNoDatabase, cli.run([]string{"admin", "migrate", "up"}))
}

func TestCommandLine_addUser(t *testing.T) {
	cli, _ := newTestCLI(t, "http://localhost:1")
	ctx := context.Background()

	t.Run("missing password", func(t *testing.T) {
		mockPassword(t, "")
		assert.Equal(t, errHelp, cli.run([]string{"admin", "adduser", "-username", "jdoe"}))
	})

	t.Run("create admin", func(t *testing.T) {
		mockPassword(t, "s3cret")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-username", " JDoe ", "-email", "JDoe@Example.com", "-admin"}))

		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "jdoe"})
		require.NoError(t, err)
		assert.Equal(t, "jdoe@example.com", usr.Email)
		assert.ElementsMatch(t, user.AllRoles, usr.Roles)
		assert.True(t, usr.Active())
		assert.NoError(t, usr.CheckPassword("s3cret"))
	})

	t.Run("update existing", func(t *testing.T) {
		mockPassword(t, "other")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", "jdoe@example.com", "-professor"}))

		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "jdoe"})
		require.NoError(t, err)
		assert.Equal(t, []string{user.RoleProfessor}, usr.Roles)
		assert.NoError(t, usr.CheckPassword("other"))

		users, err := cli.usrRepo.QueryUsers(ctx, &user.QueryFilter{}, nil)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("read password fails", func(t *testing.T) {
		orig := readPasswordFunc
		readPasswordFunc = func(int) ([]byte, error) { return nil, io.ErrUnexpectedEOF }
		defer func() { readPasswordFunc = orig }()

		assert.Equal(t, io.ErrUnexpectedEOF, cli.run([]string{"admin", "adduser", "-username", "x"}))
	})
}

func TestCommandLine_resetPassword(t *testing.T) {
	cli, _ := newTestCLI(t, "http://localhost:1")
	ctx := context.Background()

	mockPassword(t, "first")
	require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "jane"}))

	mockPassword(t, "second")
	require.NoError(t, cli.run([]string{"admin", "resetpassword", "-username", "JANE"}))

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "jane"})
	require.NoError(t, err)
	assert.Error(t, usr.CheckPassword("first"))
	assert.NoError(t, usr.CheckPassword("second"))

	err = cli.run([]string{"admin", "resetpassword", "-username", "ghost"})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestCommandLine_aiHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"model not loaded"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy","model":"mistral"}`)
	}))
	defer srv.Close()

	cli, out := newTestCLI(t, srv.URL)

	require.NoError(t, cli.run([]string{"admin", "aihealth"}))
	assert.Contains(t, out.String(), `"overall": "healthy"`)
	assert.Contains(t, out.String(), `"model": "mistral"`)

	healthy.Store(false)
	out.Reset()
	assert.Equal(t, errAIUnhealthy, cli.run([]string{"admin", "aihealth"}))
	assert.Contains(t, out.String(), `"overall": "degraded"`)
}

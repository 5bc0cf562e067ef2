package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/user"
)

func TestRollbarLogger(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		log       func(l *RollbarLogger)
		want      []string
		wantEmpty bool
	}{
		{
			name: "error with args",
			log: func(l *RollbarLogger) {
				l.Error("loading session user", errors.New("db down"), user.Profile{ID: "1", Email: "a@x.com"})
			},
			want: []string{"[ERROR] loading session user", "db down"},
		},
		{
			name:  "debug in debug mode",
			debug: true,
			log:   func(l *RollbarLogger) { l.Debug("session token rejected") },
			want:  []string{"[DEBUG] session token rejected"},
		},
		{
			name:      "debug outside debug mode",
			log:       func(l *RollbarLogger) { l.Debug("session token rejected") },
			wantEmpty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Debug: tt.debug, Env: core.EnvTest})
			l.Enable(false)

			tt.log(l)

			if tt.wantEmpty {
				assert.Empty(t, buf.String())
				return
			}
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
			assert.NotContains(t, buf.String(), "a@x.com", "profiles are reported to rollbar, not printed")
		})
	}
}

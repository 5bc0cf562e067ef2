package metricsvc

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/user"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestRecorder(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Login(auth.OutcomeSuccess)
	m.Login(auth.OutcomeRejected)
	m.Login(auth.OutcomeRejected)
	m.Signup(auth.OutcomeInvalid)
	m.SignOut()
	m.Session(auth.OutcomeAbsent)
	m.Gate(user.RoleAdmin, auth.OutcomeWrongRole)

	tests := []struct {
		name    string
		counter prometheus.Counter
		want    float64
	}{
		{name: "login success", counter: m.LoginsTotal.WithLabelValues("success"), want: 1},
		{name: "login rejected", counter: m.LoginsTotal.WithLabelValues("rejected"), want: 2},
		{name: "signup invalid", counter: m.SignupsTotal.WithLabelValues("invalid"), want: 1},
		{name: "signouts", counter: m.SignOutsTotal, want: 1},
		{name: "session absent", counter: m.SessionsTotal.WithLabelValues("absent"), want: 1},
		{name: "gate", counter: m.GateTotal.WithLabelValues("admin", "wrong_role"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, counterValue(t, tt.counter))
		})
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveRequest("POST", "/api/auth/login", 200, 30*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `shule_http_request_duration_seconds_count{code="200",method="POST",route="/api/auth/login"} 1`)
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("POST", "/api/auth/login", 200, 15*time.Millisecond)
	m.ObserveRequest("POST", "/api/auth/login", 200, 25*time.Millisecond)
	m.ObserveRequest("POST", "/api/auth/login", 400, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("POST", "/api/auth/login", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("POST", "/api/auth/login", "400")))
}

func TestMetrics_OTP(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OTPIssued("signup")
	m.OTPIssued("signup")
	m.OTPIssued("login")
	m.OTPDeliveryFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.otpIssued.WithLabelValues("signup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.otpIssued.WithLabelValues("login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mailFailures))
}

func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	second := New(reg)

	first.OTPIssued("request")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.otpIssued.WithLabelValues("request")))
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_PanicsOnConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "otp_delivery_failures_total",
		Help:      "Conflicting help text",
	}))

	assert.Panics(t, func() { New(reg) })
}

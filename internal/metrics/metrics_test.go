package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"pintu/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveWorkflow(t *testing.T) {
	m := New("pintu")

	m.ObserveWorkflow(WorkflowRegister, nil)
	m.ObserveWorkflow(WorkflowRegister, nil)
	m.ObserveWorkflow(WorkflowRegister, &services.AccountError{Kind: services.ErrDuplicateUsername})
	m.ObserveWorkflow(WorkflowLogin, errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.workflows.WithLabelValues(WorkflowRegister, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workflows.WithLabelValues(WorkflowRegister, "duplicate_username")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workflows.WithLabelValues(WorkflowLogin, "error")))
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New("pintu")
	m.ObserveWorkflow(WorkflowChangePassword, &services.AccountError{Kind: services.ErrPasswordTooWeak})

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `pintu_account_workflow_total{outcome="password_too_weak",workflow="change_password"} 1`)
}

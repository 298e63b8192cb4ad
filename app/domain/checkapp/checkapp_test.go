package checkapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcpaschoal/tenantauth/business/sdk/web"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, check checker, path string) *httptest.ResponseRecorder {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", func(context.Context) string { return "" })

	api := newApp("test-build", log, check)

	app := web.NewApp(log.Info)
	app.HandlerFuncNoMid(http.MethodGet, "", "/liveness", api.liveness)
	app.HandlerFuncNoMid(http.MethodGet, "", "/readiness", api.readiness)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func Test_Liveness(t *testing.T) {
	w := serve(t, nil, "/liveness")
	require.Equal(t, http.StatusOK, w.Code)

	var info Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "up", info.Status)
	assert.Equal(t, "test-build", info.Build)
	assert.Positive(t, info.GOMAXPROCS)
}

func Test_Readiness(t *testing.T) {
	w := serve(t, func(context.Context) error { return nil }, "/readiness")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, func(context.Context) error { return errors.New("connection refused") }, "/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

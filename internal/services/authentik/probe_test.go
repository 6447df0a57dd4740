package authentik

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeFlow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case flowExecutorPath + DefaultAuthFlow + "/":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"component":"ak-stage-identification"}`))
		case userInfoPath:
			w.WriteHeader(http.StatusUnauthorized)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	d := NewFlowDriver(Config{BaseURL: srv.URL}, nil, nil)
	auth, enrollment := d.FlowSlugs()
	assert.Equal(t, DefaultAuthFlow, auth)
	assert.Equal(t, DefaultEnrollmentFlow, enrollment)

	assert.NoError(t, d.ProbeFlow(context.Background(), auth))
	assert.ErrorContains(t, d.ProbeFlow(context.Background(), enrollment), "status 404")
	assert.NoError(t, d.ProbeUserInfo(context.Background()))
}

func TestProbe_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	d := NewFlowDriver(Config{BaseURL: base}, nil, nil)
	assert.Error(t, d.ProbeFlow(context.Background(), DefaultAuthFlow))
	assert.Error(t, d.ProbeUserInfo(context.Background()))
}

package metrics

import (
	"net/http"
	"time"
)

// InstrumentTransport wraps base so that every round trip is recorded against
// upstream. A nil base uses http.DefaultTransport.
func InstrumentTransport(upstream string, rec Recorder, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &instrumentedTransport{upstream: upstream, rec: OrNop(rec), base: base}
}

type instrumentedTransport struct {
	upstream string
	rec      Recorder
	base     http.RoundTripper
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.rec.RecordUpstreamRequest(t.upstream, status, time.Since(start))
	return resp, err
}

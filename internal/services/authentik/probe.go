package authentik

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// FlowSlugs returns the authentication and enrollment flow slugs in use.
func (d *FlowDriver) FlowSlugs() (auth, enrollment string) {
	return d.cfg.AuthFlow, d.cfg.EnrollmentFlow
}

// ProbeFlow checks that the flow executor serves slug. It starts a flow in a
// throwaway session and submits nothing.
func (d *FlowDriver) ProbeFlow(ctx context.Context, slug string) error {
	s, err := d.newSession(slug)
	if err != nil {
		return err
	}
	var c challenge
	status, err := s.get(ctx, s.flowURL, &c)
	if err != nil {
		return fmt.Errorf("flow %q: %w", slug, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("flow %q returned status %d", slug, status)
	}
	return nil
}

// ProbeUserInfo checks that the userinfo endpoint answers. Without a token
// Authentik replies 401 or 403, which counts as reachable.
func (d *FlowDriver) ProbeUserInfo(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.BaseURL+userInfoPath, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Transport: d.transport, Timeout: d.cfg.RevokeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusForbidden:
		return nil
	default:
		return fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
}

// Package authentik drives Authentik's flow executor for login and signup and
// resolves bearer tokens to identities.
package authentik

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/benvon/newsfeed/internal/logger"
	"github.com/benvon/newsfeed/internal/metrics"
	"github.com/benvon/newsfeed/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultAuthFlow       = "default-authentication-flow"
	DefaultEnrollmentFlow = "newsfeed-enrollment"
	DefaultTimeout        = 15 * time.Second
	DefaultRevokeTimeout  = 10 * time.Second

	flowLogin  = "login"
	flowSignup = "signup"

	maxResponseBytes = 1 << 20
)

// Config configures a FlowDriver. Zero values fall back to the defaults above.
type Config struct {
	BaseURL        string
	ClientID       string
	AuthFlow       string
	EnrollmentFlow string
	Timeout        time.Duration
	RevokeTimeout  time.Duration
	// Transport is the base round tripper; nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.AuthFlow == "" {
		c.AuthFlow = DefaultAuthFlow
	}
	if c.EnrollmentFlow == "" {
		c.EnrollmentFlow = DefaultEnrollmentFlow
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RevokeTimeout <= 0 {
		c.RevokeTimeout = DefaultRevokeTimeout
	}
	return c
}

// FlowDriver performs login, signup and logout against Authentik.
// It is safe for concurrent use; every login and signup gets its own cookie jar.
type FlowDriver struct {
	cfg       Config
	transport http.RoundTripper
	logger    *zap.Logger
	metrics   metrics.Recorder
}

// NewFlowDriver creates a driver. logger and rec may be nil.
func NewFlowDriver(cfg Config, log *zap.Logger, rec metrics.Recorder) *FlowDriver {
	cfg = cfg.withDefaults()
	rec = metrics.OrNop(rec)
	return &FlowDriver{
		cfg:       cfg,
		transport: metrics.InstrumentTransport(metrics.UpstreamAuthentik, rec, cfg.Transport),
		logger:    logger.OrNop(log),
		metrics:   rec,
	}
}

// Login authenticates username and password through the authentication flow.
func (d *FlowDriver) Login(ctx context.Context, username, password string) Outcome {
	out := d.login(ctx, username, password)
	d.record(flowLogin, username, out)
	return out
}

func (d *FlowDriver) login(ctx context.Context, username, password string) Outcome {
	s, err := d.newSession(d.cfg.AuthFlow)
	if err != nil {
		return internal("An unexpected error occurred during login")
	}

	var c challenge
	status, err := s.get(ctx, s.flowURL, &c)
	if err != nil {
		return loginFailure(err)
	}
	if status != http.StatusOK {
		d.logger.Error("auth_flow_init_failed", zap.Int("status", status))
		return serviceUnavailable("")
	}

	st := loginAfterInit(c)
	for !st.done() {
		switch st.action {
		case actionSubmitIdentification:
			c, err = s.submit(ctx, map[string]string{
				"component": componentIdentification,
				"uid_field": username,
				"password":  password,
			})
			if err != nil {
				return loginFailure(err)
			}
			st = loginAfterIdentification(c)
		case actionSubmitPassword:
			c, err = s.submit(ctx, map[string]string{
				"component": componentPassword,
				"password":  password,
			})
			if err != nil {
				return loginFailure(err)
			}
			st = loginAfterPassword(c)
		case actionFetchUser:
			var me struct {
				User *models.ProviderUser `json:"user"`
			}
			status, err := s.get(ctx, d.cfg.BaseURL+currentUserPath, &me)
			if err != nil {
				return loginFailure(err)
			}
			return loginAfterUser(status, me.User)
		default:
			return internal("An unexpected error occurred during login")
		}
	}
	return st.outcome
}

// Signup registers a new account through the enrollment flow.
func (d *FlowDriver) Signup(ctx context.Context, username, email, password string) Outcome {
	out := d.signup(ctx, username, email, password)
	d.record(flowSignup, username, out)
	return out
}

func (d *FlowDriver) signup(ctx context.Context, username, email, password string) Outcome {
	s, err := d.newSession(d.cfg.EnrollmentFlow)
	if err != nil {
		return internal("An unexpected error occurred during registration")
	}

	var c challenge
	status, err := s.get(ctx, s.flowURL, &c)
	if err != nil {
		return signupFailure(err)
	}
	switch {
	case status == http.StatusNotFound:
		d.logger.Error("enrollment_flow_not_found", zap.String("flow", d.cfg.EnrollmentFlow))
		return serviceUnavailable("User registration is not configured")
	case status != http.StatusOK:
		d.logger.Error("enrollment_flow_init_failed", zap.Int("status", status))
		return serviceUnavailable("Registration service unavailable")
	}

	st := signupAfterInit(c)
	if st.done() {
		return st.outcome
	}

	c, err = s.submit(ctx, map[string]string{
		"component":       st.component,
		"username":        username,
		"email":           email,
		"password":        password,
		"password_repeat": password,
	})
	if err != nil {
		return signupFailure(err)
	}
	return classifySignup(c)
}

func (d *FlowDriver) record(flow, username string, out Outcome) {
	d.metrics.RecordFlowOutcome(flow, out.Kind.String())

	fields := []zap.Field{
		zap.String("flow", flow),
		zap.String("username", logger.SanitizeString(username, logger.MaxUserIDLength)),
		zap.String("outcome", out.Kind.String()),
	}
	switch out.Kind {
	case OutcomeSuccess:
		if out.User != nil {
			fields = append(fields, zap.String("user_id", logger.SanitizeUserID(string(out.User.PK))))
		}
		d.logger.Info("auth_flow_completed", fields...)
	case OutcomeServiceUnavailable, OutcomeInternal, OutcomeIncomplete:
		d.logger.Error("auth_flow_failed", append(fields, zap.String("message", out.Message))...)
	default:
		d.logger.Warn("auth_flow_rejected", append(fields, zap.String("message", out.Message))...)
	}
}

// RevocationAttempted reports what happened to a best-effort revocation.
// It is logged and never returned to API clients.
type RevocationAttempted struct {
	Attempted  bool
	OK         bool
	StatusCode int
	Err        error
}

// Logout asks Authentik to revoke token. Failures are recorded in the result only.
func (d *FlowDriver) Logout(ctx context.Context, token string) RevocationAttempted {
	if token == "" {
		d.logger.Debug("logout_without_token")
		return RevocationAttempted{}
	}

	res := d.revoke(ctx, token)
	if res.OK {
		d.logger.Debug("token_revocation_sent", zap.Int("status", res.StatusCode))
	} else {
		d.logger.Debug("token_revocation_failed",
			zap.Int("status", res.StatusCode),
			zap.Error(res.Err),
		)
	}
	return res
}

func (d *FlowDriver) revoke(ctx context.Context, token string) RevocationAttempted {
	res := RevocationAttempted{Attempted: true}

	form := url.Values{}
	form.Set("token", token)
	form.Set("client_id", d.cfg.ClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+revokePath, strings.NewReader(form.Encode()))
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Transport: d.transport, Timeout: d.cfg.RevokeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	res.StatusCode = resp.StatusCode
	res.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !res.OK {
		res.Err = fmt.Errorf("revocation returned status %d", resp.StatusCode)
	}
	return res
}

const (
	flowExecutorPath = "/api/v3/flows/executor/"
	currentUserPath  = "/api/v3/core/users/me/"
	userInfoPath     = "/application/o/userinfo/"
	revokePath       = "/application/o/revoke/"
)

// session is one logical flow conversation. It must not be shared between calls.
type session struct {
	client  *http.Client
	flowURL string
}

func (d *FlowDriver) newSession(slug string) (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &session{
		client: &http.Client{
			Jar:       jar,
			Transport: d.transport,
			Timeout:   d.cfg.Timeout,
		},
		flowURL: d.cfg.BaseURL + flowExecutorPath + url.PathEscape(slug) + "/?query=",
	}, nil
}

// transportError marks failures that happened before a response was received.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "transport: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (e *transportError) timeout() bool {
	if errors.Is(e.err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.err, &netErr) && netErr.Timeout()
}

// get decodes the body into dst only for 200 responses.
func (s *session) get(ctx context.Context, target string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	return s.do(req, dst, true)
}

// submit posts a stage payload to the flow and decodes the next challenge.
func (s *session) submit(ctx context.Context, payload any) (challenge, error) {
	var c challenge
	body, err := json.Marshal(payload)
	if err != nil {
		return c, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.flowURL, bytes.NewReader(body))
	if err != nil {
		return c, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	_, err = s.do(req, &c, false)
	return c, err
}

func (s *session) do(req *http.Request, dst any, onlyOK bool) (int, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if onlyOK && resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return resp.StatusCode, &transportError{err: err}
		}
		return resp.StatusCode, fmt.Errorf("failed to decode flow response: %w", err)
	}
	return resp.StatusCode, nil
}

func loginFailure(err error) Outcome {
	return failureOutcome(err,
		"Authentication service is temporarily unavailable",
		"Unable to connect to authentication service",
		"An unexpected error occurred during login")
}

func signupFailure(err error) Outcome {
	return failureOutcome(err,
		"Registration service is temporarily unavailable",
		"Unable to connect to registration service",
		"An unexpected error occurred during registration")
}

func failureOutcome(err error, timeoutMsg, connectMsg, internalMsg string) Outcome {
	var te *transportError
	if !errors.As(err, &te) {
		return internal(internalMsg)
	}
	if te.timeout() {
		return serviceUnavailable(timeoutMsg)
	}
	return serviceUnavailable(connectMsg)
}

package authentik

import (
	"net/http"
	"strings"

	"github.com/benvon/newsfeed/internal/models"
)

// Stage component identifiers emitted by the flow executor.
const (
	componentIdentification = "ak-stage-identification"
	componentPassword       = "ak-stage-password"
	componentPrompt         = "ak-stage-prompt"
	componentAccessDenied   = "ak-stage-access-denied"
	componentFlowRedirect   = "xak-flow-redirect"
	componentAuthValidate   = "ak-stage-authenticator-validate"
	componentAuthTOTP       = "ak-stage-authenticator-totp"

	challengeTypeRedirect = "redirect"
)

// mfaComponents are second-factor stages this service cannot complete.
var mfaComponents = map[string]bool{
	componentAuthValidate: true,
	componentAuthTOTP:     true,
}

// challenge is one flow executor response.
type challenge struct {
	Type           string                  `json:"type"`
	Component      string                  `json:"component"`
	ErrorMessage   string                  `json:"error_message"`
	ResponseErrors map[string][]fieldError `json:"response_errors"`
}

type fieldError struct {
	String string `json:"string"`
	Code   string `json:"code"`
}

func (c challenge) isRedirect() bool {
	return c.Type == challengeTypeRedirect || c.Component == componentFlowRedirect
}

// hasResponseErrors reports whether the response_errors key was present.
func (c challenge) hasResponseErrors() bool {
	return c.ResponseErrors != nil
}

// firstError returns the first message reported for field, if any.
func (c challenge) firstError(field string) (string, bool) {
	errs := c.ResponseErrors[field]
	if len(errs) == 0 {
		return "", false
	}
	return errs[0].String, true
}

func (c challenge) fieldMessages() map[string][]string {
	out := make(map[string][]string, len(c.ResponseErrors))
	for field, errs := range c.ResponseErrors {
		for _, e := range errs {
			out[field] = append(out[field], e.String)
		}
	}
	return out
}

// action is what the driver must do next to advance a flow.
type action int

const (
	actionFinish action = iota
	actionSubmitIdentification
	actionSubmitPassword
	actionFetchUser
	actionSubmitRegistration
)

// step is the result of one transition: either another action, or a final outcome
// when action is actionFinish.
type step struct {
	action    action
	component string
	outcome   Outcome
}

func next(a action) step { return step{action: a} }

func nextWith(a action, component string) step {
	return step{action: a, component: component}
}

func finish(o Outcome) step { return step{action: actionFinish, outcome: o} }

func (s step) done() bool { return s.action == actionFinish }

// loginAfterInit decides how to proceed from the initial authentication challenge.
// A missing component is treated as identification. Any other stage is
// classified directly.
func loginAfterInit(c challenge) step {
	if c.Component == componentIdentification || (c.Component == "" && !c.isRedirect()) {
		return next(actionSubmitIdentification)
	}
	return classifyLogin(c)
}

// loginAfterIdentification handles providers that split identification and password
// into two stages.
func loginAfterIdentification(c challenge) step {
	if c.Component == componentPassword {
		return next(actionSubmitPassword)
	}
	return classifyLogin(c)
}

// loginAfterPassword classifies the response to the password submission.
func loginAfterPassword(c challenge) step {
	return classifyLogin(c)
}

// classifyLogin applies the login rules in priority order. Unknown stages fail
// closed as invalid credentials.
func classifyLogin(c challenge) step {
	if c.Component == componentAccessDenied {
		return finish(invalidCredentials(""))
	}
	if c.hasResponseErrors() {
		if msg, ok := c.firstError("non_field_errors"); ok {
			if msg == "" {
				msg = "Authentication failed"
			}
			return finish(invalidCredentials(msg))
		}
		return finish(invalidCredentials(""))
	}
	if mfaComponents[c.Component] {
		return finish(mfaRequired())
	}
	if c.isRedirect() {
		return next(actionFetchUser)
	}
	return finish(invalidCredentials(""))
}

// loginAfterUser finishes a login once the current-user lookup has returned.
func loginAfterUser(status int, user *models.ProviderUser) Outcome {
	if status != http.StatusOK || user == nil {
		return invalidCredentials("")
	}
	if user.PK == "" {
		return internal("Identity provider returned a user without an identifier")
	}
	return success(user, "")
}

// signupAfterInit decides whether the enrollment flow accepts a submission.
func signupAfterInit(c challenge) step {
	if c.Component == componentAccessDenied {
		return finish(accessDenied("Registration is currently disabled"))
	}
	component := c.Component
	if component == "" {
		component = componentPrompt
	}
	return nextWith(actionSubmitRegistration, component)
}

// signupFieldPriority is the order in which field errors decide the outcome.
var signupFieldPriority = []struct {
	field    string
	conflict bool
	fallback string
}{
	{field: "username", conflict: true, fallback: "Username is already taken"},
	{field: "email", conflict: true, fallback: "Email is already registered"},
	{field: "password", fallback: "Password does not meet requirements"},
	{field: "non_field_errors", fallback: "Registration failed"},
}

// classifySignup maps the response to the registration submission onto an outcome.
func classifySignup(c challenge) Outcome {
	if c.hasResponseErrors() {
		fields := c.fieldMessages()
		for _, p := range signupFieldPriority {
			msg, ok := c.firstError(p.field)
			if !ok {
				continue
			}
			if msg == "" {
				msg = p.fallback
			}
			if p.conflict {
				return conflict(msg)
			}
			return validationErrors(msg, fields)
		}
		return validationErrors("", fields)
	}

	if c.Component == componentAccessDenied {
		lower := strings.ToLower(c.ErrorMessage)
		if strings.Contains(lower, "update user") || strings.Contains(lower, "already") {
			return conflict("Username or email is already taken")
		}
		msg := c.ErrorMessage
		if msg == "" {
			msg = "Registration is currently disabled"
		}
		return accessDenied(msg)
	}

	if c.isRedirect() {
		return success(nil, SignupSuccessMessage)
	}

	return incomplete()
}

// SignupSuccessMessage is returned to clients after a completed enrollment.
const SignupSuccessMessage = "Account created successfully. You can now log in."

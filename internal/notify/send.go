package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/sznuper/krark/internal/config"
)

const (
	WhenAlways  = "always"
	WhenFailure = "failure"
)

// Target holds a fully resolved notification ready to send.
type Target struct {
	URL     string
	Message string
}

// Service returns the URL scheme, used to name the target in logs.
func (t Target) Service() string {
	scheme, _, _ := strings.Cut(t.URL, "://")
	return scheme
}

// Applies reports whether a target with the given when setting fires for a
// run whose outcome is ok. An empty when means failure.
func Applies(when string, ok bool) bool {
	if when == WhenAlways {
		return true
	}
	return !ok
}

// ResolveTargets renders one message per configured target that applies to
// the run. Template variables inside param values are rendered too, and the
// params are folded into the service URL.
func ResolveTargets(refs []config.NotifyTarget, data MessageData) ([]Target, error) {
	var targets []Target

	for i, ref := range refs {
		if !Applies(ref.When, data.OK) {
			continue
		}

		tmplStr := DefaultTemplate
		if ref.Template != "" {
			tmplStr = ref.Template
		}

		msg, err := Render(tmplStr, data)
		if err != nil {
			return nil, fmt.Errorf("rendering template for notify[%d]: %w", i, err)
		}

		params := make(map[string]string, len(ref.Params))
		for k, v := range ref.Params {
			rendered, err := Render(v, data)
			if err != nil {
				return nil, fmt.Errorf("rendering param %q for notify[%d]: %w", k, i, err)
			}
			params[k] = rendered
		}

		u, err := applyParams(ref.URL, params)
		if err != nil {
			return nil, fmt.Errorf("notify[%d]: %w", i, err)
		}

		targets = append(targets, Target{URL: u, Message: msg})
	}

	return targets, nil
}

// applyParams merges params into the query string of rawURL. Existing query
// keys are overridden.
func applyParams(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing service url: %w", err)
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send delivers a notification to a single target via Shoutrrr.
func Send(t Target) error {
	sender, err := shoutrrr.CreateSender(t.URL)
	if err != nil {
		return fmt.Errorf("creating sender for %s: %w", t.Service(), err)
	}

	params := types.Params{}
	errs := sender.Send(t.Message, &params)
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("sending to %s: %w", t.Service(), e)
		}
	}

	return nil
}

// Validate builds the sender without sending anything, for dry runs.
func Validate(t Target) error {
	if _, err := shoutrrr.CreateSender(t.URL); err != nil {
		return fmt.Errorf("invalid service url for %s: %w", t.Service(), err)
	}
	return nil
}

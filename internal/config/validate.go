package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and returns the first problem found.
// Missing credentials are reported before anything else so the CLI can
// stop before any network call.
func (c *Config) Validate() error {
	if !c.Credentials.Complete() {
		return ErrMissingCredentials
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// MaxDelay == 0 disables the pause, whatever MinDelay says.
	if c.MinDelay < 0 || c.MaxDelay < 0 || (c.MaxDelay > 0 && c.MinDelay > c.MaxDelay) {
		return ErrInvalidDelay
	}

	if c.MaxForumPages < 1 {
		return ErrInvalidMaxForumPages
	}

	if c.DetailFile == "" || c.SummaryFile == "" {
		return ErrMissingOutputFile
	}

	if c.Proxy != "" {
		if err := validateProxy(c.Proxy); err != nil {
			return err
		}
	}

	if err := validate.Struct(c.Endpoints); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEndpoint, describe(err))
	}

	if err := validate.Struct(c.Notify); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidNotify, describe(err))
	}
	if c.Notify.Enabled() && c.Notify.From == "" {
		return fmt.Errorf("%w: from address is required", ErrInvalidNotify)
	}

	return nil
}

func validateProxy(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidProxy
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
		return nil
	default:
		return ErrInvalidProxy
	}
}

// describe turns validator errors into "Field (tag)" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MinPollInterval is the shortest poll interval accepted.
const MinPollInterval = time.Second

// Validate checks every setting and reports all problems at once.
func (c *AppConfig) Validate() error {
	errs := &ValidationErrors{}

	errs.Add(validateServer(c.Server))

	if strings.TrimSpace(c.Customer) == "" {
		errs.Add(NewFieldError("customer", c.Customer, fmt.Errorf("%w: customer is required", ErrInvalidConfig)))
	}

	for field, path := range map[string]string{
		"update_path": c.UpdatePath,
		"row_path":    c.RowPath,
		"table_path":  c.TablePath,
		"hub_path":    c.HubPath,
	} {
		errs.Add(ValidatePath(field, path))
	}

	if c.PollInterval != 0 && c.PollInterval < MinPollInterval {
		errs.Add(NewFieldError("poll_interval", c.PollInterval.String(),
			fmt.Errorf("%w: must be at least %s", ErrInvalidConfig, MinPollInterval)))
	}
	if c.RequestTimeout < 0 {
		errs.Add(NewFieldError("request_timeout", c.RequestTimeout.String(),
			fmt.Errorf("%w: must not be negative", ErrInvalidConfig)))
	}
	if c.MessageLimit < 0 {
		errs.Add(NewFieldError("message_limit", fmt.Sprint(c.MessageLimit),
			fmt.Errorf("%w: must not be negative", ErrInvalidConfig)))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateServer(server string) error {
	if strings.TrimSpace(server) == "" {
		return NewFieldError("server", server, fmt.Errorf("%w: server is required", ErrInvalidConfig))
	}
	u, err := url.Parse(server)
	if err != nil {
		return NewFieldError("server", server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewFieldError("server", server, fmt.Errorf("%w: scheme must be http or https", ErrInvalidConfig))
	}
	if u.Host == "" {
		return NewFieldError("server", server, fmt.Errorf("%w: host is required", ErrInvalidConfig))
	}
	return nil
}

// ValidatePath checks an endpoint path. Empty paths fall back to defaults.
func ValidatePath(field, path string) error {
	if path == "" {
		return nil
	}
	if strings.ContainsRune(path, '\x00') {
		return NewFieldError(field, path, fmt.Errorf("%w: path contains null byte", ErrInvalidConfig))
	}
	if !strings.HasPrefix(path, "/") {
		return NewFieldError(field, path, fmt.Errorf("%w: path must start with /", ErrInvalidConfig))
	}
	return nil
}

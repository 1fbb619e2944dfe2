package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// FieldError reports an invalid configuration value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return &FieldError{Field: "server.addr", Reason: "must be set"}
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return &FieldError{Field: "server.shutdown_timeout", Reason: "must not be negative"}
	}

	if err := validateURL("service.endpoint", cfg.Service.Endpoint); err != nil {
		return err
	}
	if err := validateURL("service.status_endpoint", cfg.Service.StatusEndpoint); err != nil {
		return err
	}
	if cfg.Service.RequestTimeout < 0 {
		return &FieldError{Field: "service.request_timeout", Reason: "must not be negative"}
	}
	if cfg.Service.ProbeTimeout <= 0 {
		return &FieldError{Field: "service.probe_timeout", Reason: "must be positive"}
	}

	if cfg.Validation.SizeWarningThresholdBytes <= 0 {
		return &FieldError{Field: "validation.size_warning_threshold_bytes", Reason: "must be positive"}
	}
	if cfg.Validation.SizeAckTimeout <= 0 {
		return &FieldError{Field: "validation.size_ack_timeout", Reason: "must be positive"}
	}
	if len(cfg.Validation.SupportedTypes) == 0 {
		return &FieldError{Field: "validation.supported_types", Reason: "must list at least one MIME type"}
	}
	for i, t := range cfg.Validation.SupportedTypes {
		if !strings.Contains(strings.TrimSpace(t), "/") {
			return &FieldError{Field: fmt.Sprintf("validation.supported_types[%d]", i), Reason: fmt.Sprintf("%q is not a MIME type", t)}
		}
	}

	if cfg.Preview.TTL <= 0 {
		return &FieldError{Field: "preview.ttl", Reason: "must be positive"}
	}
	if cfg.Progress.DetectingFacesAfter < 0 || cfg.Progress.AnalyzingAfter < cfg.Progress.DetectingFacesAfter {
		return &FieldError{Field: "progress", Reason: "markers must be scheduled in order"}
	}
	if cfg.Console.MaxSelectionBytes <= 0 {
		return &FieldError{Field: "console.max_selection_bytes", Reason: "must be positive"}
	}

	return nil
}

func validateURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &FieldError{Field: field, Reason: "must be set"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &FieldError{Field: field, Reason: fmt.Sprintf("is not a valid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &FieldError{Field: field, Reason: "must use http or https"}
	}
	if u.Host == "" {
		return &FieldError{Field: field, Reason: "must include a host"}
	}
	return nil
}

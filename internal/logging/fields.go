package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldSweep    = "sweep"
	FieldTenant   = "tenant"
	FieldSource   = "source"
	FieldLogType  = "log_type"
	FieldUsername = "username"
	FieldIP       = "ip"
	FieldError    = "error"
)

// Sweep returns a slog attribute naming a background sweep.
func Sweep(name string) slog.Attr {
	return slog.String(FieldSweep, name)
}

// Tenant returns a slog attribute for a tenant name.
func Tenant(name string) slog.Attr {
	return slog.String(FieldTenant, name)
}

// Username returns a slog attribute for the username.
func Username(name string) slog.Attr {
	return slog.String(FieldUsername, name)
}

// IP returns a slog attribute for an IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

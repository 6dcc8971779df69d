package ldap

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Logging subsystems.
const (
	SubsystemResolver  = "resolver"
	SubsystemConverter = "converter"
)

// Logger interface for resolver and converter passes.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Trace(msg string, fields map[string]any)
}

var _ Logger = (*TFLogger)(nil)

// TFLogger wraps tflog for one subsystem. Fields are sanitized before logging.
type TFLogger struct {
	ctx       context.Context
	subsystem string
}

// NewTFLogger creates a new logger bound to a context and subsystem.
func NewTFLogger(ctx context.Context, subsystem string) *TFLogger {
	return &TFLogger{
		ctx:       ctx,
		subsystem: subsystem,
	}
}

func (l *TFLogger) Debug(msg string, fields map[string]any) {
	tflog.SubsystemDebug(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

func (l *TFLogger) Warn(msg string, fields map[string]any) {
	tflog.SubsystemWarn(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

func (l *TFLogger) Error(msg string, fields map[string]any) {
	tflog.SubsystemError(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

func (l *TFLogger) Trace(msg string, fields map[string]any) {
	tflog.SubsystemTrace(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

// NewLoggingContext registers the resolver and converter subsystems on ctx.
// Levels follow LDAP_RESOLVER_LOG and LDAP_CONVERTER_LOG.
func NewLoggingContext(ctx context.Context) context.Context {
	ctx = tflog.NewSubsystem(ctx, SubsystemResolver,
		tflog.WithLevelFromEnv("LDAP_RESOLVER_LOG"))
	return tflog.NewSubsystem(ctx, SubsystemConverter,
		tflog.WithLevelFromEnv("LDAP_CONVERTER_LOG"))
}

// LogOperation logs an operation with timing.
func LogOperation(ctx context.Context, subsystem, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()
	logger := NewTFLogger(ctx, subsystem)

	if fields == nil {
		fields = make(map[string]any)
	}
	fields["operation"] = operation

	logger.Debug("Starting operation", fields)

	err := fn()

	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		fields["error"] = err.Error()
		logger.Error("Operation failed", fields)
	} else {
		logger.Debug("Operation completed successfully", fields)
	}

	return err
}

// LogConversion logs one converted value at trace level.
// Values of sensitive attributes are redacted.
func LogConversion(ctx context.Context, attribute, direction string, before, after any) {
	fields := map[string]any{
		"attribute": attribute,
		"direction": direction,
		"input":     before,
		"output":    after,
	}

	if IsSensitiveAttribute(attribute) {
		fields["input"] = "[REDACTED]"
		fields["output"] = "[REDACTED]"
	}

	NewTFLogger(ctx, SubsystemResolver).Trace("Converted attribute value", fields)
}

// SanitizeFields removes sensitive information from log fields.
func SanitizeFields(fields map[string]any) map[string]any {
	sanitized := make(map[string]any, len(fields))

	for k, v := range fields {
		if isSensitiveKey(k) {
			sanitized[k] = "[REDACTED]"
			continue
		}

		if str, ok := v.(string); ok && containsSensitivePattern(str) {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}

	return sanitized
}

// IsSensitiveAttribute reports whether values of an attribute must never be logged.
func IsSensitiveAttribute(name string) bool {
	switch strings.ToLower(name) {
	case "password", "unicodepwd", "userpassword", "ntpwdhistory", "lmpwdhistory", "dbcspwd", "supplementalcredentials":
		return true
	default:
		return false
	}
}

func isSensitiveKey(key string) bool {
	switch strings.ToLower(key) {
	case "password", "passwd", "secret", "token", "credential", "credentials":
		return true
	default:
		return false
	}
}

// containsSensitivePattern checks if a string contains patterns that might be sensitive.
func containsSensitivePattern(s string) bool {
	patterns := []string{
		"password=",
		"passwd=",
		"secret=",
		"token=",
	}

	lower := strings.ToLower(s)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

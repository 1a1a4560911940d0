// Package logger is a levelled logger that masks secrets. Review output can
// quote source lines that contain credentials, so every message and string
// field goes through the mask before it is written.
package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents logging levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name. "warning" is accepted
// for "warn".
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Logger is a levelled logger with secret masking
type Logger struct {
	mu     *sync.Mutex // shared by derived loggers writing to the same output
	level  Level
	output io.Writer
	prefix string
	fields map[string]any
	now    func() time.Time
}

// Secret shapes masked in every message.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(sk-[a-zA-Z0-9]{20,})`),                                  // OpenAI
	regexp.MustCompile(`(AIza[a-zA-Z0-9_-]{35})`),                                // Google API
	regexp.MustCompile(`(gh[psoru]_[a-zA-Z0-9]{36})`),                            // GitHub tokens
	regexp.MustCompile(`(github_pat_[a-zA-Z0-9]{22}_[a-zA-Z0-9]{59})`),           // GitHub Fine-grained
	regexp.MustCompile(`(xox[bp]-[a-zA-Z0-9-]+)`),                                // Slack
	regexp.MustCompile(`(AKIA[A-Z0-9]{16})`),                                     // AWS Access Key
	regexp.MustCompile(`(?i)(Bearer\s+[a-zA-Z0-9._-]+)`),                         // Bearer tokens
	regexp.MustCompile(`(?i)(api[_-]?key\s*[=:]\s*["']?[a-zA-Z0-9_-]{8,}["']?)`), // Generic API key
	regexp.MustCompile(`(?i)(secret\s*[=:]\s*["']?[^\s"']{6,}["']?)`),            // Generic secret
	regexp.MustCompile(`(?i)(passw(?:or)?d\s*[=:]\s*["']?[^\s"']{4,}["']?)`),     // Passwords
	regexp.MustCompile(`(?i)(token\s*[=:]\s*["']?[a-zA-Z0-9._-]{16,}["']?)`),     // Generic tokens
	regexp.MustCompile(`-----BEGIN [A-Z ]+ PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+ PRIVATE KEY-----`),
}

// Sensitive field names that should be masked in structured logging
var sensitiveFieldNames = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"private_key":   true,
	"access_token":  true,
	"authorization": true,
	"credentials":   true,
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the default logger. It writes to stderr so stdout stays
// free for reports.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(LevelInfo, os.Stderr)
	})
	return defaultLogger
}

// New creates a new logger
func New(level Level, output io.Writer) *Logger {
	return &Logger{
		mu:     &sync.Mutex{},
		level:  level,
		output: output,
		fields: map[string]any{},
		now:    time.Now,
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *Logger) derive() *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{mu: l.mu, level: l.level, output: l.output, prefix: l.prefix, fields: l.fields, now: l.now}
}

// WithField returns a new logger with the field added
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a new logger with the fields added
func (l *Logger) WithFields(fields map[string]any) *Logger {
	d := l.derive()
	merged := make(map[string]any, len(d.fields)+len(fields))
	for k, v := range d.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	d.fields = merged
	return d
}

// WithPrefix returns a new logger with the prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	d := l.derive()
	d.prefix = prefix
	return d
}

// maskString masks a string showing only first and last 4 chars
func maskString(s string) string {
	if len(s) <= 8 {
		return "***MASKED***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

func mask(s string) string {
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllStringFunc(s, maskString)
	}
	return s
}

func maskValue(key string, value any) any {
	if IsSensitiveKey(key) {
		if str, ok := value.(string); ok {
			return maskString(str)
		}
		return "***MASKED***"
	}
	if str, ok := value.(string); ok {
		return mask(str)
	}
	return value
}

// formatFields renders fields as key=value in key order.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, maskValue(k, fields[k]))
	}
	return sb.String()
}

func (l *Logger) log(level Level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}

	fmt.Fprintf(l.output, "%s %s %s%s%s\n",
		l.now().Format("2006-01-02T15:04:05.000Z07:00"), level, prefix, mask(msg), formatFields(l.fields))
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.log(LevelError, msg, args...)
}

// Package-level functions using default logger

// SetLevel sets the level of the default logger
func SetLevel(level Level) {
	Default().SetLevel(level)
}

// SetOutput sets the output of the default logger
func SetOutput(w io.Writer) {
	Default().SetOutput(w)
}

// MaskSecrets masks all known secret patterns in a string
func MaskSecrets(s string) string {
	return mask(s)
}

// IsSensitiveKey checks if a key name is sensitive
func IsSensitiveKey(key string) bool {
	return sensitiveFieldNames[strings.ToLower(key)]
}

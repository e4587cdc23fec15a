package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	colorRed     = 31
	colorGreen   = 32
	colorYellow  = 33
	colorMagenta = 35
	colorBold    = 1
)

func colorize(s interface{}, c int) string {
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}

// levelColors maps zerolog level names to a short label and its color.
var levelColors = map[string]struct {
	label string
	color int
}{
	"trace": {"TRC", colorMagenta},
	"debug": {"DBG", colorYellow},
	"info":  {"INF", colorGreen},
	"warn":  {"WRN", colorRed},
	"error": {"ERR", colorRed},
	"fatal": {"FTL", colorRed},
	"panic": {"PNC", colorRed},
}

func formatLevel(i interface{}) string {
	name, ok := i.(string)
	if !ok {
		name = fmt.Sprintf("%v", i)
	}
	if lc, ok := levelColors[name]; ok {
		return colorize(lc.label, lc.color)
	}

	label := strings.ToUpper(name)
	if len(label) > 3 {
		label = label[:3]
	}
	return colorize(label, colorBold)
}

// New creates a logger for env at the given level. Development environments
// get colored console output, everything else JSON.
func New(env, level string) zerolog.Logger {
	var l zerolog.Logger
	if IsDevelopment(env) {
		l = NewDevelopment(os.Stderr)
	} else {
		l = NewProduction(os.Stderr)
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return l.Level(lvl)
}

// IsDevelopment reports whether env names a local development setup.
func IsDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

// NewDevelopment creates a development logger with console output and colors
func NewDevelopment(w io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:         w,
		TimeFormat:  "2006-01-02 15:04:05",
		FormatLevel: formatLevel,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// NewProduction creates a production logger with JSON output and UNIX timestamps
func NewProduction(w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(w).With().Timestamp().Logger()
}

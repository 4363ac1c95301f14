// Package infralog provides the two domain.Logger implementations used
// across the process: a dependency-free text/JSON logger for local
// development (adapted from pkg/infrastructure/logger.go's
// simpleLogger) and a zap-backed one for production (grounded in
// LerianStudio-midaz and r3e-network-service_layer, both of which
// default to zap for service-level logging).
package infralog

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coreidentity/authcore/pkg/domain"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

type format int

const (
	formatText format = iota
	formatJSON
)

// textLogger implements domain.Logger over stdlib log, in text or
// JSON form.
type textLogger struct {
	level  level
	format format
	out    *log.Logger
}

// NewTextLogger builds a domain.Logger backed by stdlib log. levelName
// is one of debug/info/warn/error/fatal (default info); formatName is
// text or json (default text).
func NewTextLogger(levelName, formatName string) domain.Logger {
	return &textLogger{
		level:  parseLevel(levelName),
		format: parseFormat(formatName),
		out:    log.New(os.Stdout, "", 0),
	}
}

func parseLevel(s string) level {
	switch strings.ToLower(s) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	case "fatal":
		return levelFatal
	default:
		return levelInfo
	}
}

func parseFormat(s string) format {
	if strings.ToLower(s) == "json" {
		return formatJSON
	}
	return formatText
}

func (l *textLogger) Debug(msg string, kv ...interface{}) {
	if l.level <= levelDebug {
		l.write("DEBUG", msg, kv...)
	}
}

func (l *textLogger) Debugf(format string, args ...interface{}) {
	if l.level <= levelDebug {
		l.write("DEBUG", fmt.Sprintf(format, args...))
	}
}

func (l *textLogger) Info(msg string, kv ...interface{}) {
	if l.level <= levelInfo {
		l.write("INFO", msg, kv...)
	}
}

func (l *textLogger) Infof(format string, args ...interface{}) {
	if l.level <= levelInfo {
		l.write("INFO", fmt.Sprintf(format, args...))
	}
}

func (l *textLogger) Warn(msg string, kv ...interface{}) {
	if l.level <= levelWarn {
		l.write("WARN", msg, kv...)
	}
}

func (l *textLogger) Warnf(format string, args ...interface{}) {
	if l.level <= levelWarn {
		l.write("WARN", fmt.Sprintf(format, args...))
	}
}

func (l *textLogger) Error(msg string, kv ...interface{}) {
	if l.level <= levelError {
		l.write("ERROR", msg, kv...)
	}
}

func (l *textLogger) Errorf(format string, args ...interface{}) {
	if l.level <= levelError {
		l.write("ERROR", fmt.Sprintf(format, args...))
	}
}

func (l *textLogger) Fatal(msg string, kv ...interface{}) {
	l.write("FATAL", msg, kv...)
	os.Exit(1)
}

func (l *textLogger) Fatalf(format string, args ...interface{}) {
	l.write("FATAL", fmt.Sprintf(format, args...))
	os.Exit(1)
}

func (l *textLogger) write(level, msg string, kv ...interface{}) {
	timestamp := time.Now().Format(time.RFC3339)
	if l.format == formatJSON {
		l.out.Println(renderJSON(timestamp, level, msg, kv...))
		return
	}
	l.out.Println(renderText(timestamp, level, msg, kv...))
}

func renderText(timestamp, level, msg string, kv ...interface{}) string {
	line := fmt.Sprintf("[%s] %s: %s", timestamp, level, msg)
	if pairs := pairStrings(kv...); len(pairs) > 0 {
		line += " " + strings.Join(pairs, " ")
	}
	return line
}

func renderJSON(timestamp, level, msg string, kv ...interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, `{"timestamp":"%s","level":"%s","message":%q`, timestamp, level, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, `,%q:%q`, fmt.Sprintf("%v", kv[i]), fmt.Sprintf("%v", kv[i+1]))
	}
	b.WriteString("}")
	return b.String()
}

func pairStrings(kv ...interface{}) []string {
	var pairs []string
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%v=%v", kv[i], kv[i+1]))
	}
	return pairs
}

// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"fmt"
	"strings"
	"time"
)

func (l *Logger) log(logLevel Level, s string) {
	if l == nil {
		return
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if logLevel < *l.settings.level {
		return
	}

	line := logLevel.ColouredString() + " "

	now := time.Now()
	line += now.Format("2006-01-02T15:04:05.000") + " "

	line += s

	callerString := getCallerString(l.settings.caller)
	if callerString != "" {
		line += "\t" + callerString
	}

	contextString := contextsToString(l.settings.context)
	if contextString != "" {
		line += "\t" + contextString
	}

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	_, _ = l.settings.writer.Write([]byte(line))
}

func contextsToString(contexts []contextKeyValues) (s string) {
	keyValues := make([]string, 0, len(contexts))
	for _, kvs := range contexts {
		value := strings.Join(kvs.values, ",")
		keyValues = append(keyValues, kvs.key+"="+value)
	}
	return strings.Join(keyValues, " ")
}

// Trace logs with the trace level.
func (l *Logger) Trace(s string) { l.log(Trace, s) }

// Debug logs with the debug level.
func (l *Logger) Debug(s string) { l.log(Debug, s) }

// Info logs with the info level.
func (l *Logger) Info(s string) { l.log(Info, s) }

// Warn logs with the warn level.
func (l *Logger) Warn(s string) { l.log(Warn, s) }

// Error logs with the error level.
func (l *Logger) Error(s string) { l.log(Error, s) }

// Critical logs with the critical level.
func (l *Logger) Critical(s string) { l.log(Critical, s) }

// Tracef formats and logs with the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.log(Trace, fmt.Sprintf(format, args...))
}

// Debugf formats and logs with the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(Debug, fmt.Sprintf(format, args...))
}

// Infof formats and logs with the info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(Info, fmt.Sprintf(format, args...))
}

// Warnf formats and logs with the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(Warn, fmt.Sprintf(format, args...))
}

// Errorf formats and logs with the error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(Error, fmt.Sprintf(format, args...))
}

// Criticalf formats and logs with the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.log(Critical, fmt.Sprintf(format, args...))
}

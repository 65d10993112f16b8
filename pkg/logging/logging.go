// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging is the user-visible message stream of the cw CLI.
// Messages go to stderr so that tables, YAML and container logs written to
// stdout stay pipeable.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

const echoField = "echo"

var (
	logger  = newLogger(os.Stderr)
	exitFn  = os.Exit
	palette = map[logrus.Level]*color.Color{
		logrus.DebugLevel: color.New(color.FgHiBlack),
		logrus.InfoLevel:  color.New(color.FgBlue),
		logrus.WarnLevel:  color.New(color.FgYellow),
		logrus.ErrorLevel: color.New(color.FgRed),
		logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	}
	successColor = color.New(color.FgGreen, color.Bold)
	echoColor    = color.New(color.Faint)
)

type messageFormatter struct {
	colored bool
}

func (f *messageFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := entry.Message
	if f.colored {
		switch {
		case entry.Data[echoField] == true:
			msg = echoColor.Sprint(msg)
		case entry.Data["success"] == true:
			msg = successColor.Sprint(msg)
		default:
			if c, ok := palette[entry.Level]; ok {
				msg = c.Sprint(msg)
			}
		}
	}
	return append([]byte(msg), '\n'), nil
}

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&messageFormatter{colored: isTerminal(out)})
	// Fatal exits through exitFn so the process status stays under our control.
	l.ExitFunc = func(code int) { exitFn(code) }
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetOutput redirects every message to w. Colors are kept only if w is a terminal.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
	logger.SetFormatter(&messageFormatter{colored: isTerminal(w)})
}

// SetColor forces colored output on or off.
func SetColor(enabled bool) {
	color.NoColor = !enabled
	logger.SetFormatter(&messageFormatter{colored: enabled})
}

// SetVerbose enables Debug messages.
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		return
	}
	logger.SetLevel(logrus.InfoLevel)
}

// Debug logs a message only shown with --verbose.
func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Info logs an informational message.
func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Success logs the completion of a user-facing step.
func Success(format string, args ...interface{}) {
	logger.WithField("success", true).Infof(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Error logs an error without exiting.
func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Fatal logs an error and exits with status 1.
func Fatal(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}

// Command echoes a cluster command line before it runs.
func Command(line string) {
	logger.WithField(echoField, true).Info(line)
}

// Plain writes an uncolored line, used for suggestions and hints.
func Plain(format string, args ...interface{}) {
	fmt.Fprintf(logger.Out, format+"\n", args...)
}

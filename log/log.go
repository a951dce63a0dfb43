// Copyright 2025 The Witness Contributors
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

// Package log is the logging facade used by every go-patchscan package.
// Library code never picks a logging backend; binaries install one with
// SetLogger. Until then all output is discarded.
package log

import "sync"

var (
	mu     sync.RWMutex
	logger Logger = SilentLogger{}
)

// Logger is used by go-patchscan packages to emit log lines.
type Logger interface {
	Errorf(format string, args ...interface{})
	Error(args ...interface{})
	Warnf(format string, args ...interface{})
	Warn(args ...interface{})
	Debugf(format string, args ...interface{})
	Debug(args ...interface{})
	Infof(format string, args ...interface{})
	Info(args ...interface{})
}

// SetLogger replaces the package wide logger. Passing nil restores the
// silent logger.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = SilentLogger{}
	}

	logger = l
}

// GetLogger returns the logger currently in use.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

func Error(args ...interface{}) {
	GetLogger().Error(args...)
}

func Warnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

func Warn(args ...interface{}) {
	GetLogger().Warn(args...)
}

func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

func Debug(args ...interface{}) {
	GetLogger().Debug(args...)
}

func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

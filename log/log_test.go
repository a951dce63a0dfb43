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

package log

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	SilentLogger
	lines []string
}

func (r *recordingLogger) Debugf(format string, args ...interface{}) {
	r.lines = append(r.lines, "debug: "+fmt.Sprintf(format, args...))
}

func (r *recordingLogger) Warn(args ...interface{}) {
	r.lines = append(r.lines, "warn: "+fmt.Sprint(args...))
}

func TestSetLogger(t *testing.T) {
	rec := &recordingLogger{}
	SetLogger(rec)
	defer SetLogger(nil)

	Debugf("scanned %d files", 3)
	Warn("slow verifier")
	Infof("dropped by the silent embedded logger")

	assert.Equal(t, []string{"debug: scanned 3 files", "warn: slow verifier"}, rec.lines)
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	SetLogger(&recordingLogger{})
	SetLogger(nil)
	_, ok := GetLogger().(SilentLogger)
	assert.True(t, ok, "nil logger should fall back to SilentLogger")
}

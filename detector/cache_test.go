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

package detector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingDetector struct {
	calls  atomic.Int32
	result VerifyResult
	err    error
}

func (c *countingDetector) Name() string { return "Counting" }

func (c *countingDetector) Analyze(string, int, string) ([]Candidate, error) { return nil, nil }

func (c *countingDetector) Verify(context.Context, string, string) (VerifyResult, error) {
	c.calls.Add(1)
	return c.result, c.err
}

func TestVerificationCache(t *testing.T) {
	inner := &countingDetector{result: VerifiedTrue}
	d := WithVerificationCache(inner, time.Minute)
	assert.Equal(t, "Counting", d.Name())

	for i := 0; i < 3; i++ {
		got, err := d.Verify(context.Background(), "secret", "line")
		assert.NoError(t, err)
		assert.Equal(t, VerifiedTrue, got)
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	_, _ = d.Verify(context.Background(), "secret", "other line")
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestVerificationCacheSkipsErrors(t *testing.T) {
	boom := errors.New("boom")
	inner := &countingDetector{err: boom}
	d := WithVerificationCache(inner, time.Minute)

	for i := 0; i < 2; i++ {
		got, err := d.Verify(context.Background(), "secret", "line")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, Unverified, got)
	}
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestVerificationCacheExpiry(t *testing.T) {
	inner := &countingDetector{result: VerifiedFalse}
	d := WithVerificationCache(inner, 10*time.Millisecond)

	_, _ = d.Verify(context.Background(), "secret", "line")
	time.Sleep(30 * time.Millisecond)
	_, _ = d.Verify(context.Background(), "secret", "line")
	assert.Equal(t, int32(2), inner.calls.Load())
}

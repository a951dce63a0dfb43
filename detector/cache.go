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
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// cachedDetector remembers verification outcomes so the same secret seen
// on many lines, or in many patches, is only checked once per ttl.
type cachedDetector struct {
	Detector
	ttl   time.Duration
	cache *ttlcache.Cache[string, VerifyResult]
}

// WithVerificationCache wraps d so that successful Verify results are cached
// for ttl, keyed by value and line content. Failed verifications are not
// cached.
func WithVerificationCache(d Detector, ttl time.Duration) Detector {
	return &cachedDetector{
		Detector: d,
		ttl:      ttl,
		cache: ttlcache.New[string, VerifyResult](
			ttlcache.WithDisableTouchOnHit[string, VerifyResult](),
		),
	}
}

func (c *cachedDetector) Verify(ctx context.Context, value, content string) (VerifyResult, error) {
	var lerr error
	loader := ttlcache.LoaderFunc[string, VerifyResult](
		func(cache *ttlcache.Cache[string, VerifyResult], key string) *ttlcache.Item[string, VerifyResult] {
			var result VerifyResult
			result, lerr = c.Detector.Verify(ctx, value, content)
			if lerr == nil {
				return cache.Set(key, result, c.ttl)
			}
			return nil
		},
	)

	item := c.cache.Get(value+"\x00"+content, ttlcache.WithLoader[string, VerifyResult](loader))
	if item != nil {
		return item.Value(), nil
	}

	return Unverified, lerr
}

// Init forwards to the wrapped detector.
func (c *cachedDetector) Init() error {
	if i, ok := c.Detector.(Initializer); ok {
		return i.Init()
	}

	return nil
}

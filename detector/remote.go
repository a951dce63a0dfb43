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
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultVerifyRate    = 5.0
	defaultClientTimeout = 15 * time.Second
	maxResponseBytes     = 64 << 10
)

// remoteVerifier holds what detectors need to confirm a secret against its
// issuing service.
type remoteVerifier struct {
	enabled bool
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

func newRemoteVerifier(baseURL string) remoteVerifier {
	return remoteVerifier{
		enabled: true,
		client:  &http.Client{Timeout: defaultClientTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultVerifyRate), 1),
		baseURL: baseURL,
	}
}

func (v *remoteVerifier) setRate(perSecond float64) error {
	if perSecond <= 0 {
		return fmt.Errorf("verify rate must be positive, got %v", perSecond)
	}

	v.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	return nil
}

// do waits for the rate limiter and performs req. The body is read fully,
// up to maxResponseBytes.
func (v *remoteVerifier) do(ctx context.Context, req *http.Request) (int, []byte, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	resp, err := v.client.Do(req.WithContext(ctx))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("error reading response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

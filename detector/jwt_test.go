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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWTVerify(t *testing.T) {
	d := NewJWT()
	tests := []struct {
		name  string
		token string
		want  VerifyResult
	}{
		{"valid", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.c2ln", Unverified},
		{"missing signature segment", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0", VerifiedFalse},
		{"unsupported algorithm", "eyJhbGciOiJub25lIn0.eyJzdWIiOiIxIn0.c2ln", VerifiedFalse},
		{"padded", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0=.c2ln", Unverified},
		{"claims not json", "eyJhbGciOiJIUzI1NiJ9.bm90IGpzb24.c2ln", VerifiedFalse},
		{"header not base64", "eyJ!!!.eyJzdWIiOiIxIn0", VerifiedFalse},
		{"single part", "eyJhbGciOiJIUzI1NiJ9", VerifiedFalse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Verify(context.Background(), tt.token, "")
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

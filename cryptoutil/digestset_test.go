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

package cryptoutil

import (
	"crypto"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hunterSHA256 = "20d2fe5e369db54ec7090639a9dc30ec4d608604936239d39e2de07fda09eb0b"
	hunterSHA1   = "60b3af8bfe3735623c7d4a5ef749bb6ac1a4413a"
)

func TestCalculateDigestSetFromBytes(t *testing.T) {
	ds, err := CalculateDigestSetFromBytes([]byte("hunter22"), []DigestValue{{Hash: crypto.SHA256}, {Hash: crypto.SHA1}})
	require.NoError(t, err)
	assert.Equal(t, hunterSHA256, ds[DigestValue{Hash: crypto.SHA256}])
	assert.Equal(t, hunterSHA1, ds[DigestValue{Hash: crypto.SHA1}])
	assert.Equal(t, []string{"sha1", "sha256"}, ds.Names())

	_, err = CalculateDigestSetFromBytes([]byte("x"), []DigestValue{{Hash: crypto.MD5}})
	assert.Error(t, err)
}

func TestDigestSetJSON(t *testing.T) {
	ds := DigestSet{{Hash: crypto.SHA256}: hunterSHA256}
	data, err := json.Marshal(ds)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sha256": "`+hunterSHA256+`"}`, string(data))

	var decoded DigestSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, ds.Equal(decoded))

	assert.Error(t, json.Unmarshal([]byte(`{"md4": "00"}`), &decoded))
}

func TestDigestSetEqual(t *testing.T) {
	a := DigestSet{{Hash: crypto.SHA256}: hunterSHA256, {Hash: crypto.SHA1}: hunterSHA1}
	assert.True(t, a.Equal(DigestSet{{Hash: crypto.SHA256}: hunterSHA256}))
	assert.False(t, a.Equal(DigestSet{{Hash: crypto.SHA256}: "00"}))
	assert.False(t, a.Equal(DigestSet{{Hash: crypto.SHA512}: "00"}))
}

func TestHashNames(t *testing.T) {
	name, err := HashToString(crypto.SHA512)
	require.NoError(t, err)
	assert.Equal(t, "sha512", name)

	h, err := HashFromString("sha256")
	require.NoError(t, err)
	assert.Equal(t, crypto.SHA256, h)

	_, err = HashFromString("md5")
	assert.Error(t, err)
	_, err = HashToString(crypto.MD5)
	assert.Error(t, err)
}

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

// Package cryptoutil computes digest sets used to identify secret values in
// reports without disclosing them.
package cryptoutil

import (
	"crypto"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

var (
	hashNames = map[DigestValue]string{
		{Hash: crypto.SHA256}: "sha256",
		{Hash: crypto.SHA1}:   "sha1",
		{Hash: crypto.SHA512}: "sha512",
	}

	hashesByName = map[string]DigestValue{
		"sha256": {Hash: crypto.SHA256},
		"sha1":   {Hash: crypto.SHA1},
		"sha512": {Hash: crypto.SHA512},
	}
)

type ErrUnsupportedHash string

func (e ErrUnsupportedHash) Error() string {
	return fmt.Sprintf("unsupported hash function: %v", string(e))
}

// DigestValue identifies one hash algorithm of a DigestSet.
type DigestValue struct {
	crypto.Hash
}

// DigestSet maps hash algorithms to hex encoded digests of the same data.
type DigestSet map[DigestValue]string

// HashToString returns the name of a supported hash.
func HashToString(h crypto.Hash) (string, error) {
	if name, ok := hashNames[DigestValue{Hash: h}]; ok {
		return name, nil
	}

	return "", ErrUnsupportedHash(h.String())
}

// HashFromString returns the hash with the given name.
func HashFromString(name string) (crypto.Hash, error) {
	if dv, ok := hashesByName[name]; ok {
		return dv.Hash, nil
	}

	return crypto.Hash(0), ErrUnsupportedHash(name)
}

// CalculateDigestSetFromBytes hashes data with every hash in hashes.
func CalculateDigestSetFromBytes(data []byte, hashes []DigestValue) (DigestSet, error) {
	ds := make(DigestSet, len(hashes))
	for _, dv := range hashes {
		if _, ok := hashNames[dv]; !ok {
			return nil, ErrUnsupportedHash(dv.Hash.String())
		}

		h := dv.New()
		if _, err := h.Write(data); err != nil {
			return nil, fmt.Errorf("error hashing data: %w", err)
		}

		ds[dv] = hex.EncodeToString(h.Sum(nil))
	}

	return ds, nil
}

// Equal reports whether both sets share at least one algorithm and every
// shared algorithm has the same digest.
func (ds DigestSet) Equal(second DigestSet) bool {
	matching := 0
	for dv, digest := range ds {
		other, ok := second[dv]
		if !ok {
			continue
		}

		if digest != other {
			return false
		}
		matching++
	}

	return matching > 0
}

// ToNameMap returns the digests keyed by hash name.
func (ds DigestSet) ToNameMap() (map[string]string, error) {
	nameMap := make(map[string]string, len(ds))
	for dv, digest := range ds {
		name, ok := hashNames[dv]
		if !ok {
			return nil, ErrUnsupportedHash(dv.Hash.String())
		}

		nameMap[name] = digest
	}

	return nameMap, nil
}

// Names returns the hash names in the set, sorted.
func (ds DigestSet) Names() []string {
	names := make([]string, 0, len(ds))
	for dv := range ds {
		if name, ok := hashNames[dv]; ok {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names
}

func NewDigestSet(digestsByName map[string]string) (DigestSet, error) {
	ds := make(DigestSet, len(digestsByName))
	for name, digest := range digestsByName {
		dv, ok := hashesByName[name]
		if !ok {
			return nil, ErrUnsupportedHash(name)
		}

		ds[dv] = digest
	}

	return ds, nil
}

func (ds DigestSet) MarshalJSON() ([]byte, error) {
	nameMap, err := ds.ToNameMap()
	if err != nil {
		return nil, err
	}

	return json.Marshal(nameMap)
}

func (ds *DigestSet) UnmarshalJSON(data []byte) error {
	var nameMap map[string]string
	if err := json.Unmarshal(data, &nameMap); err != nil {
		return err
	}

	newDs, err := NewDigestSet(nameMap)
	if err != nil {
		return err
	}

	*ds = newDs
	return nil
}

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

package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Configurer is the type-erased view of a ConfigOption.
type Configurer interface {
	Description() string
	Name() string
}

// Option lists the value types a ConfigOption may carry.
type Option interface {
	int | float64 | string | []string | bool | time.Duration
}

// ConfigOption describes one named, typed option of an entity and how to
// apply it.
type ConfigOption[T any, TOption Option] struct {
	name        string
	description string
	defaultVal  TOption
	setter      func(T, TOption) (T, error)
}

func (co ConfigOption[T, TOption]) Name() string {
	return co.name
}

func (co ConfigOption[T, TOption]) DefaultVal() TOption {
	return co.defaultVal
}

func (co ConfigOption[T, TOption]) Description() string {
	return co.description
}

func (co ConfigOption[T, TOption]) Setter() func(T, TOption) (T, error) {
	return co.setter
}

func IntConfigOption[T any](name, description string, defaultVal int, setter func(T, int) (T, error)) *ConfigOption[T, int] {
	return &ConfigOption[T, int]{
		name:        name,
		description: description,
		defaultVal:  defaultVal,
		setter:      setter,
	}
}

func FloatConfigOption[T any](name, description string, defaultVal float64, setter func(T, float64) (T, error)) *ConfigOption[T, float64] {
	return &ConfigOption[T, float64]{
		name:        name,
		description: description,
		defaultVal:  defaultVal,
		setter:      setter,
	}
}

func StringConfigOption[T any](name, description string, defaultVal string, setter func(T, string) (T, error)) *ConfigOption[T, string] {
	return &ConfigOption[T, string]{
		name:        name,
		description: description,
		defaultVal:  defaultVal,
		setter:      setter,
	}
}

func StringSliceConfigOption[T any](name, description string, defaultVal []string, setter func(T, []string) (T, error)) *ConfigOption[T, []string] {
	return &ConfigOption[T, []string]{
		name:        name,
		description: description,
		defaultVal:  defaultVal,
		setter:      setter,
	}
}

func BoolConfigOption[T any](name, description string, defaultVal bool, setter func(T, bool) (T, error)) *ConfigOption[T, bool] {
	return &ConfigOption[T, bool]{
		name:        name,
		description: description,
		defaultVal:  defaultVal,
		setter:      setter,
	}
}

func DurationConfigOption[T any](name, description string, defaultVal time.Duration, setter func(T, time.Duration) (T, error)) *ConfigOption[T, time.Duration] {
	return &ConfigOption[T, time.Duration]{
		name:        name,
		description: description,
		defaultVal:  defaultVal,
		setter:      setter,
	}
}

// DefaultString renders the default value of a Configurer for help output.
func DefaultString(c Configurer) string {
	switch o := c.(type) {
	case interface{ DefaultVal() int }:
		return strconv.Itoa(o.DefaultVal())
	case interface{ DefaultVal() float64 }:
		return strconv.FormatFloat(o.DefaultVal(), 'g', -1, 64)
	case interface{ DefaultVal() string }:
		return o.DefaultVal()
	case interface{ DefaultVal() bool }:
		if o.DefaultVal() {
			return "true"
		}
		return "false"
	case interface{ DefaultVal() time.Duration }:
		return o.DefaultVal().String()
	case interface{ DefaultVal() []string }:
		return strings.Join(o.DefaultVal(), ",")
	}

	return ""
}

// ParseValue converts a command line string to the value type of c, so the
// result can be passed in a config map.
func ParseValue(c Configurer, s string) (any, error) {
	switch c.(type) {
	case interface{ DefaultVal() int }:
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("option %s expects an int: %w", c.Name(), err)
		}
		return v, nil
	case interface{ DefaultVal() float64 }:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("option %s expects a number: %w", c.Name(), err)
		}
		return v, nil
	case interface{ DefaultVal() bool }:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("option %s expects a bool: %w", c.Name(), err)
		}
		return v, nil
	case interface{ DefaultVal() []string }:
		if s == "" {
			return []string{}, nil
		}
		return strings.Split(s, ","), nil
	}

	return s, nil
}

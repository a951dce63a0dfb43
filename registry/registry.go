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
	"sort"
	"time"

	"github.com/in-toto/go-patchscan/log"
)

// Registry exposes the available entities of one kind together with the
// configuration options each of them accepts. The CLI uses it to turn
// names and option maps from a config file into configured instances.
// A Registry is an ordinary value; callers create their own with New.
type Registry[T any] struct {
	entriesByName map[string]Entry[T]
}

// FactoryFunc creates a fresh instance of an entity.
type FactoryFunc[T any] func() T

// Entry describes one entity: its name, factory and options.
type Entry[T any] struct {
	Factory     FactoryFunc[T]
	Name        string
	Description string
	Options     []Configurer
}

// New returns an empty Registry.
func New[T any]() Registry[T] {
	return Registry[T]{
		entriesByName: make(map[string]Entry[T]),
	}
}

// Register adds an Entry for an entity, replacing any previous entry with the
// same name.
func (r Registry[T]) Register(name, description string, factoryFunc FactoryFunc[T], opts ...Configurer) Entry[T] {
	entry := Entry[T]{
		Name:        name,
		Description: description,
		Factory:     factoryFunc,
		Options:     opts,
	}

	r.entriesByName[name] = entry
	return entry
}

// Options returns the options of the entity with the provided name. The
// boolean is false when no such entity is registered.
func (r Registry[T]) Options(name string) ([]Configurer, bool) {
	entry, ok := r.entriesByName[name]
	return entry.Options, ok
}

// Entry returns the Entry for the entity with the provided name.
func (r Registry[T]) Entry(name string) (Entry[T], bool) {
	entry, ok := r.entriesByName[name]
	return entry, ok
}

// AllEntries returns every Entry sorted by name.
func (r Registry[T]) AllEntries() []Entry[T] {
	results := make([]Entry[T], 0, len(r.entriesByName))
	for _, registration := range r.entriesByName {
		results = append(results, registration)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// Names returns the registered names sorted alphabetically.
func (r Registry[T]) Names() []string {
	names := make([]string, 0, len(r.entriesByName))
	for name := range r.entriesByName {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// NewEntity creates a new entity with default option values applied, then
// runs optSetters over it in order.
func (r Registry[T]) NewEntity(name string, optSetters ...func(T) (T, error)) (T, error) {
	var result T
	entry, ok := r.Entry(name)
	if !ok {
		return result, fmt.Errorf("could not find entry with name %v", name)
	}

	result, err := SetDefaultVals(entry.Factory(), entry.Options)
	if err != nil {
		return result, fmt.Errorf("could not set default values: %w", err)
	}

	return SetOptions(result, optSetters...)
}

// NewEntityFromConfigMap creates a new entity and sets options from
// configMap, keyed by option name.
func (r Registry[T]) NewEntityFromConfigMap(name string, configMap map[string]any) (T, error) {
	var result T
	entry, ok := r.Entry(name)
	if !ok {
		return result, fmt.Errorf("could not find entry with name %v", name)
	}

	result, err := SetDefaultVals(entry.Factory(), entry.Options)
	if err != nil {
		return result, fmt.Errorf("could not set default values: %w", err)
	}

	return SetOptionsFromConfigMap(result, entry.Options, configMap)
}

func SetOptions[T any](entity T, optSetters ...func(T) (T, error)) (T, error) {
	var err error
	result := entity
	for _, setter := range optSetters {
		result, err = setter(result)
		if err != nil {
			return result, err
		}
	}

	return result, err
}

// SetDefaultVals calls the setter of every option with its default value.
func SetDefaultVals[T any](entity T, opts []Configurer) (T, error) {
	var err error

	for _, opt := range opts {
		switch o := opt.(type) {
		case *ConfigOption[T, int]:
			entity, err = o.Setter()(entity, o.DefaultVal())
		case *ConfigOption[T, float64]:
			entity, err = o.Setter()(entity, o.DefaultVal())
		case *ConfigOption[T, string]:
			entity, err = o.Setter()(entity, o.DefaultVal())
		case *ConfigOption[T, []string]:
			entity, err = o.Setter()(entity, o.DefaultVal())
		case *ConfigOption[T, bool]:
			entity, err = o.Setter()(entity, o.DefaultVal())
		case *ConfigOption[T, time.Duration]:
			entity, err = o.Setter()(entity, o.DefaultVal())
		}

		if err != nil {
			return entity, err
		}
	}

	return entity, nil
}

// SetOptionsFromConfigMap applies the values in configMap to entity. Values
// decoded from YAML, JSON or the environment are coerced to the option's
// type where that is lossless: whole numbers for int options, any number
// for float options, and duration strings for duration options.
func SetOptionsFromConfigMap[T any](entity T, configurers []Configurer, configMap map[string]any) (T, error) {
	optsByName := make(map[string]Configurer)
	for _, opt := range configurers {
		optsByName[opt.Name()] = opt
	}

	names := make([]string, 0, len(configMap))
	for name := range configMap {
		names = append(names, name)
	}
	sort.Strings(names)

	var err error
	for _, name := range names {
		value := configMap[name]
		opt, ok := optsByName[name]
		if !ok {
			log.Debugf("(registry) unknown option name in config map: %v", name)
			continue
		}

		switch o := opt.(type) {
		case *ConfigOption[T, int]:
			val, ok := toInt(value)
			if !ok {
				return entity, fmt.Errorf("expected value for option %v to be an int but got %T", name, value)
			}
			entity, err = o.Setter()(entity, val)
		case *ConfigOption[T, float64]:
			val, ok := toFloat(value)
			if !ok {
				return entity, fmt.Errorf("expected value for option %v to be a number but got %T", name, value)
			}
			entity, err = o.Setter()(entity, val)
		case *ConfigOption[T, string]:
			val, ok := value.(string)
			if !ok {
				return entity, fmt.Errorf("expected value for option %v to be a string but got %T", name, value)
			}
			entity, err = o.Setter()(entity, val)
		case *ConfigOption[T, []string]:
			val, ok := toStringSlice(value)
			if !ok {
				return entity, fmt.Errorf("expected value for option %v to be a list of strings but got %T", name, value)
			}
			entity, err = o.Setter()(entity, val)
		case *ConfigOption[T, bool]:
			val, ok := value.(bool)
			if !ok {
				return entity, fmt.Errorf("expected value for option %v to be a bool but got %T", name, value)
			}
			entity, err = o.Setter()(entity, val)
		case *ConfigOption[T, time.Duration]:
			val, ok := toDuration(value)
			if !ok {
				return entity, fmt.Errorf("expected value for option %v to be a duration but got %T", name, value)
			}
			entity, err = o.Setter()(entity, val)
		}

		if err != nil {
			return entity, err
		}
	}

	return entity, nil
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	}

	return 0, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}

	return 0, false
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}

	return nil, false
}

func toDuration(value any) (time.Duration, bool) {
	switch v := value.(type) {
	case time.Duration:
		return v, true
	case string:
		d, err := time.ParseDuration(v)
		return d, err == nil
	}

	return 0, false
}

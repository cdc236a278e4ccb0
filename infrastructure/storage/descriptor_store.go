package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

var _ interfaces.DescriptorStorage = &DescriptorStore{}

type descriptorFile struct {
	Components []componentDTO `yaml:"components"`
}

type componentDTO struct {
	Name   string     `yaml:"name"`
	Parent string     `yaml:"parent,omitempty"`
	Layers []layerDTO `yaml:"layers,omitempty"`
	Final  stepDTO    `yaml:"final"`
}

type stepDTO struct {
	By            string   `yaml:"by"`
	Terms         []string `yaml:"terms,omitempty"`
	Match         string   `yaml:"match,omitempty"`
	Attribute     string   `yaml:"attribute,omitempty"`
	Element       string   `yaml:"element,omitempty"`
	Outer         string   `yaml:"outer,omitempty"`
	Index         *int64   `yaml:"index,omitempty"`
	Visibility    string   `yaml:"visibility,omitempty"`
	Timeout       string   `yaml:"timeout,omitempty"`
	RetryInterval string   `yaml:"retry_interval,omitempty"`
	Scope         string   `yaml:"scope,omitempty"`
}

type layerDTO struct {
	stepDTO  `yaml:",inline"`
	Resolver string `yaml:"resolver,omitempty"`
}

// DescriptorStore keeps a component descriptor table in a YAML file.
type DescriptorStore struct {
	path string
}

// NewDescriptorStore - creates a store over a YAML file
func NewDescriptorStore(path string) *DescriptorStore {
	return &DescriptorStore{path: path}
}

// Path returns the file backing the store.
func (s *DescriptorStore) Path() string {
	return s.path
}

// Load - reads the descriptor table, empty when the file does not exist
func (s *DescriptorStore) Load() ([]entities.ComponentDescriptor, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []entities.ComponentDescriptor{}, nil
		}
		return nil, err
	}
	defer f.Close()

	descriptors, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.path, err)
	}
	return descriptors, nil
}

// Save - writes the descriptor table
func (s *DescriptorStore) Save(descriptors []entities.ComponentDescriptor) error {
	data, err := Encode(descriptors)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create descriptor directory: %w", err)
		}
	}
	return os.WriteFile(s.path, data, 0644)
}

// Decode parses a YAML descriptor table. Unknown keys are rejected.
func Decode(r io.Reader) ([]entities.ComponentDescriptor, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file descriptorFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []entities.ComponentDescriptor{}, nil
		}
		return nil, fmt.Errorf("%w: %v", entities.ErrMalformedDescriptor, err)
	}

	descriptors := make([]entities.ComponentDescriptor, 0, len(file.Components))
	for _, c := range file.Components {
		d, err := c.descriptor()
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", c.Name, err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// Encode renders descriptors as YAML.
func Encode(descriptors []entities.ComponentDescriptor) ([]byte, error) {
	file := descriptorFile{Components: make([]componentDTO, 0, len(descriptors))}
	for _, d := range descriptors {
		c := componentDTO{
			Name:   d.Name,
			Parent: d.Parent,
			Final:  newStepDTO(d.Final),
		}
		for _, layer := range d.Layers {
			c.Layers = append(c.Layers, layerDTO{
				stepDTO:  newStepDTO(layer.LocateDescriptor),
				Resolver: string(layer.Resolver),
			})
		}
		file.Components = append(file.Components, c)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(file); err != nil {
		return nil, fmt.Errorf("failed to encode descriptors: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c componentDTO) descriptor() (entities.ComponentDescriptor, error) {
	d := entities.ComponentDescriptor{Name: c.Name, Parent: c.Parent}
	for i, layer := range c.Layers {
		step, err := layer.stepDTO.descriptor()
		if err != nil {
			return entities.ComponentDescriptor{}, fmt.Errorf("layer %d: %w", i+1, err)
		}
		d.Layers = append(d.Layers, entities.LayerDescriptor{
			LocateDescriptor: step,
			Resolver:         entities.ResolverKind(layer.Resolver),
		})
	}
	final, err := c.Final.descriptor()
	if err != nil {
		return entities.ComponentDescriptor{}, fmt.Errorf("final step: %w", err)
	}
	d.Final = final
	return d, nil
}

func (s stepDTO) descriptor() (entities.LocateDescriptor, error) {
	d := entities.LocateDescriptor{
		Strategy:     entities.StrategyKind(s.By),
		Terms:        s.Terms,
		Attribute:    s.Attribute,
		ElementXPath: s.Element,
		OuterXPath:   s.Outer,
		Scope:        entities.ScopeSource(s.Scope),
	}
	if s.Index != nil {
		d.Index = null.IntFrom(*s.Index)
	}
	var err error
	if s.Match != "" {
		if d.Match, err = entities.ParseMatchMode(s.Match); err != nil {
			return entities.LocateDescriptor{}, fmt.Errorf("%w: %v", entities.ErrMalformedDescriptor, err)
		}
	}
	if d.Visibility, err = entities.ParseVisibility(s.Visibility); err != nil {
		return entities.LocateDescriptor{}, fmt.Errorf("%w: %v", entities.ErrMalformedDescriptor, err)
	}
	if d.Timeout, err = parseDuration("timeout", s.Timeout); err != nil {
		return entities.LocateDescriptor{}, err
	}
	if d.RetryInterval, err = parseDuration("retry_interval", s.RetryInterval); err != nil {
		return entities.LocateDescriptor{}, err
	}
	return d, nil
}

func parseDuration(field, value string) (entities.NullDuration, error) {
	if value == "" {
		return entities.NullDuration{}, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return entities.NullDuration{}, fmt.Errorf("%w: invalid %s %q", entities.ErrMalformedDescriptor, field, value)
	}
	return entities.NullDurationFrom(d), nil
}

func newStepDTO(d entities.LocateDescriptor) stepDTO {
	s := stepDTO{
		By:        string(d.Strategy),
		Terms:     d.Terms,
		Match:     string(d.Match),
		Attribute: d.Attribute,
		Element:   d.ElementXPath,
		Outer:     d.OuterXPath,
		Scope:     string(d.Scope),
	}
	if d.Index.Valid {
		index := d.Index.Int64
		s.Index = &index
	}
	if d.Visibility.Valid {
		s.Visibility = string(d.Visibility.Visibility)
	}
	if d.Timeout.Valid {
		s.Timeout = d.Timeout.Duration.String()
	}
	if d.RetryInterval.Valid {
		s.RetryInterval = d.RetryInterval.Duration.String()
	}
	return s
}

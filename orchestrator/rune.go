package orchestrator

import (
	"encoding/json"
	"fmt"
)

// ConfigItemKind discriminates the rune ConfigItem tagged variant.
type ConfigItemKind string

const (
	ConfigBoolean ConfigItemKind = "boolean"
	ConfigInteger ConfigItemKind = "integer"
	ConfigString  ConfigItemKind = "string"
	ConfigSecret  ConfigItemKind = "secret"
	ConfigArchive ConfigItemKind = "archive"
)

// ConfigItem describes one configurable attribute of a rune. Default is only
// meaningful for the value kinds (boolean/integer/string); secret and archive
// items have no default and fold to None.
type ConfigItem struct {
	Kind        ConfigItemKind `json:"kind" yaml:"kind"`
	Description string         `json:"description" yaml:"description"`
	Transformer string         `json:"transformer,omitempty" yaml:"transformer,omitempty"`
	Default     string         `json:"default,omitempty" yaml:"default,omitempty"`
}

// Provide declares an interface this rune satisfies for other runes.
type Provide struct {
	Name      string `json:"name" yaml:"name"`
	Interface string `json:"interface" yaml:"interface"`
}

// Require declares an interface this rune depends on another rune to satisfy.
type Require struct {
	Name      string `json:"name" yaml:"name"`
	Interface string `json:"interface" yaml:"interface"`
	Min       *int   `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *int   `json:"max,omitempty" yaml:"max,omitempty"`
}

// Metadata is the parsed contents of metadata.yaml.
type Metadata struct {
	Name         string                `json:"name" yaml:"name"`
	Description  string                `json:"description" yaml:"description"`
	Repo         string                `json:"repo,omitempty" yaml:"repo,omitempty"`
	Maintainers  []string              `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags         []string              `json:"tags,omitempty" yaml:"tags,omitempty"`
	Series       string                `json:"series,omitempty" yaml:"series,omitempty"`
	Provides     []Provide             `json:"provides,omitempty" yaml:"provides,omitempty"`
	Requires     []Require             `json:"requires,omitempty" yaml:"requires,omitempty"`
	Dependencies []string              `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	React        string                `json:"react,omitempty" yaml:"react,omitempty"`
	Config       map[string]ConfigItem `json:"config" yaml:"config"`
}

// IntOrTemplate is the untagged union used by rune.yaml's containerPort field:
// either a literal integer or a template reference string like "${port}".
type IntOrTemplate struct {
	Int      *int64
	Template *string
}

func (v IntOrTemplate) MarshalJSON() ([]byte, error) {
	if v.Int != nil {
		return json.Marshal(*v.Int)
	}
	if v.Template != nil {
		return json.Marshal(*v.Template)
	}
	return []byte("null"), nil
}

func (v *IntOrTemplate) UnmarshalJSON(data []byte) error {
	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		v.Int = &i
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Template = &s
		return nil
	}
	return fmt.Errorf("orchestrator: containerPort is neither integer nor string: %s", data)
}

func (v IntOrTemplate) MarshalYAML() (interface{}, error) {
	if v.Int != nil {
		return *v.Int, nil
	}
	if v.Template != nil {
		return *v.Template, nil
	}
	return nil, nil
}

func (v *IntOrTemplate) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var i int64
	if err := unmarshal(&i); err == nil {
		v.Int = &i
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("orchestrator: containerPort is neither integer nor string: %w", err)
	}
	v.Template = &s
	return nil
}

// BuildSpec is the "build" half of Image's source|build untagged union.
type BuildSpec struct {
	Context    string `json:"context" yaml:"context"`
	Dockerfile string `json:"dockerfile,omitempty" yaml:"dockerfile,omitempty"`
}

// Image is either a pre-built source reference or a local build spec.
type Image struct {
	Source *string    `json:"source,omitempty" yaml:"source,omitempty"`
	Build  *BuildSpec `json:"build,omitempty" yaml:"build,omitempty"`
}

// Port is one container port exposed by a template entry.
type Port struct {
	Name          string        `json:"name" yaml:"name"`
	ContainerPort IntOrTemplate `json:"containerPort" yaml:"containerPort"`
}

// Template is one entry of rune.yaml: a container template.
type Template struct {
	Name        string            `json:"name" yaml:"name"`
	Command     []string          `json:"command,omitempty" yaml:"command,omitempty"`
	Args        []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Environment map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`
	Image       Image             `json:"image" yaml:"image"`
	Ports       []Port            `json:"ports,omitempty" yaml:"ports,omitempty"`
	Include     []string          `json:"include,omitempty" yaml:"include,omitempty"`
}

// RuneBundle is the fully parsed rune archive: metadata.yaml, rune.yaml, and
// the optional opaque transformers.py/rune.py text blobs. This is what's
// stored verbatim as the payload of an AddRune action.
type RuneBundle struct {
	Metadata     Metadata   `json:"metadata"`
	Templates    []Template `json:"templates"`
	Transformers string     `json:"transformers,omitempty"`
	React        string     `json:"react,omitempty"`
}

// InitialState computes the fold-table's "initial-state(rune)": one entry per
// declared config item, defaulted for value kinds and unset for secret/archive.
func (b *RuneBundle) InitialState() RuneState {
	state := make(map[string]*string, len(b.Metadata.Config))
	for name, item := range b.Metadata.Config {
		switch item.Kind {
		case ConfigBoolean, ConfigInteger, ConfigString:
			def := item.Default
			state[name] = &def
		case ConfigSecret, ConfigArchive:
			state[name] = nil
		}
	}
	return RuneState{State: state}
}

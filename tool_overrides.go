package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

type AnnotationOverrideConfig struct {
	Title           *string `json:"title,omitempty" yaml:"title,omitempty"`
	ReadOnlyHint    *bool   `json:"readOnlyHint,omitempty" yaml:"readOnlyHint,omitempty"`
	DestructiveHint *bool   `json:"destructiveHint,omitempty" yaml:"destructiveHint,omitempty"`
	IdempotentHint  *bool   `json:"idempotentHint,omitempty" yaml:"idempotentHint,omitempty"`
	OpenWorldHint   *bool   `json:"openWorldHint,omitempty" yaml:"openWorldHint,omitempty"`
}

type ToolOverrideConfig struct {
	Enabled     *bool                     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Description *string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Annotations *AnnotationOverrideConfig `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

type toolOverrideFile struct {
	Enabled *bool                          `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Tools   map[string]*ToolOverrideConfig `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// ToolOverrideSet holds per-tool overrides; the "*" entry applies to every
// tool before the tool's own entry.
type ToolOverrideSet struct {
	Enabled       *bool
	ToolOverrides map[string]*ToolOverrideConfig
}

// loadToolOverridesFromPath reads a YAML file (.yaml/.yml) or JSON with
// comments (anything else). An empty path yields no overrides.
func loadToolOverridesFromPath(path string) (*ToolOverrideSet, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	normalized, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve override path: %w", err)
	}
	data, err := os.ReadFile(normalized)
	if err != nil {
		return nil, err
	}
	var raw toolOverrideFile
	switch strings.ToLower(filepath.Ext(normalized)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse override file %s: %w", normalized, err)
	}
	set := &ToolOverrideSet{
		Enabled:       copyBoolPointer(raw.Enabled),
		ToolOverrides: make(map[string]*ToolOverrideConfig, len(raw.Tools)),
	}
	mergeToolOverrideInto(set.ToolOverrides, raw.Tools)
	if len(set.ToolOverrides) == 0 && set.Enabled == nil {
		return nil, nil
	}
	return set, nil
}

func mergeToolOverrideInto(dest map[string]*ToolOverrideConfig, src map[string]*ToolOverrideConfig) {
	if dest == nil {
		return
	}
	for name, cfg := range src {
		if cfg == nil {
			continue
		}
		if existing, ok := dest[name]; ok && existing != nil {
			dest[name] = mergeOverrideConfig(existing, cfg)
		} else {
			dest[name] = copyToolOverrideConfig(cfg)
		}
	}
}

func copyToolOverrideConfig(in *ToolOverrideConfig) *ToolOverrideConfig {
	if in == nil {
		return nil
	}
	out := &ToolOverrideConfig{Enabled: copyBoolPointer(in.Enabled)}
	if in.Description != nil {
		desc := *in.Description
		out.Description = &desc
	}
	if in.Annotations != nil {
		out.Annotations = &AnnotationOverrideConfig{
			ReadOnlyHint:    copyBoolPointer(in.Annotations.ReadOnlyHint),
			DestructiveHint: copyBoolPointer(in.Annotations.DestructiveHint),
			IdempotentHint:  copyBoolPointer(in.Annotations.IdempotentHint),
			OpenWorldHint:   copyBoolPointer(in.Annotations.OpenWorldHint),
		}
		if in.Annotations.Title != nil {
			title := *in.Annotations.Title
			out.Annotations.Title = &title
		}
	}
	return out
}

func mergeOverrideConfig(base, extra *ToolOverrideConfig) *ToolOverrideConfig {
	result := copyToolOverrideConfig(base)
	if result == nil {
		return copyToolOverrideConfig(extra)
	}
	if extra == nil {
		return result
	}
	extra = copyToolOverrideConfig(extra)
	if extra.Enabled != nil {
		result.Enabled = extra.Enabled
	}
	if extra.Description != nil {
		result.Description = extra.Description
	}
	if extra.Annotations != nil {
		if result.Annotations == nil {
			result.Annotations = &AnnotationOverrideConfig{}
		}
		if extra.Annotations.Title != nil {
			result.Annotations.Title = extra.Annotations.Title
		}
		if extra.Annotations.ReadOnlyHint != nil {
			result.Annotations.ReadOnlyHint = extra.Annotations.ReadOnlyHint
		}
		if extra.Annotations.DestructiveHint != nil {
			result.Annotations.DestructiveHint = extra.Annotations.DestructiveHint
		}
		if extra.Annotations.IdempotentHint != nil {
			result.Annotations.IdempotentHint = extra.Annotations.IdempotentHint
		}
		if extra.Annotations.OpenWorldHint != nil {
			result.Annotations.OpenWorldHint = extra.Annotations.OpenWorldHint
		}
	}
	return result
}

func copyBoolPointer(in *bool) *bool {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

// toolEnabled resolves the file-level flag, then "*", then the tool entry.
func toolEnabled(set *ToolOverrideSet, toolName string) bool {
	if set == nil {
		return true
	}
	enabled := true
	if set.Enabled != nil {
		enabled = *set.Enabled
	}
	if cfg, ok := set.ToolOverrides["*"]; ok && cfg != nil && cfg.Enabled != nil {
		enabled = *cfg.Enabled
	}
	if cfg, ok := set.ToolOverrides[toolName]; ok && cfg != nil && cfg.Enabled != nil {
		enabled = *cfg.Enabled
	}
	return enabled
}

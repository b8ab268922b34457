package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/act3-ai/forge/pkg/apis/forge.act3-ai.io/v1alpha1"
	"github.com/act3-ai/forge/pkg/apis/utils"
)

// Config renders the server configuration as YAML.
type Config struct {
	*Forge

	// Sample renders the defaulted configuration instead of the loaded one.
	Sample bool
}

// NewConfig creates a new config action.
func NewConfig(forge *Forge) *Config {
	return &Config{Forge: forge}
}

// Run writes the configuration document to out.
func (action *Config) Run(ctx context.Context, out io.Writer) error {
	var c *v1alpha1.Configuration
	if action.Sample {
		c = &v1alpha1.Configuration{}
		v1alpha1.ConfigurationDefault(c)
	} else {
		loaded, err := action.GetConfig(ctx)
		if err != nil {
			return err
		}
		c = loaded
	}

	// round-trip through json so the document carries the api field names
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding configuration: %w", err)
	}

	nodes, err := utils.ToYamlNodes(doc)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if len(nodes) > 0 && action.Sample {
		nodes[0].HeadComment = "forge sample configuration"
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	for _, node := range nodes {
		if err := enc.Encode(node); err != nil {
			return fmt.Errorf("writing configuration: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing configuration: %w", err)
	}
	return nil
}

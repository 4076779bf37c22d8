package config

import (
	"os"

	yaml "gopkg.in/yaml.v2"
)

// LoadYAML parses a nested YAML document into a flat Properties bag,
// joining nested map keys with ".". Mirrors g3n-engine's own
// yaml.Unmarshal-into-a-generic-map pattern for parsing user-authored
// scene description documents.
func LoadYAML(data []byte) (*Properties, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	p := NewProperties()
	flatten("", raw, p)
	return p, nil
}

// LoadYAMLFile reads path and parses it via LoadYAML.
func LoadYAMLFile(path string) (*Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadYAML(data)
}

func flatten(prefix string, node interface{}, p *Properties) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, val := range v {
			flatten(joinKey(prefix, k), val, p)
		}
	case map[interface{}]interface{}:
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				continue
			}
			flatten(joinKey(prefix, key), val, p)
		}
	default:
		p.Set(prefix, toString(v))
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return yamlScalarString(t)
	}
}

func yamlScalarString(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(b)
	// yaml.Marshal appends a trailing newline and (for scalars) no quoting;
	// trim it so GetFloat/GetInt/GetBool parse cleanly.
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/nimora/nimora/internal/leave"
	"gopkg.in/yaml.v3"
)

// LoadRecords reads attendance records from a YAML file for offline use. The
// file may hold a bare list or a document with a top-level records key.
func LoadRecords(path string) ([]leave.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes YAML attendance records.
func ParseRecords(data []byte) ([]leave.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var records []leave.Record
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode records: %w", err)
		}
	case yaml.MappingNode:
		var doc struct {
			Records []leave.Record `yaml:"records"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode records: %w", err)
		}
		records = doc.Records
	default:
		return nil, fmt.Errorf("records must be a list or a mapping with a records key")
	}
	return records, nil
}

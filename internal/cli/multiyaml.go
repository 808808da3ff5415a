package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseMultiYAML reads a file of one or more YAML documents, fills its
// placeholders and returns the non-empty documents.
func ParseMultiYAML(filename string) ([]map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	data, err = PreprocessYAML(replaceTabsWithSpaces(data))
	if err != nil {
		return nil, err
	}

	return ParseMultiYAMLFromBytes(data)
}

// ParseMultiYAMLFromBytes parses byte data containing multiple YAML documents
func ParseMultiYAMLFromBytes(data []byte) ([]map[string]any, error) {
	content := strings.TrimSpace(string(data))
	if len(content) == 0 || strings.Trim(content, "- \n\t") == "" {
		return []map[string]any{}, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var result []map[string]any

	for i := 1; ; i++ {
		var doc map[string]any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode YAML document %d: %w", i, err)
		}
		// trailing --- yields empty documents
		if len(doc) > 0 {
			result = append(result, doc)
		}
	}

	return result, nil
}

// ParseConfigTables reads setConfig params from a multi-document file. Every
// document needs a name and a table.
func ParseConfigTables(filename string) ([]map[string]any, error) {
	docs, err := ParseMultiYAML(filename)
	if err != nil {
		return nil, err
	}
	for i, doc := range docs {
		name, _ := doc["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("document %d: name is required", i+1)
		}
		if _, ok := doc["table"]; !ok {
			return nil, fmt.Errorf("document %d (%s): table is required", i+1, name)
		}
	}
	return docs, nil
}

// replaceTabsWithSpaces replaces tab characters with four spaces; YAML
// rejects tabs in indentation.
func replaceTabsWithSpaces(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte("\t"), []byte("    "))
}

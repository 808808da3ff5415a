package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

// TemplateContext is the data a parameter file template sees.
type TemplateContext struct {
	ENV map[string]string
}

var missingKeyRegex = regexp.MustCompile(`map has no entry for key "(.*?)"`)

// templateEnv merges a .env file in the working directory, if any, under the
// process environment. Process variables win.
func templateEnv() (map[string]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	env, err := godotenv.Read(filepath.Join(cwd, ".env"))
	if err != nil {
		env = map[string]string{}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}

// PreprocessYAML replaces {{ .ENV.VAR }} placeholders with values from the
// environment or a .env file. A placeholder without a value is an error.
func PreprocessYAML(input []byte) ([]byte, error) {
	env, err := templateEnv()
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("params").Option("missingkey=error").Parse(string(input))
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	if err := tmpl.Execute(&output, TemplateContext{ENV: env}); err != nil {
		if m := missingKeyRegex.FindStringSubmatch(err.Error()); len(m) == 2 {
			return nil, fmt.Errorf("missing environment variable: %s (set it in your shell or .env file)", m[1])
		}
		return nil, fmt.Errorf("template error: %w", err)
	}
	return output.Bytes(), nil
}

// LoadParamsFile reads a YAML or JSON parameter file, fills its placeholders
// and returns it as JSON ready to be sent as params.
func LoadParamsFile(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	data, err = PreprocessYAML(replaceTabsWithSpaces(data))
	if err != nil {
		return nil, err
	}
	out, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return out, nil
}

package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	yaml "gopkg.in/yaml.v3"

	"github.com/gosimple/slug"
	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	LayoutConfig struct {
		LimitedSubReports      bool   `yaml:"limited_sub_reports"`
		CollapseProgressMarker bool   `yaml:"collapse_progress_marker"`
		DesignTime             bool   `yaml:"design_time"`
		SplitSentences         bool   `yaml:"split_sentences"`
		Stats                  bool   `yaml:"stats"`
		StylesheetPath         string `yaml:"stylesheet_path" sanitize:"assure_file_access"`
	}

	OutputConfig struct {
		Detail       DumpDetail `yaml:"detail" validate:"gte=0,lte=2"`
		NameTemplate string     `yaml:"name_template" validate:"required"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Layout    LayoutConfig   `yaml:"layout"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	NameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(NameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// OutputName expands name template for a report and makes result safe to
// be used as a file name.
func (conf *OutputConfig) OutputName(reportName string) (string, error) {
	tmpl, err := template.New(string(NameTemplateFieldName)).Parse(conf.NameTemplate)
	if err != nil {
		return "", fmt.Errorf("unable to parse %s: %w", NameTemplateFieldName, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, struct{ Name string }{Name: reportName}); err != nil {
		return "", fmt.Errorf("unable to expand %s: %w", NameTemplateFieldName, err)
	}
	name := slug.Make(sb.String())
	if name == "" {
		name = "report"
	}
	return name, nil
}

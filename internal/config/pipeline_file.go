package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PipelineFile describes a pipeline in YAML:
//
//	steps:
//	  - name: greet
//	    type: DummyStep
//	    inputs: {a: "hi ", b: 2}
//	  - name: shout
//	    type: UpperDummyStep
//	    inputs: {b: 1}
//	    bind: {a: greet.c}
//	    after: [greet]
type PipelineFile struct {
	Steps []StepSpec `yaml:"steps" validate:"required,min=1,dive"`
}

// StepSpec is one node of a PipelineFile.
type StepSpec struct {
	Inputs      map[string]any    `yaml:"inputs"`
	Bind        map[string]string `yaml:"bind"`
	Name        string            `yaml:"name" validate:"required"`
	Type        string            `yaml:"type" validate:"required"`
	Description string            `yaml:"description"`
	After       []string          `yaml:"after"`
}

// ReadPipelineFile parses the pipeline file at path.
func ReadPipelineFile(path string) (*PipelineFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open pipeline file %s", path)
	}
	defer file.Close()

	res, err := ParsePipeline(file)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline file %s", path)
	}

	return res, nil
}

// ParsePipeline decodes and validates a pipeline description. Unknown keys are rejected.
func ParsePipeline(rdr io.Reader) (*PipelineFile, error) {
	dec := yaml.NewDecoder(rdr)
	dec.KnownFields(true)

	res := &PipelineFile{}

	err := dec.Decode(res)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "unable to decode pipeline")
	}

	err = validate.Struct(res)
	if err != nil {
		return nil, errors.Wrap(err, "invalid pipeline")
	}

	return res, nil
}

// Package exercise loads graded exercise definitions: a title and a list of
// checks learner submissions are graded against.
package exercise

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	validator "github.com/go-playground/validator/v10"
	"github.com/rupor-github/gencfg"
	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"

	"hcg/grader"
)

// Exercise describes what is graded.
type Exercise struct {
	Title       string         `yaml:"title" json:"title" validate:"required"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Checks      []grader.Check `yaml:"checks" json:"checks" validate:"required,min=1,dive"`
}

// Load reads exercise from file. JSON is accepted as well as YAML.
func Load(path string) (*Exercise, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open exercise: %w", err)
	}
	defer f.Close()

	ex, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unable to load exercise '%s': %w", path, err)
	}
	return ex, nil
}

// Decode reads exercise definition rejecting unknown fields. It does not
// validate checks, see Validate.
func Decode(r io.Reader) (*Exercise, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ex Exercise
	if err := dec.Decode(&ex); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("exercise is empty")
		}
		return nil, fmt.Errorf("failed to decode exercise: %w", err)
	}
	return &ex, nil
}

// Validate reports every problem found in exercise at once: missing fields,
// unknown check types and rules which do not parse.
func (ex *Exercise) Validate() error {
	var err error

	var verrs validator.ValidationErrors
	if e := gencfg.Validate(ex); errors.As(e, &verrs) {
		for _, fe := range verrs {
			err = multierr.Append(err, fmt.Errorf("%s: failed on '%s' constraint", fe.Namespace(), fe.Tag()))
		}
	} else if e != nil {
		err = multierr.Append(err, e)
	}

	for i, c := range ex.Checks {
		if c.Rule == "" || c.Type == "" {
			// already reported
			continue
		}
		if _, e := grader.ParseRule(c.Type, c.Rule); e != nil {
			err = multierr.Append(err, fmt.Errorf("check %d (%s) rule %q: %w", i+1, c.ID, c.Rule, e))
		}
	}
	return err
}

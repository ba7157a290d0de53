// Package task describes annotation tasks and validates annotations against
// a task's metadata.
package task

import (
	"errors"
	"fmt"
	"strings"
)

// Classification is the only supported task type.
const Classification = "classification"

// ErrInvalidAnnotation is returned when an annotation does not fit the task.
var ErrInvalidAnnotation = errors.New("invalid annotation")

// Meta is the task description stored in a repository's meta.json.
type Meta struct {
	Task   string   `json:"task"`
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

// Validate checks the metadata for a usable classification task.
func (m Meta) Validate() error {
	var errs []error
	if m.Task != Classification {
		errs = append(errs, fmt.Errorf("task: unsupported task type %q", m.Task))
	}
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, fmt.Errorf("task: name must not be empty"))
	}
	if len(m.Labels) == 0 {
		errs = append(errs, fmt.Errorf("task: at least one label is required"))
	}
	seen := make(map[string]bool, len(m.Labels))
	for _, l := range m.Labels {
		if strings.TrimSpace(l) == "" {
			errs = append(errs, fmt.Errorf("task: labels must not be blank"))
			continue
		}
		if seen[l] {
			errs = append(errs, fmt.Errorf("task: duplicate label %q", l))
		}
		seen[l] = true
	}
	return errors.Join(errs...)
}

// Checker validates a single annotation value.
type Checker interface {
	Check(annotation string) error
}

// LabelChecker accepts annotations that are one of a fixed set of labels.
type LabelChecker struct {
	labels []string
	set    map[string]bool
}

// NewLabelChecker returns a checker for the given labels.
func NewLabelChecker(labels []string) *LabelChecker {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return &LabelChecker{labels: append([]string(nil), labels...), set: set}
}

// Check implements Checker.
func (c *LabelChecker) Check(annotation string) error {
	if !c.set[annotation] {
		return fmt.Errorf("%w %q for labels %v", ErrInvalidAnnotation, annotation, c.labels)
	}
	return nil
}

// Labels returns the accepted labels in order.
func (c *LabelChecker) Labels() []string {
	return append([]string(nil), c.labels...)
}

// CheckerFor builds the checker matching the task in meta.
func CheckerFor(meta Meta) (Checker, error) {
	switch meta.Task {
	case Classification:
		return NewLabelChecker(meta.Labels), nil
	default:
		return nil, fmt.Errorf("task: unsupported task type %q", meta.Task)
	}
}

package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names so issues read like the model's output.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Issue captures a single schema problem.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports one or more schema issues.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("quiz validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

// check validates a single question against the schema.
func (q Question) check() error {
	collector := &issueCollector{}
	collectQuestion(collector, "question", q)
	return collector.result()
}

// Validate checks the quiz length and every question.
func (q Quiz) Validate() error {
	collector := &issueCollector{}
	if len(q.Questions) != QuestionsPerQuiz {
		collector.add("questions", fmt.Sprintf("must contain exactly %d entries, got %d", QuestionsPerQuiz, len(q.Questions)))
	}
	for i, question := range q.Questions {
		collectQuestion(collector, fmt.Sprintf("questions[%d]", i), question)
	}
	return collector.result()
}

func collectQuestion(collector *issueCollector, prefix string, q Question) {
	err := validate.Struct(q)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		collector.add(prefix, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		collector.add(prefix+"."+fieldPath(fe), describe(fe))
	}
}

// fieldPath drops the struct name from the validator namespace ("Question.options[2]").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must have exactly %s entries", fe.Param())
	case "unique":
		return "entries must be distinct"
	case "oneof":
		return fmt.Sprintf("must be one of %s, got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}

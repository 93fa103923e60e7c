package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"docmgmt/internal/model"
)

// Validator checks payloads and documents, collecting every violation instead of
// stopping at the first one.
type Validator struct {
	validate       *validator.Validate
	titleMaxLength int
}

// NewValidator builds a Validator that reports fields by their JSON names.
func NewValidator(titleMaxLength int) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v, titleMaxLength: titleMaxLength}
}

// Struct runs the validate tags of s.
func (v *Validator) Struct(s any) *model.ValidationError {
	return v.collect(v.validate.Struct(s))
}

// Document checks every document invariant. checkDue enables the due date future check,
// which only applies when the due date is being set.
func (v *Validator) Document(d *model.Document, now time.Time, checkDue bool) error {
	return v.document(d, now, checkDue).OrNil()
}

func (v *Validator) document(d *model.Document, now time.Time, checkDue bool, except ...string) *model.ValidationError {
	var err error
	if len(except) > 0 {
		err = v.validate.StructExcept(d, except...)
	} else {
		err = v.validate.Struct(d)
	}
	ve := v.collect(err)

	if n := utf8.RuneCountInString(d.Title); n > v.titleMaxLength {
		ve.Add("title", "max", fmt.Sprintf("must be at most %d characters, got %d", v.titleMaxLength, n))
	}
	if !d.Status.Valid() {
		ve.Add("status", "oneof", fmt.Sprintf("must be one of %v", model.Statuses))
	}
	if d.ReceivedAt != nil && d.SentAt != nil {
		ve.Add("sent_at", "exclusive", "received_at and sent_at cannot both be set")
	}
	if checkDue && d.DueAt != nil && !d.DueAt.After(now) {
		ve.Add("due_at", "future", "must be in the future")
	}
	return ve
}

func (v *Validator) collect(err error) *model.ValidationError {
	ve := &model.ValidationError{}
	if err == nil {
		return ve
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Add("", "invalid", err.Error())
		return ve
	}
	for _, fe := range fieldErrs {
		ve.Add(fieldPath(fe.Namespace()), fe.Tag(), ruleMessage(fe))
	}
	return ve
}

// fieldPath drops the struct name: "Document.file.size_bytes" -> "file.size_bytes".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}

// checkID rejects ids that cannot exist because they are not UUIDs.
func checkID(entity, id string) error {
	if uuid.Validate(id) != nil {
		return &model.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

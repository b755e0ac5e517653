package orchestrator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/snapshot"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct validation and merges extra field errors. It returns nil when both are clean.
func (o *Orchestrator) check(in any, extra map[string]string) error {
	fields := make(map[string]string)
	if err := o.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = message(fe)
		}
	}
	for k, v := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must match " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

// refChecker collects unknown referenced IDs into field errors, using one snapshot for the whole check.
type refChecker struct {
	state  *snapshot.State
	fields map[string]string
}

// references returns a checker against the current snapshot. With no refresher every ID is accepted.
func (o *Orchestrator) references(fields map[string]string) refChecker {
	r := refChecker{fields: fields}
	if o.refresher != nil {
		s := o.refresher.Snapshot()
		r.state = &s
	}
	return r
}

// check flags field when any non-nil id is unknown.
func (r refChecker) check(field string, ids []uuid.UUID, known func(snapshot.State, uuid.UUID) bool) {
	if r.state == nil {
		return
	}
	for _, id := range ids {
		if id != uuid.Nil && !known(*r.state, id) {
			if _, taken := r.fields[field]; !taken {
				r.fields[field] = "references unknown id " + id.String()
			}
			return
		}
	}
}

func (r refChecker) participants(field string, ids []uuid.UUID) {
	r.check(field, ids, func(s snapshot.State, id uuid.UUID) bool {
		_, ok := s.Participant(id)
		return ok
	})
}

func (r refChecker) categories(field string, kind models.CategoryKind, ids []uuid.UUID) {
	r.check(field, ids, func(s snapshot.State, id uuid.UUID) bool {
		_, ok := s.Category(kind, id)
		return ok
	})
}

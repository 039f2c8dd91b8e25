package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/badminton-pairing/internal/model"
)

const maxNameLength = 64

// rules validates operator input against the configured level range
type rules struct {
	validate *validator.Validate
	levels   model.LevelRange
	levelTag string
}

func newRules(levels model.LevelRange) *rules {
	return &rules{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		levels:   levels,
		levelTag: fmt.Sprintf("gte=%d,lte=%d", levels.Min, levels.Max),
	}
}

// name trims surrounding whitespace and checks the result is usable
func (r *rules) name(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := r.validate.Var(name, fmt.Sprintf("required,max=%d", maxNameLength)); err != nil {
		return "", fmt.Errorf("%w: %s", model.ErrInvalidName, describe(err))
	}
	return name, nil
}

func (r *rules) level(level int) error {
	if err := r.validate.Var(level, r.levelTag); err != nil {
		return fmt.Errorf("%w: %d is outside %d-%d", model.ErrLevelOutOfRange, level, r.levels.Min, r.levels.Max)
	}
	return nil
}

func (r *rules) counter(field string, n int) error {
	if err := r.validate.Var(n, "gte=0"); err != nil {
		return fmt.Errorf("%w: %s is %d", model.ErrInvalidCounter, field, n)
	}
	return nil
}

// describe renders the first failed rule of a validation error
func describe(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s", fe.Tag())
	}
	return err.Error()
}

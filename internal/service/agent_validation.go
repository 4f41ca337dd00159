package service

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"eagle-eye.io/fieldagent/internal/domain"
	"eagle-eye.io/fieldagent/internal/repository"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
)

// Field limits, counted in characters.
const (
	MaxCodenameLen = 50
	MaxRealNameLen = 100
	MaxLocationLen = 100
)

// Paging bounds.
const (
	MaxListLimit     = 1000
	MaxTopPerformers = 100
)

// Field names as they appear on the wire.
const (
	fieldCodename = "codename"
	fieldRealName = "realname"
	fieldLocation = "location"
	fieldStatus   = "status"
	fieldMissions = "missionscompleted"
	fieldOffset   = "skip"
	fieldLimit    = "limit"
	fieldCount    = "count"
)

func checkText(field, value string, maxLen int) *apperrors.FieldError {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		return &apperrors.FieldError{Field: field, Code: apperrors.ReasonRequired, Message: "must not be empty"}
	case n > maxLen:
		return &apperrors.FieldError{Field: field, Code: apperrors.ReasonTooLong,
			Message: fmt.Sprintf("must be at most %d characters", maxLen)}
	}
	return nil
}

// checkCodenameChars accepts ASCII letters, digits, underscores and hyphens.
func checkCodenameChars(codename string) *apperrors.FieldError {
	for _, r := range codename {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) || r == '_' || r == '-' {
			continue
		}
		return &apperrors.FieldError{Field: fieldCodename, Code: apperrors.ReasonInvalidChars,
			Message: "must contain only alphanumeric characters, underscores, and hyphens"}
	}
	return nil
}

func checkStatus(status domain.AgentStatus) *apperrors.FieldError {
	if status == "" {
		return &apperrors.FieldError{Field: fieldStatus, Code: apperrors.ReasonRequired, Message: "must not be empty"}
	}
	if !status.Valid() {
		return &apperrors.FieldError{Field: fieldStatus, Code: apperrors.ReasonInvalidEnum,
			Message: fmt.Sprintf("unknown status %q", string(status))}
	}
	return nil
}

func checkMissions(field string, n int) *apperrors.FieldError {
	return checkRange(field, n, 0, repository.MaxMissionsCompleted)
}

func checkNonNegative(field string, n int) *apperrors.FieldError {
	if n < 0 {
		return &apperrors.FieldError{Field: field, Code: apperrors.ReasonOutOfRange, Message: "must be greater than or equal to 0"}
	}
	return nil
}

func checkRange(field string, n, lo, hi int) *apperrors.FieldError {
	if n < lo || n > hi {
		return &apperrors.FieldError{Field: field, Code: apperrors.ReasonOutOfRange,
			Message: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return nil
}

// fieldChecks runs presence and length checks on every field before the
// codename character class, the status enum, and the missions count, and
// reports every failure in that order.
type fieldChecks struct {
	length []apperrors.FieldError
	format []apperrors.FieldError
}

func (c *fieldChecks) addLength(fe *apperrors.FieldError) {
	if fe != nil {
		c.length = append(c.length, *fe)
	}
}

func (c *fieldChecks) addFormat(fe *apperrors.FieldError) {
	if fe != nil {
		c.format = append(c.format, *fe)
	}
}

func (c *fieldChecks) err() error {
	all := append(c.length, c.format...)
	if len(all) == 0 {
		return nil
	}
	return apperrors.ErrInvalidInput(all...)
}

func validateCreate(in CreateAgentInput) error {
	var c fieldChecks
	c.addLength(checkText(fieldCodename, in.Codename, MaxCodenameLen))
	c.addLength(checkText(fieldRealName, in.RealName, MaxRealNameLen))
	c.addLength(checkText(fieldLocation, in.Location, MaxLocationLen))
	if len(c.length) == 0 || c.length[0].Field != fieldCodename {
		c.addFormat(checkCodenameChars(in.Codename))
	}
	c.addFormat(checkStatus(in.Status))
	c.addFormat(checkMissions(fieldMissions, in.MissionsCompleted))
	return c.err()
}

func validatePatch(p AgentPatch) error {
	var c fieldChecks
	if p.Codename != nil {
		c.addLength(checkText(fieldCodename, *p.Codename, MaxCodenameLen))
		if len(c.length) == 0 {
			c.addFormat(checkCodenameChars(*p.Codename))
		}
	}
	if p.RealName != nil {
		c.addLength(checkText(fieldRealName, *p.RealName, MaxRealNameLen))
	}
	if p.Location != nil {
		c.addLength(checkText(fieldLocation, *p.Location, MaxLocationLen))
	}
	if p.Status != nil {
		c.addFormat(checkStatus(*p.Status))
	}
	if p.MissionsCompleted != nil {
		c.addFormat(checkMissions(fieldMissions, *p.MissionsCompleted))
	}
	return c.err()
}

func validateList(in ListAgentsInput) error {
	var c fieldChecks
	if in.Status != nil {
		c.addFormat(checkStatus(*in.Status))
	}
	c.addFormat(checkNonNegative(fieldOffset, in.Offset))
	c.addFormat(checkRange(fieldLimit, in.Limit, 1, MaxListLimit))
	return c.err()
}

func singleFieldError(fe *apperrors.FieldError) error {
	if fe == nil {
		return nil
	}
	return apperrors.ErrInvalidInput(*fe)
}

// missionsOverflow is returned when an increment would carry the missions
// count past MaxMissionsCompleted.
func missionsOverflow() error {
	return apperrors.ErrInvalidInput(apperrors.FieldError{
		Field:   fieldMissions,
		Code:    apperrors.ReasonOutOfRange,
		Message: fmt.Sprintf("must not exceed %d", repository.MaxMissionsCompleted),
	})
}

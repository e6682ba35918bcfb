package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// bindingFields maps each field that failed a binding rule to the rule name,
// e.g. {"password": "required"}. Malformed bodies yield no fields.
func bindingFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return fields
}

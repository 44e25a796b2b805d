// Package validator wraps go-playground struct validation behind a small
// injectable type so handlers do not depend on the library directly.
package validator

import "github.com/go-playground/validator/v10"

// Validator checks request structs against their validate tags.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates s against its validate tags. The returned error carries
// the failing fields and is safe to echo back to API callers.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

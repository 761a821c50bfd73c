// Package validation holds the portal's form types and validates them with
// go-playground/validator before anything is sent to the donation API.
package validation

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DonateForm is the public donation form.
type DonateForm struct {
	Name    string `form:"name" validate:"notblank" msg:"Full name is required."`
	Email   string `form:"email" validate:"omitempty,donor_email" msg:"Invalid email format."`
	Amount  string `form:"amount" validate:"positive_amount" msg:"Donation amount must be a positive number."`
	Message string `form:"message"`
}

// SignInForm is the sign-in form.
type SignInForm struct {
	Email    string `form:"email" validate:"donor_email" msg:"Please provide a valid Email."`
	Password string `form:"password" validate:"required" msg:"Please provide password."`
}

// SignUpForm is the sign-up form.
type SignUpForm struct {
	Name            string `form:"name" validate:"notblank" msg:"Please provide your full name."`
	Email           string `form:"email" validate:"donor_email" msg:"Please provide a valid Email."`
	Password        string `form:"password" validate:"min=6" msg:"Password must be at least 6 characters long."`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password" msg:"Passwords do not match!"`
}

// DonorEditForm is a donor's edit of their own donation.
type DonorEditForm struct {
	Name    string `form:"name" validate:"notblank" msg:"Full name is required."`
	Email   string `form:"email" validate:"omitempty,donor_email" msg:"Invalid email format."`
	Message string `form:"message"`
}

// RemarksForm is the admin edit of a donation.
type RemarksForm struct {
	AdminRemarks string `form:"adminRemarks" validate:"max=1000" msg:"Remarks must be at most 1000 characters."`
}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	msgs := make([]string, 0, len(f))
	for _, m := range f {
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, " ")
}

// Has reports whether field failed.
func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("form"); name != "" && name != "-" {
				return name
			}
			return fld.Name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("donor_email", func(fl validator.FieldLevel) bool {
			return ValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
			_, ok := ParseAmount(fl.Field().String())
			return ok
		})
		validate = v
	})
	return validate
}

// Validate checks form and returns FieldErrors, or nil when it is valid.
// Each failed field reports the message in its msg tag.
func Validate(form any) error {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	t := reflect.TypeOf(form)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg := fe.Error()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
		}
		out[fe.Field()] = msg
	}
	return out
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ParseAmount parses a donation amount. Only finite numbers above zero are
// accepted.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

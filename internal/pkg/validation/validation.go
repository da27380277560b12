package validation

import (
	"fmt"
	"html"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"greenledger-backend/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Mail providers whose domain never identifies an organization.
var publicDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"icloud.com":     true,
	"proton.me":      true,
	"protonmail.com": true,
	"aol.com":        true,
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
	strict       = bluemonday.StrictPolicy()
)

// Validator returns the shared validator. Field names in errors use the json tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v and converts failures into a validation AppError whose details
// hold one message per offending field.
func Struct(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, apperrors.CodeValidation, "Invalid input")
	}
	ae := apperrors.Validation(fieldMessage(verrs[0]))
	for _, fe := range verrs {
		ae.WithMeta(fe.Field(), fieldMessage(fe))
	}
	return ae
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "uuid":
		return fe.Field() + " must be a valid UUID"
	case "url":
		return fe.Field() + " must be a valid URL"
	}
	return fe.Field() + " is invalid"
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the lower-cased part after the last '@', or "".
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[i+1:]))
}

// IsBusinessDomain is false for empty and public mail provider domains.
func IsBusinessDomain(domain string) bool {
	return domain != "" && !publicDomains[domain]
}

// CleanText strips any markup from user supplied free text and trims it. Entities the
// sanitizer escapes are decoded again so names like "O'Brien & Co" survive; the
// decoded text is sanitized again until it no longer changes, so entity-encoded
// markup cannot come back out as tags.
func CleanText(s string) string {
	for i := 0; i < maxCleanPasses; i++ {
		out := html.UnescapeString(strict.Sanitize(s))
		if out == s {
			return strings.TrimSpace(out)
		}
		s = out
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

const maxCleanPasses = 8

// CleanOptional applies CleanText and maps blank results to nil.
func CleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := CleanText(*s)
	if v == "" {
		return nil
	}
	return &v
}

// SanitizeFilename keeps the base name and replaces spaces and dot runs.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return name
}

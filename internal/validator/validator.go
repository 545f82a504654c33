// Package validator provides custom validation functions for Gin's binding
// engine plus the shared field rules used by the service layer and the
// client SDK.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// Display names are 3-20 characters of letters, digits, and underscores.
	displayNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

	// Emails must carry a TLD of at least two characters, so "foo@bar" is
	// rejected while "foo@bar.com" passes.
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("txn_type", validateTransactionType)
		_ = v.RegisterValidation("sort_key", validateSortKey)
		_ = v.RegisterValidation("display_name", validateDisplayName)
	}
}

// ValidDisplayName reports whether name is a valid user display name.
func ValidDisplayName(name string) bool {
	return displayNameRegex.MatchString(name)
}

// ValidEmail reports whether addr looks like a deliverable email address.
func ValidEmail(addr string) bool {
	return emailRegex.MatchString(addr)
}

// ValidCategoryName reports whether name, after trimming, is 2-20 characters.
func ValidCategoryName(name string) bool {
	n := len(strings.TrimSpace(name))
	return n >= 2 && n <= 20
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateSortKey(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "date-asc", "date-desc", "amount-asc", "amount-desc":
		return true
	}
	return false
}

func validateDisplayName(fl validator.FieldLevel) bool {
	return ValidDisplayName(fl.Field().String())
}

package router

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CNIC national identity numbers: 13 digits, dashed (12345-1234567-1) or plain.
var cnicPattern = regexp.MustCompile(`^(\d{5}-\d{7}-\d|\d{13})$`)

func validCNIC(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return cnicPattern.MatchString(value)
}

// registerValidations hooks custom rules into gin's binding validator so
// request structs can use them in binding tags.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("cnic", validCNIC)
	}
}

package validator

import (
	"log"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oshxona/backend/pkg/otp"
)

var phoneNumberPattern = regexp.MustCompile(`^998\d{9}$`)

func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("phonenumber", phoneNumberValidator); err != nil {
			log.Fatal("register phonenumber validator failed")
		}
		if err := v.RegisterValidation("otpcode", otpCodeValidator); err != nil {
			log.Fatal("register otpcode validator failed")
		}
	}
}

var phoneNumberValidator validator.Func = func(fl validator.FieldLevel) bool {
	return phoneNumberPattern.MatchString(fl.Field().String())
}

var otpCodeValidator validator.Func = func(fl validator.FieldLevel) bool {
	return otp.IsCode(fl.Field().String())
}

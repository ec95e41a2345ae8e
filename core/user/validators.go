package user

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/teas/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password is too similar to the user's attributes"
)

// InitValidators registers the user validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok && nu.Password != "" {
		validatePassword(nu.Password, sl, nu.Username, nu.FirstName, nu.LastName, nu.Email)
	}
}

// ValidatePassword applies the password policy outside of a struct validation.
// It returns the policy violation message, or "" when pwd is acceptable.
func ValidatePassword(pwd string, attrs ...string) string {
	switch checkPassword(pwd, attrs...) {
	case pwdMinLenTag:
		return pwdMinLenText
	case pwdNotAllNumTag:
		return pwdNotAllNumText
	case pwdAttrSimTag:
		return pwdAttrSimText
	}
	return ""
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd string, sl validator.StructLevel, attrs ...string) {
	if tag := checkPassword(pwd, attrs...); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

func checkPassword(pwd string, attrs ...string) string {
	// - minLen: 8
	if len([]rune(pwd)) < pwdMinLen {
		return pwdMinLenTag
	}

	// - not all numeric
	allNum := true
	for _, char := range pwd {
		if char < '0' || char > '9' {
			allNum = false
			break
		}
	}
	if allNum {
		return pwdNotAllNumTag
	}

	// - no user attrs similarity
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(strings.ToLower(attr), "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}
	return ""
}

package user

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/shuleapp/shule/core"
	appfs "github.com/shuleapp/shule/fs"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"

	commonPasswords     []string
	commonPasswordsInit sync.Once
)

// InitValidators registers the user rules on v.
func InitValidators(v *core.Validator) {
	v.Engine().RegisterStructValidation(passwordStructValidation, ResetUserPassword{}, SetUserPassword{})
	v.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	v.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	v.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	v.RegisterCustomTranslation(pwdComplexityTag, pwdComplexityText)
	v.RegisterCustomTranslation(pwdNoCommonTag, pwdNoCommonText)
}

func loadCommonPasswords() {
	commonPasswords = make([]string, 0, 128)
	if file, err := appfs.FS.Open(appfs.CommonPasswords); err == nil {
		//goland:noinspection GoUnhandledErrorResult
		defer file.Close()
		if gzRdr, err := gzip.NewReader(file); err == nil {
			scanner := bufio.NewScanner(gzRdr)
			for scanner.Scan() {
				if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
					commonPasswords = append(commonPasswords, strings.ToLower(pwd))
				}
			}
		}
	}
	sort.Strings(commonPasswords)
}

func isCommonPassword(pwd string) bool {
	commonPasswordsInit.Do(loadCommonPasswords)
	lpwd := strings.ToLower(pwd)
	idx := sort.SearchStrings(commonPasswords, lpwd)
	return idx < len(commonPasswords) && commonPasswords[idx] == lpwd
}

// passwordStructValidation applies the password policy on password reset & set structs.
func passwordStructValidation(sl validator.StructLevel) {
	switch data := sl.Current().Interface().(type) {
	case ResetUserPassword:
		if tag := passwordPolicyViolation(data.Password); tag != "" {
			sl.ReportError(data.Password, "password", "Password", tag, "")
		}
	case SetUserPassword:
		if tag := passwordPolicyViolation(data.Password); tag != "" {
			sl.ReportError(data.Password, "password", "Password", tag, "")
		}
	}
}

// passwordPolicyViolation returns the tag of the first rule pwd breaks, or "":
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no common password
func passwordPolicyViolation(pwd string) string {
	if pwd == "" || len(pwd) > core.PasswordMaxBytes { // reported by `required` & `pwdmaxbytes`
		return ""
	}

	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range runes {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == len(runes) {
		return pwdNotAllNumTag
	}

	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		return pwdComplexityTag
	}

	if isCommonPassword(pwd) {
		return pwdNoCommonTag
	}
	return ""
}

// checkPasswordSimilarity rejects passwords too close to the user's name or email.
func checkPasswordSimilarity(pwd string, usr User) error {
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	localPart := strings.SplitN(usr.Email, "@", 2)[0]
	if getRatio(pwd, usr.FullName) >= pwdMaxSim ||
		getRatio(pwd, usr.Email) >= pwdMaxSim ||
		getRatio(pwd, localPart) >= pwdMaxSim {
		return core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "password", Error: pwdAttrSimText})
	}
	return nil
}

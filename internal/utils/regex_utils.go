package utils

import (
	"regexp"
	"unicode"
)

// IsEmailInvalid 验证邮箱格式是否合法
func IsEmailInvalid(email string) bool {
	return mismatch(email, EMAIL_REGEX)
}

// IsPasswordInvalid 校验密码强度：6-20 位，且包含数字、小写和大写字母。
// Go 的 regexp 不支持前瞻断言，字符类检查用代码完成。
func IsPasswordInvalid(password string) bool {
	if mismatch(password, PASSWORD_REGEX) {
		return true
	}
	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	return !(hasDigit && hasLower && hasUpper)
}

func mismatch(value, pattern string) bool {
	if value == "" {
		return true
	}
	matched, _ := regexp.MatchString(pattern, value)
	return !matched
}

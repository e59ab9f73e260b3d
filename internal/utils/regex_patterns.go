package utils

const (
	EMAIL_REGEX = "^[a-zA-Z0-9_.-]+@[a-zA-Z0-9_-]+(\\.[a-zA-Z0-9_-]+)+$"
	// PASSWORD_REGEX 6-20 位，至少包含一个数字、一个小写和一个大写字母
	PASSWORD_REGEX = "^[a-zA-Z0-9]{6,20}$"
)

package rule

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// 用户名会作为子域名使用：小写字母数字与连字符，不以连字符开头或结尾.
	usernamePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
	// 音频地址片段：小写字母数字与 . _ -.
	slugPattern = regexp.MustCompile(`^[a-z0-9._-]+$`)
)

// registerBuiltins 注册项目通用的自定义规则.
func registerBuiltins(v *validator.Validate) {
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
}

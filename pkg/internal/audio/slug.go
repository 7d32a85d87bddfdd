package audio

import (
	"strings"
	"unicode"
)

const hashSlugLen = 12

// Slugify 由原始文件名生成访问地址：转小写，空白替换为 -，只保留 [a-z0-9._-].
func Slugify(name string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('-')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	s := b.String()
	if strings.Trim(s, ".") == "" {
		return ""
	}

	return s
}

// HashSlug 文件名无法生成地址时使用哈希前缀.
func HashSlug(hash string) string {
	if len(hash) < hashSlugLen {
		return hash
	}

	return hash[:hashSlugLen]
}

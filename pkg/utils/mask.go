package utils

// MaskSecret 打码敏感字符串，仅保留前 4 位用于排障
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= 8 {
		return "****"
	}
	return string(runes[:4]) + "****"
}

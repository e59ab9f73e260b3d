package utils

import (
	"crypto/rand"
	"math/big"
)

// RandomString 生成指定长度的随机字符串（小写字母和数字），
// 用于注册时对重名 username 追加后缀。使用 crypto/rand 以获得更好的随机性。
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

	result := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			result[i] = charset[0]
			continue
		}
		result[i] = charset[num.Int64()]
	}
	return string(result)
}

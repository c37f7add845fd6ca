package auth

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPIN = errors.New("pin must be exactly 4 digits")

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// ValidPIN 校验 Teacher Mode PIN 格式。
func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

// HashPIN 使用 bcrypt 生成 PIN 哈希。
func HashPIN(pin string) (string, error) {
	if !ValidPIN(pin) {
		return "", ErrInvalidPIN
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(bytes), nil
}

// CheckPINHash 校验 PIN 是否匹配哈希。
func CheckPINHash(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// PINHashKey 返回档案 PIN 哈希的 Redis 键，不设过期。
func PINHashKey(profile string) string {
	return "cv:pin:" + profile
}

// PINAttemptKey 返回档案 PIN 尝试计数的 Redis 键。
func PINAttemptKey(profile string) string {
	return "cv:pin:attempts:" + profile
}

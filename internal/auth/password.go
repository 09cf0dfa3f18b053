package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// unusablePrefix marks a stored password that no input can match
const unusablePrefix = "!"

// Hasher hashes and checks passwords with bcrypt
type Hasher struct {
	cost int
}

func NewHasher() *Hasher {
	return &Hasher{
		cost: bcrypt.DefaultCost,
	}
}

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func (h *Hasher) Check(password, hash string) bool {
	if password == "" || !IsUsablePassword(hash) {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// SetCost changes the bcrypt work factor; tests lower it to bcrypt.MinCost
func (h *Hasher) SetCost(cost int) {
	h.cost = cost
}

// UnusablePassword returns a marker value for accounts without a password
func UnusablePassword() string {
	return unusablePrefix + randomHex(20)
}

func IsUsablePassword(hash string) bool {
	return hash != "" && !strings.HasPrefix(hash, unusablePrefix)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

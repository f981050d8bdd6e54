package handler

import (
	"encoding/base64"

	"khata-ledger/internal/models"
	"khata-ledger/internal/util"

	"github.com/gin-gonic/gin"
)

// currentUser returns the authenticated user placed in the context by
// AuthMiddleware, or nil.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("currentUser")
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// encryptField encrypts a plaintext field to an AES+base64 string.
// Empty input or an empty key passes through unchanged.
func encryptField(key, plain string) (string, error) {
	if plain == "" || key == "" {
		return plain, nil
	}
	b, err := util.EncryptAES(key, []byte(plain))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// decryptField tries base64+AES decryption and falls back to the
// stored value on any failure (covers rows written before a key was
// configured).
func decryptField(key, cipherStr string) string {
	if cipherStr == "" || key == "" {
		return cipherStr
	}
	b, err := base64.StdEncoding.DecodeString(cipherStr)
	if err != nil {
		return cipherStr
	}
	plain, err := util.DecryptAES(key, b)
	if err != nil {
		return cipherStr
	}
	return string(plain)
}

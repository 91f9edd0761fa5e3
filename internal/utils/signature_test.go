package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"orderNumber":"BM-20260829-000001","status":"paid"}`)
	secret := "webhook-secret"

	sig := GenerateSignature(payload, secret)
	assert.True(t, VerifySignature(payload, sig, secret))

	assert.False(t, VerifySignature(payload, sig, "other-secret"))
	assert.False(t, VerifySignature([]byte(`{"tampered":true}`), sig, secret))
	assert.False(t, VerifySignature(payload, "", secret))
}

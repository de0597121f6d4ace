package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// SignatureField is the parameter carrying the signature in redirect forms and callbacks
const SignatureField = "CHECKSUMHASH"

var ErrSignatureMismatch = errors.New("signature mismatch")

// Signer computes and verifies HMAC-SHA256 signatures with the merchant key
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// canonicalParams renders params as key=value pairs sorted by key and joined by '|',
// skipping the signature field itself
func canonicalParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

func (s *Signer) mac(data []byte) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write(data)
	return m.Sum(nil)
}

// Sign signs a form-style parameter set
func (s *Signer) Sign(params map[string]string) string {
	return hex.EncodeToString(s.mac([]byte(canonicalParams(params))))
}

// Verify recomputes the signature of params and compares it with signature
func (s *Signer) Verify(params map[string]string, signature string) bool {
	if len(s.secret) == 0 || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, s.mac([]byte(canonicalParams(params))))
}

// SignBody signs a JSON API body. Maps marshal with sorted keys, so the bytes are canonical.
func (s *Signer) SignBody(body map[string]string) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(s.mac(data)), nil
}

// VerifyBody verifies a signature over raw JSON body bytes
func (s *Signer) VerifyBody(body []byte, signature string) bool {
	if len(s.secret) == 0 || signature == "" || !json.Valid(body) {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, s.mac(body))
}

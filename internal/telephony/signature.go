package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"sort"
)

// Validator checks the provider's webhook signature: HMAC-SHA1 of the full
// request URL plus the sorted POST parameters, keyed by the auth token.
type Validator struct {
	authToken string
	baseURL   string
}

// NewValidator creates a validator. baseURL is the public origin the
// provider was configured with (scheme + host, no trailing slash).
func NewValidator(authToken, baseURL string) *Validator {
	return &Validator{authToken: authToken, baseURL: baseURL}
}

// Validate reports whether the request carries a correct provider signature.
func (v *Validator) Validate(r *http.Request) bool {
	sig := r.Header.Get("X-Twilio-Signature")
	if sig == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}

	keys := make([]string, 0, len(r.PostForm))
	for k := range r.PostForm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := v.baseURL + r.URL.RequestURI()
	for _, k := range keys {
		payload += k + r.PostForm.Get(k)
	}

	mac := hmac.New(sha1.New, []byte(v.authToken))
	mac.Write([]byte(payload))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(sig), []byte(expected))
}

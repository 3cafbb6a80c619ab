// Package signing creates and verifies the HMAC-signed listen links included
// in notifications. A signed link grants no storage access by itself; the
// redirect endpoint exchanges a valid link for a short-lived storage URL.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Signer signs and verifies listen links for recording objects.
type Signer struct {
	secret  []byte
	baseURL string
}

// New creates a Signer. baseURL is the public base URL of the redirect
// endpoint, without a trailing slash.
func New(secret, baseURL string) *Signer {
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// signature computes the hex HMAC-SHA256 over "bucket:key:expires".
func (s *Signer) signature(bucket, key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%s:%d", bucket, key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// ListenURL builds a signed link for the object, valid until now+ttl.
func (s *Signer) ListenURL(bucket, key string, ttl time.Duration, now time.Time) string {
	expires := now.Add(ttl).Unix()
	return fmt.Sprintf("%s/voicemail/%s/%s?expires=%d&signature=%s",
		s.baseURL, bucket, url.QueryEscape(key), expires, s.signature(bucket, key, expires))
}

// Verify checks the signature for the object and expiry in constant time.
// It does not check whether the link has expired; see Expired.
func (s *Signer) Verify(bucket, key, expiresParam, signature string) bool {
	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		return false
	}
	expected := s.signature(bucket, key, expires)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Expired reports whether the expiry parameter lies in the past. A malformed
// parameter counts as expired.
func Expired(expiresParam string, now time.Time) bool {
	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		return true
	}
	return now.Unix() > expires
}

package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// Ticket is the decoded content of a download token.
type Ticket struct {
	ReportID  string
	Name      string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC-SHA256 download tokens of the form
// reportID.expiryUnix.base64(name).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer; a non-positive ttl defaults to one hour.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token referencing the stored report.
func (s *SignedURLSigner) Sign(reportID, name string) (string, time.Time, error) {
	if reportID == "" || name == "" {
		return "", time.Time{}, fmt.Errorf("report id and name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(name))
	token := strings.Join([]string{reportID, ts, encoded, s.mac(reportID, ts, encoded)}, ".")
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *SignedURLSigner) Verify(token string) (Ticket, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Ticket{}, ErrTokenInvalid
	}
	reportID, ts, encoded, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.mac(reportID, ts, encoded)), []byte(signature)) {
		return Ticket{}, ErrTokenInvalid
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Ticket{}, ErrTokenInvalid
	}
	name, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Ticket{}, ErrTokenInvalid
	}
	ticket := Ticket{ReportID: reportID, Name: string(name), ExpiresAt: time.Unix(unix, 0)}
	if s.now().After(ticket.ExpiresAt) {
		return Ticket{}, ErrTokenExpired
	}
	return ticket, nil
}

func (s *SignedURLSigner) mac(reportID, ts, encoded string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(reportID + "|" + ts + "|" + encoded))
	return hex.EncodeToString(m.Sum(nil))
}

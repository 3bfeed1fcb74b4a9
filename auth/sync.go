package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
)

// SyncVerifier authenticates event-sync pushes from the dashboard. The
// dashboard signs "timestamp:canonicalJSON" with the shared secret, where
// canonicalJSON is the payload re-serialized with sorted keys and no
// whitespace. The timestamp bounds replays.
type SyncVerifier struct {
	secret  []byte
	maxSkew time.Duration
	clock   clockwork.Clock
}

func NewSyncVerifier(secret string, maxSkew time.Duration, clock clockwork.Clock) *SyncVerifier {
	return &SyncVerifier{secret: []byte(secret), maxSkew: maxSkew, clock: clock}
}

// Verify checks the timestamp and signature headers against the raw request
// body. All failures collapse to ErrInvalidToken.
func (v *SyncVerifier) Verify(timestampHeader, signatureHeader string, body []byte) error {
	timestamp, err := strconv.ParseInt(strings.TrimSpace(timestampHeader), 10, 64)
	if err != nil {
		return ErrInvalidToken
	}

	now := v.clock.Now().Unix()
	skew := now - timestamp
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > v.maxSkew {
		return ErrInvalidToken
	}

	canonical, err := canonicalJSON(body)
	if err != nil {
		return ErrInvalidToken
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d:%s", timestamp, canonical)
	expected := hex.EncodeToString(mac.Sum(nil))
	provided := strings.ToLower(strings.TrimSpace(signatureHeader))
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return ErrInvalidToken
	}
	return nil
}

// Sign produces the header pair for a payload. Counterpart of Verify, used
// by tests standing in for the dashboard.
func (v *SyncVerifier) Sign(body []byte) (timestampHeader, signatureHeader string, err error) {
	canonical, err := canonicalJSON(body)
	if err != nil {
		return "", "", err
	}
	timestamp := v.clock.Now().Unix()

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d:%s", timestamp, canonical)
	return strconv.FormatInt(timestamp, 10), hex.EncodeToString(mac.Sum(nil)), nil
}

// canonicalJSON re-serializes a JSON document the way the dashboard signs it:
// sorted keys, compact separators, no HTML escaping, and every rune above
// 0x7f written as a \uXXXX escape (Python's json.dumps ensure_ascii form).
// Without the last step accented titles would never verify.
func canonicalJSON(body []byte) (string, error) {
	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return "", err
	}
	compact := bytes.TrimRight(buf.Bytes(), "\n")
	return escapeNonASCII(compact), nil
}

// escapeNonASCII rewrites runes above 0x7f as lowercase \uXXXX escapes, using
// surrogate pairs beyond the basic plane.
func escapeNonASCII(in []byte) string {
	var b strings.Builder
	b.Grow(len(in))
	for _, r := range string(in) {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if r > 0xffff {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&b, `\u%04x`, r)
	}
	return b.String()
}

package http

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/laptruong-hub/iam-service/pkg/httpx"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads a JSON body into dst. On failure it writes the 400 itself
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "request body is not valid JSON")
		return false
	}
	return true
}

// validEmail reports whether s parses as a bare RFC 5322 address.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == strings.TrimSpace(s)
}

// MinPasswordLength mirrors the credential policy enforced at registration
// and every password update.
const MinPasswordLength = 8

func validPassword(s string) bool {
	return len(s) >= MinPasswordLength
}

package api

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Operator authentication for the admin surface: aggregate lobby stats
// and forced game termination. There are no operator accounts — a
// deployment configures a single operator key, and logging in exchanges
// it for a signed, expiring token carried in a cookie. The token is
// stateless: its HMAC signature plus embedded expiry IS the session, so
// there is no session map or cleanup goroutine, and restarting the
// server (which rotates the per-process signing secret) voids every
// outstanding token along with the games it was overseeing.

const (
	operatorCookieName = "ironfront_operator"
	operatorTokenTTL   = 12 * time.Hour
)

// OperatorAuth validates operator logins and the tokens they produce.
type OperatorAuth struct {
	operatorKey []byte // deployment-configured login credential
	signingKey  []byte // per-process; never leaves this struct
}

// NewOperatorAuth builds an authenticator around the deployment's
// operator key. The signing key is random per process.
func NewOperatorAuth(operatorKey string) *OperatorAuth {
	signing := make([]byte, 32)
	if _, err := rand.Read(signing); err != nil {
		// crypto/rand failing means the host is unusable for anything
		// secret-bearing; refuse to run with a guessable key
		panic("operator auth: no entropy source: " + err.Error())
	}
	return &OperatorAuth{operatorKey: []byte(operatorKey), signingKey: signing}
}

// Tokens are "expiryUnix.signature" with the signature covering the
// expiry, so tampering with either half fails verification.
func (a *OperatorAuth) issue(now time.Time) string {
	expiry := strconv.FormatInt(now.Add(operatorTokenTTL).Unix(), 10)
	return expiry + "." + a.sign(expiry)
}

func (a *OperatorAuth) sign(payload string) string {
	mac := hmac.New(sha256.New, a.signingKey)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *OperatorAuth) valid(token string, now time.Time) bool {
	expiry, sig, ok := strings.Cut(token, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(a.sign(expiry))) {
		return false
	}
	unix, err := strconv.ParseInt(expiry, 10, 64)
	return err == nil && now.Unix() < unix
}

// Authenticated reports whether the request carries a live operator token.
func (a *OperatorAuth) Authenticated(r *http.Request) bool {
	c, err := r.Cookie(operatorCookieName)
	return err == nil && a.valid(c.Value, time.Now())
}

// HandleLogin exchanges the operator key for a token cookie.
func (a *OperatorAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OperatorKey string `json:"operatorKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OperatorKey == "" {
		writeError(w, "operator key required", http.StatusBadRequest)
		return
	}
	if len(a.operatorKey) == 0 ||
		subtle.ConstantTimeCompare([]byte(req.OperatorKey), a.operatorKey) != 1 {
		RecordConnectionRejected("operator_key")
		writeError(w, "invalid operator key", http.StatusUnauthorized)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     operatorCookieName,
		Value:    a.issue(time.Now()),
		Path:     "/",
		MaxAge:   int(operatorTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, map[string]bool{"authenticated": true})
}

// HandleLogout drops the token cookie. The token itself stays valid
// until expiry (it is stateless), but no longer travels with requests.
func (a *OperatorAuth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     operatorCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusFound)
}

// HandleStatus reports whether the caller is an authenticated operator.
func (a *OperatorAuth) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"authenticated": a.Authenticated(r)})
}

// Require gates operator-only routes: API callers get a 401, browsers a
// redirect to the login page.
func (a *OperatorAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authenticated(r) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeError(w, "operator authentication required", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

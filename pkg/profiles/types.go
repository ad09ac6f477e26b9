package profiles

import (
	"bytes"
	"strconv"

	json "github.com/goccy/go-json"
)

// StatusSuccess is the envelope status of an accepted request.
const StatusSuccess = "success"

// codeInProgress marks a page whose query is still being prepared.
const codeInProgress = 2

// Query selects the profiles that performed EventName between From and To
// (inclusive, YYYYMMDD).
type Query struct {
	EventName string `json:"event_name"`
	From      int    `json:"from"`
	To        int    `json:"to"`
}

// Record is one user profile. Its field set is account specific; numbers
// are kept as json.Number so every value round-trips unchanged.
type Record map[string]any

// Cursor is an optional continuation token. The zero value is None.
type Cursor struct {
	token string
}

// Some returns a present cursor. An empty token is treated as absent.
func Some(token string) Cursor {
	return Cursor{token: token}
}

// None returns the absent cursor.
func None() Cursor {
	return Cursor{}
}

// Token returns the token and whether the cursor is present.
func (c Cursor) Token() (string, bool) {
	return c.token, c.token != ""
}

// Present reports whether more data can be requested with this cursor.
func (c Cursor) Present() bool {
	return c.token != ""
}

// String returns a shortened token suitable for logs.
func (c Cursor) String() string {
	if c.token == "" {
		return "<none>"
	}
	if len(c.token) > 16 {
		return c.token[:16] + "..."
	}
	return c.token
}

// Page is one batch of records and the cursor of the next batch.
type Page struct {
	Records []Record
	Next    Cursor
}

// envelope is the response object shared by the POST and GET exchanges.
// Fields are kept raw so a wrong type is reported as a malformed response
// instead of a decode failure.
type envelope struct {
	Status  *string         `json:"status"`
	Cursor  json.RawMessage `json:"cursor"`
	Records json.RawMessage `json:"records"`
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
	Code    json.RawMessage `json:"code"`
}

func (e *envelope) status() string {
	if e.Status == nil {
		return ""
	}
	return *e.Status
}

func (e *envelope) success() bool {
	return e.status() == StatusSuccess
}

// inProgress reports a {"status":"fail","code":2} answer.
func (e *envelope) inProgress() bool {
	if e.success() || isNull(e.Code) {
		return false
	}
	raw := string(bytes.Trim(e.Code, `"`))
	code, err := strconv.Atoi(raw)
	return err == nil && code == codeInProgress
}

// failure returns the server's description of a rejected request.
func (e *envelope) failure() string {
	for _, raw := range []json.RawMessage{e.Error, e.Message} {
		if isNull(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		return string(raw)
	}
	if e.Status == nil {
		return "response has no status"
	}
	return "status " + strconv.Quote(*e.Status)
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

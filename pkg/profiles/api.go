package profiles

import (
	"bytes"
	"context"
	"errors"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/clevertap-source/pkg/client"
	"github.com/Sternrassler/clevertap-source/pkg/logging"
)

// Transport is the subset of *client.Client used by API.
type Transport interface {
	PostJSON(ctx context.Context, rawURL string, body any) (*client.Response, error)
	GetJSON(ctx context.Context, rawURL string, query url.Values) (*client.Response, error)
}

// API speaks the profiles download protocol against one endpoint.
type API struct {
	transport Transport
	endpoint  string
	pending   PendingPolicy
	secrets   []string
	logger    zerolog.Logger
}

// Option configures an API.
type Option func(*API)

// WithPendingPolicy sets how long a "query in progress" cursor is polled.
func WithPendingPolicy(p PendingPolicy) Option {
	return func(a *API) { a.pending = p }
}

// WithSecrets lists values that must be masked in error messages,
// typically the account passcode.
func WithSecrets(secrets ...string) Option {
	return func(a *API) { a.secrets = append(a.secrets, secrets...) }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// NewAPI creates an API for endpoint, the full profiles URL
// (see region.Endpoint).
func NewAPI(t Transport, endpoint string, opts ...Option) *API {
	a := &API{
		transport: t,
		endpoint:  endpoint,
		pending:   DefaultPendingPolicy(),
		logger:    logging.NewLogger("profiles"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Endpoint returns the URL requests are sent to.
func (a *API) Endpoint() string {
	return a.endpoint
}

// AcquireCursor submits q and returns the cursor of the first page.
// None with a nil error means no profile matched.
func (a *API) AcquireCursor(ctx context.Context, q Query) (Cursor, error) {
	resp, err := a.transport.PostJSON(ctx, a.endpoint, q)
	if err != nil {
		return None(), a.refine(err)
	}

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return None(), err
	}
	if !env.success() {
		return None(), a.rejected(env)
	}

	cur, err := decodeCursor(env.Cursor)
	if err != nil {
		return None(), err
	}

	a.logger.Debug().
		Str("event_name", q.EventName).
		Int("from", q.From).
		Int("to", q.To).
		Bool("cursor", cur.Present()).
		Msg("Query accepted")

	return cur, nil
}

// FetchPage downloads the batch addressed by token. Answers reporting the
// query as still in progress are polled according to the PendingPolicy.
func (a *API) FetchPage(ctx context.Context, token string) (Page, error) {
	query := url.Values{"cursor": {token}}

	var env *envelope
	err := pollPending(ctx, a.pending, a.logger, func() (bool, error) {
		resp, err := a.transport.GetJSON(ctx, a.endpoint, query)
		if err != nil {
			return false, a.refine(err)
		}
		env, err = decodeEnvelope(resp.Body)
		if err != nil {
			return false, err
		}
		return env.inProgress(), nil
	})
	if err != nil {
		return Page{}, err
	}

	if !env.success() {
		return Page{}, a.rejected(env)
	}

	records, err := decodeRecords(env.Records)
	if err != nil {
		return Page{}, err
	}
	next, err := decodeCursor(env.Cursor)
	if err != nil {
		return Page{}, err
	}

	return Page{Records: records, Next: next}, nil
}

// rejected builds the QueryRejected error for a non-success envelope.
func (a *API) rejected(env *envelope) error {
	return client.NewError(client.KindQueryRejected, logging.Redact(env.failure(), a.secrets...))
}

// refine replaces the HTTP status text of a rejected request with the
// CleverTap failure message from its body, when there is one.
func (a *API) refine(err error) error {
	var cerr *client.Error
	if !errors.As(err, &cerr) || cerr.Kind != client.KindQueryRejected || len(cerr.Body) == 0 {
		return err
	}

	out := *cerr
	out.Body = nil
	if env, decErr := decodeEnvelope(cerr.Body); decErr == nil && env.Status != nil {
		out.Message = env.failure()
	}
	out.Message = logging.Redact(out.Message, a.secrets...)
	return &out
}

func decodeEnvelope(body []byte) (*envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, client.NewError(client.KindMalformedResponse, "response is not a JSON object")
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, client.Wrap(err, client.KindMalformedResponse, "decode response")
	}
	if env.Status == nil {
		return nil, client.NewError(client.KindMalformedResponse, `response has no "status" field`)
	}
	return &env, nil
}

func decodeCursor(raw json.RawMessage) (Cursor, error) {
	if isNull(raw) {
		return None(), nil
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return None(), client.NewError(client.KindMalformedResponse, `"cursor" is not a string`)
	}
	return Some(token), nil
}

// decodeRecords decodes the records array. An absent array is an empty page.
func decodeRecords(raw json.RawMessage) ([]Record, error) {
	if isNull(raw) {
		return []Record{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, client.NewError(client.KindMalformedResponse, `"records" is not an array`)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()

		var rec Record
		if err := dec.Decode(&rec); err != nil || rec == nil {
			return nil, client.Errorf(client.KindMalformedResponse, "record %d is not an object", i)
		}
		records = append(records, rec)
	}
	return records, nil
}

package etl

import "context"

// ── Source ──────────────────────────────────────────────────
// The extract side of the pipeline. The catalog implementation lives in
// etl/sources.

// Authenticator obtains the per-tick credential.
type Authenticator interface {
	// Authenticate performs one login. Any failure, including a successful
	// response that carries no credential, wraps ErrAuth.
	Authenticate(ctx context.Context) (Credential, error)
}

// Source reads one entity collection.
type Source interface {
	// Fetch performs one authenticated read of endpoint. Transport faults,
	// non-success statuses and undecodable bodies return no records and an
	// error wrapping ErrFetch. A well-formed body without an items array
	// returns no records and a nil error.
	Fetch(ctx context.Context, endpoint string, cred Credential) ([]RawRecord, error)
}

// AuthenticatorFunc adapts a plain function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context) (Credential, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context) (Credential, error) { return f(ctx) }

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, endpoint string, cred Credential) ([]RawRecord, error)

func (f SourceFunc) Fetch(ctx context.Context, endpoint string, cred Credential) ([]RawRecord, error) {
	return f(ctx, endpoint, cred)
}

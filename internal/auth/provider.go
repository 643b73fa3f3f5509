// Package auth resolves transport credentials for fetch and push.
// Credentials come from an ordered list of strategies layered on go-git's
// SSH and HTTP auth methods.
package auth

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Method is the authentication scheme selected in the sync configuration.
type Method string

const (
	// MethodNone disables configured credentials. Agent and default
	// strategies still apply.
	MethodNone Method = "none"

	// MethodSSH uses a private key file, optionally protected by a passphrase.
	MethodSSH Method = "ssh"

	// MethodToken uses an access token presented over HTTP basic auth.
	MethodToken Method = "token"
)

// DefaultUsername is used when the remote URL carries no user.
const DefaultUsername = "git"

// SecretSource fetches secret values by opaque reference.
type SecretSource interface {
	GetSecret(ctx context.Context, ref string) (string, error)
}

// Settings is the part of the sync configuration that drives credential
// selection. Refs point into a SecretSource and never hold secret values.
type Settings struct {
	Method        Method
	SSHKeyPath    string
	PassphraseRef string
	TokenRef      string
}

// Request describes the remote a credential is needed for.
type Request struct {
	// URL is the remote URL the transport will connect to.
	URL string

	// Username is the user hint extracted from URL, DefaultUsername if absent.
	Username string

	// Settings carries the configured auth method and secret references.
	Settings Settings
}

// Credential is a resolved transport credential.
// A nil Method means anonymous access.
type Credential struct {
	Method   transport.AuthMethod
	Strategy string
}

// Strategy produces a credential for a request.
// It returns (nil, nil) when it does not apply to the request and an error
// when it applies but cannot produce a credential.
type Strategy interface {
	Name() string
	TryResolve(ctx context.Context, req Request) (transport.AuthMethod, error)
}

// Anonymous is returned by a strategy that resolved to "no credentials
// needed". The chain turns it into a Credential with a nil Method, which is
// what go-git expects for unauthenticated transports.
var Anonymous transport.AuthMethod = anonymous{}

type anonymous struct{}

func (anonymous) Name() string   { return "anonymous" }
func (anonymous) String() string { return "anonymous" }

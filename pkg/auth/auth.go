// Package auth resolves caller identity across the gateway's authentication
// schemes.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/access"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/lfs"
	"github.com/gitgate/gitgate/pkg/lfstoken"
	"github.com/gitgate/gitgate/pkg/proto"
)

// Scheme names the authentication scheme that produced a Result.
type Scheme string

const (
	// SchemeBasic is HTTP Basic password, access token, or deploy token
	// authentication.
	SchemeBasic Scheme = "basic"
	// SchemeKerberos is SPNEGO/Kerberos ticket authentication.
	SchemeKerberos Scheme = "kerberos"
	// SchemeAnonymous is unauthenticated guest download access.
	SchemeAnonymous Scheme = "anonymous"
	// SchemeCI is CI job token authentication.
	SchemeCI Scheme = "ci"
)

// ErrAuthenticationRequired is returned when no credential matched any
// enabled scheme. The transport layer answers it with a 401 and the
// challenge headers from AskCredentials.
var ErrAuthenticationRequired = errors.New("authentication required")

// Result is the outcome of a successful resolution. It is immutable and
// scoped to a single request.
type Result struct {
	// Identity is the resolved caller, nil for anonymous downloads.
	Identity proto.Identity
	// Scheme is the authentication scheme that matched.
	Scheme Scheme
	// Capabilities are the abilities the scheme itself grants. The
	// capability engine further restricts them per container.
	Capabilities access.AbilitySet
	// NegotiateToken is the final SPNEGO response token to emit when the
	// scheme is Kerberos.
	NegotiateToken []byte
}

// TicketVerifier verifies SPNEGO tickets. Implementations own the keytab
// handling; the resolver only brokers the exchange.
type TicketVerifier interface {
	// VerifyTicket verifies the ticket and returns the authenticated
	// principal's username along with the final response token.
	VerifyTicket(ctx context.Context, ticket []byte) (username string, responseToken []byte, err error)
}

// Resolver resolves request credentials into a Result.
type Resolver struct {
	cfg      *config.Config
	backend  *backend.Backend
	tokens   *lfstoken.Manager
	verifier TicketVerifier
	logger   *log.Logger
}

// NewResolver returns a new Resolver. verifier may be nil when Kerberos is
// disabled.
func NewResolver(ctx context.Context, be *backend.Backend, tokens *lfstoken.Manager, verifier TicketVerifier) *Resolver {
	return &Resolver{
		cfg:      config.FromContext(ctx),
		backend:  be,
		tokens:   tokens,
		verifier: verifier,
		logger:   log.FromContext(ctx).WithPrefix("auth"),
	}
}

var fullAbilities = access.NewAbilitySet(access.AbilityDownload, access.AbilityPush, access.AbilityForceUnlock)

// Resolve produces a Result for the request, or fails closed with
// ErrAuthenticationRequired. Resolution order is fixed: Basic first (a
// failure is terminal, it never falls through to other schemes), then
// Kerberos, then the anonymous download gate.
func (r *Resolver) Resolve(req *http.Request, c proto.Container, ability access.Ability) (*Result, error) {
	ctx := req.Context()

	if username, password, ok := req.BasicAuth(); ok && r.cfg.Auth.BasicEnabled {
		res, err := r.resolveBasic(ctx, c, username, password)
		if err != nil {
			r.logger.Debug("basic authentication failed", "username", username, "err", err)
			return nil, ErrAuthenticationRequired
		}
		return res, nil
	}

	if ticket := negotiateTicket(req); ticket != nil && r.cfg.Auth.KerberosEnabled && r.verifier != nil {
		username, responseToken, err := r.verifier.VerifyTicket(ctx, ticket)
		if err != nil {
			r.logger.Debug("kerberos authentication failed", "err", err)
			return nil, ErrAuthenticationRequired
		}
		u, err := r.backend.User(ctx, username)
		if err != nil {
			return nil, ErrAuthenticationRequired
		}
		return &Result{
			Identity:       u,
			Scheme:         SchemeKerberos,
			Capabilities:   fullAbilities,
			NegotiateToken: responseToken,
		}, nil
	}

	if ability == access.AbilityDownload && r.cfg.Auth.AnonymousEnabled && c != nil && !c.IsPrivate() {
		return &Result{
			Scheme:       SchemeAnonymous,
			Capabilities: access.NewAbilitySet(access.AbilityDownload),
		}, nil
	}

	return nil, ErrAuthenticationRequired
}

// resolveBasic tries the credential kinds carried over Basic, first match
// wins: CI job token, transfer credential, user password, personal access
// token, deploy token. Transient store failures fail closed.
func (r *Resolver) resolveBasic(ctx context.Context, c proto.Container, username, password string) (*Result, error) {
	if username == r.cfg.Auth.CIJobUser {
		u, err := r.backend.UserByAccessToken(ctx, password)
		if err != nil {
			return nil, err
		}
		return &Result{Identity: u, Scheme: SchemeCI, Capabilities: fullAbilities}, nil
	}

	if c != nil && r.tokens != nil {
		if claims, err := r.tokens.Verify(password, c.Path()); err == nil {
			u, err := r.userFromSubject(ctx, claims.Subject)
			if err != nil {
				return nil, err
			}
			caps := access.NewAbilitySet(access.AbilityDownload)
			if claims.Operation == lfs.OperationUpload {
				caps = access.NewAbilitySet(access.AbilityDownload, access.AbilityPush)
			}
			return &Result{Identity: u, Scheme: SchemeBasic, Capabilities: caps}, nil
		}
	}

	u, err := r.backend.User(ctx, username)
	if err == nil && u.Password() != "" && backend.VerifyPassword(password, u.Password()) {
		return &Result{Identity: u, Scheme: SchemeBasic, Capabilities: fullAbilities}, nil
	}
	if err != nil && !errors.Is(err, proto.ErrUserNotFound) {
		// A backing-store failure must not open the gate.
		return nil, err
	}

	tu, err := r.backend.UserByAccessToken(ctx, password)
	if err == nil {
		return &Result{Identity: tu, Scheme: SchemeBasic, Capabilities: fullAbilities}, nil
	}
	if !errors.Is(err, proto.ErrUserNotFound) && !errors.Is(err, proto.ErrTokenExpired) {
		return nil, err
	}

	dt, err := r.backend.DeployTokenByToken(ctx, password)
	if err == nil {
		return &Result{Identity: dt, Scheme: SchemeBasic, Capabilities: fullAbilities}, nil
	}

	return nil, fmt.Errorf("no matching credential: %w", err)
}

// userFromSubject resolves a "username#id" transfer credential subject.
func (r *Resolver) userFromSubject(ctx context.Context, subject string) (proto.User, error) {
	parts := strings.SplitN(subject, "#", 2)
	if len(parts) != 2 {
		return nil, errors.New("invalid subject")
	}

	u, err := r.backend.User(ctx, parts[0])
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id != u.ID() {
		return nil, errors.New("invalid subject")
	}

	return u, nil
}

// MintSubject returns the transfer credential subject for an identity.
func MintSubject(identity proto.Identity) string {
	if u, ok := identity.(proto.User); ok {
		return fmt.Sprintf("%s#%d", u.Username(), u.ID())
	}
	return ""
}

// negotiateTicket extracts a SPNEGO ticket from the Authorization header.
func negotiateTicket(req *http.Request) []byte {
	header := req.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Negotiate") {
		return nil
	}
	ticket, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil
	}
	return ticket
}

// AskCredentials writes the challenge headers for every enabled scheme.
func (r *Resolver) AskCredentials(w http.ResponseWriter) {
	var schemes []string
	if r.cfg.Auth.BasicEnabled {
		schemes = append(schemes, fmt.Sprintf(`Basic realm=%q charset="UTF-8"`, r.cfg.Auth.Realm))
	}
	if r.cfg.Auth.KerberosEnabled {
		schemes = append(schemes, "Negotiate")
	}

	for _, s := range schemes {
		w.Header().Add("WWW-Authenticate", s)
		w.Header().Add("LFS-Authenticate", s)
	}
}

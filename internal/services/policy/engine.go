// Package policy is the authorization gate every entry point calls before a
// bid, message, task or gated page is let through.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/moderation"
)

type Action string

const (
	CreateBid        Action = "create_bid"
	SendMessage      Action = "send_message"
	PublishBidText   Action = "publish_bid_text"
	PublishTaskText  Action = "publish_task_text"
	AccessGatedRoute Action = "access_gated_route"
	AcceptTermsGate  Action = "accept_terms_gate"
)

// gates that decide who may act run before gates that inspect what they wrote
var precedence = map[Action]int{
	AcceptTermsGate:  0,
	AccessGatedRoute: 1,
	CreateBid:        1,
	SendMessage:      1,
	PublishBidText:   2,
	PublishTaskText:  2,
}

const (
	MsgBidVerification   = "You must verify your identity before submitting offers."
	MsgRouteVerification = "Identity Verification Required. You need to verify your identity before proceeding. Please visit your account settings to upload proof of identity."
	MsgMessaging         = "You can only message someone you have a paid booking with, and only until shortly after the task date."
	MsgContent           = "Your text contains content that is not allowed (contact details, addresses or offensive language)."
	MsgTerms             = "Please accept the terms and conditions to continue."
	MsgLoginRequired     = "You must be logged in."
	MsgWrongRole         = "This page is not available for your account type."
	MsgInternal          = "We could not check your permissions right now. Please try again."

	// BidAdvisoryLabel replaces the offer button for unverified workers.
	BidAdvisoryLabel = "Verify ID to make an offer"
)

var ErrMalformedContext = errors.New("policy: malformed context")

type Verifier interface {
	IsVerified(ctx context.Context, userID uuid.UUID) (bool, error)
	TermsAccepted(ctx context.Context, userID uuid.UUID, revision string) (bool, error)
}

type Engagement interface {
	CanCommunicate(ctx context.Context, a, b *models.User) (bool, error)
}

type Scanner interface {
	Scan(text string) []moderation.Finding
}

// Input is the action context. Only the fields the action reads need be set.
type Input struct {
	Task        *models.Task
	Recipient   *models.User
	Text        string
	Title       string
	Description string
	Route       string
}

type Check struct {
	Action Action
	Input  Input
}

type Config struct {
	TermsRevision string
	Routes        RouteRules
	// VerifyURL is the remediation for verification denials.
	VerifyURL string
	// TermsURL is the remediation for terms denials.
	TermsURL string
}

type Engine struct {
	verify  Verifier
	engage  Engagement
	scanner Scanner
	cfg     Config
}

func NewEngine(verify Verifier, engage Engagement, scanner Scanner, cfg Config) *Engine {
	if cfg.TermsRevision == "" {
		cfg.TermsRevision = "v1"
	}
	if cfg.Routes == (RouteRules{}) {
		cfg.Routes = DefaultRouteRules()
	}
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = "/account/settings/"
	}
	if cfg.TermsURL == "" {
		cfg.TermsURL = "/" + cfg.Routes.TermsSlug + "/"
	}
	return &Engine{verify: verify, engage: engage, scanner: scanner, cfg: cfg}
}

func (e *Engine) TermsRevision() string { return e.cfg.TermsRevision }

func (e *Engine) Routes() RouteRules { return e.cfg.Routes }

// Authorize decides whether actor may perform action. A non-nil error means
// the gate could not be evaluated; the returned Decision is then a denial.
func (e *Engine) Authorize(ctx context.Context, action Action, actor *models.User, in Input) (Decision, error) {
	if _, ok := precedence[action]; !ok {
		return e.fail(fmt.Errorf("%w: unknown action %q", ErrMalformedContext, action))
	}

	if actor == nil {
		switch action {
		case AcceptTermsGate, AccessGatedRoute:
			return Allow(), nil
		}
		return Deny(ReasonPermissionDenied, MsgLoginRequired), nil
	}
	if actor.IsAdmin() {
		return Allow(), nil
	}

	switch action {
	case CreateBid:
		return e.createBid(ctx, actor, in)
	case SendMessage:
		return e.sendMessage(ctx, actor, in)
	case PublishBidText:
		return e.content(in.Text), nil
	case PublishTaskText:
		return e.content(in.Title + "\n" + in.Description), nil
	case AccessGatedRoute:
		return e.route(ctx, actor, in)
	case AcceptTermsGate:
		return e.terms(ctx, actor, in)
	}
	return e.fail(fmt.Errorf("%w: unhandled action %q", ErrMalformedContext, action))
}

// AuthorizeAll evaluates checks in gate precedence order (terms, then
// identity and eligibility, then content) and returns the first denial.
func (e *Engine) AuthorizeAll(ctx context.Context, actor *models.User, checks ...Check) (Decision, error) {
	ordered := append([]Check(nil), checks...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return precedence[ordered[i].Action] < precedence[ordered[j].Action]
	})
	for _, c := range ordered {
		d, err := e.Authorize(ctx, c.Action, actor, c.Input)
		if err != nil || !d.Allowed {
			return d, err
		}
	}
	return Allow(), nil
}

func (e *Engine) fail(err error) (Decision, error) {
	return Deny(ReasonInternal, MsgInternal), err
}

func (e *Engine) createBid(ctx context.Context, actor *models.User, in Input) (Decision, error) {
	if in.Task == nil {
		return e.fail(fmt.Errorf("%w: create_bid without task", ErrMalformedContext))
	}
	if !actor.IsWorker() {
		return Allow(), nil
	}
	ok, err := e.verify.IsVerified(ctx, actor.ID)
	if err != nil {
		return e.fail(err)
	}
	if !ok {
		return Deny(ReasonVerificationRequired, MsgBidVerification).WithRemediation(e.cfg.VerifyURL), nil
	}
	return Allow(), nil
}

func (e *Engine) sendMessage(ctx context.Context, actor *models.User, in Input) (Decision, error) {
	if in.Recipient == nil {
		return e.fail(fmt.Errorf("%w: send_message without recipient", ErrMalformedContext))
	}
	ok, err := e.engage.CanCommunicate(ctx, actor, in.Recipient)
	if err != nil {
		return e.fail(err)
	}
	if !ok {
		return Deny(ReasonMessagingNotEligible, MsgMessaging), nil
	}
	return Allow(), nil
}

func (e *Engine) content(text string) Decision {
	findings := e.scanner.Scan(text)
	if len(findings) == 0 {
		return Allow()
	}
	d := Deny(ReasonContentPolicyViolation, MsgContent)
	d.Findings = findings
	return d
}

func (e *Engine) route(ctx context.Context, actor *models.User, in Input) (Decision, error) {
	switch {
	case actor.IsWorker() && e.cfg.Routes.requesterOnly(in.Route):
		return Deny(ReasonPermissionDenied, MsgWrongRole).WithRedirect("/"), nil
	case actor.IsRequester() && e.cfg.Routes.needsVerification(in.Route):
		ok, err := e.verify.IsVerified(ctx, actor.ID)
		if err != nil {
			return e.fail(err)
		}
		if !ok {
			return Deny(ReasonVerificationRequired, MsgRouteVerification).WithRemediation(e.cfg.VerifyURL), nil
		}
	}
	return Allow(), nil
}

func (e *Engine) terms(ctx context.Context, actor *models.User, in Input) (Decision, error) {
	if e.cfg.Routes.termsPage(in.Route) {
		return Allow(), nil
	}
	ok, err := e.verify.TermsAccepted(ctx, actor.ID, e.cfg.TermsRevision)
	if err != nil {
		return e.fail(err)
	}
	if !ok {
		return Deny(ReasonTermsNotAccepted, MsgTerms).WithRemediation(e.cfg.TermsURL), nil
	}
	return Allow(), nil
}

// RouteRules names the paths the route gate knows about.
type RouteRules struct {
	// RequesterOnlyPrefix matches anywhere in the path, case-insensitively.
	RequesterOnlyPrefix string
	// VerifiedRequesterPath matches exactly after case and trailing slash are normalized.
	VerifiedRequesterPath string
	TermsSlug             string
}

func DefaultRouteRules() RouteRules {
	return RouteRules{
		RequesterOnlyPrefix:   "/submit-request/",
		VerifiedRequesterPath: "/submit-request/details",
		TermsSlug:             "terms-and-conditions",
	}
}

func normalizePath(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func (r RouteRules) requesterOnly(route string) bool {
	if r.RequesterOnlyPrefix == "" {
		return false
	}
	return strings.Contains(strings.ToLower(route)+"/", strings.ToLower(r.RequesterOnlyPrefix))
}

func (r RouteRules) needsVerification(route string) bool {
	return r.VerifiedRequesterPath != "" && normalizePath(route) == normalizePath(r.VerifiedRequesterPath)
}

func (r RouteRules) termsPage(route string) bool {
	if r.TermsSlug == "" || route == "" {
		return false
	}
	return strings.Trim(normalizePath(route), "/") == r.TermsSlug
}

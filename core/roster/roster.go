// Package roster resolves a principal's email against the external
// student-information system of record.
//
// The roster API is only ever read from; every transport or decoding
// failure is downgraded to "no match" so a roster outage can never take
// down the request pipeline.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/principal"
)

// Kind tags a resolved identity.
type Kind int

const (
	KindNone Kind = iota
	KindStudent
	KindFaculty
)

func (k Kind) String() string {
	switch k {
	case KindStudent:
		return principal.RoleStudent
	case KindFaculty:
		return principal.RoleFaculty
	}
	return "none"
}

// Identity is the closed variant every internal consumer works against,
// decoded at the boundary from the roster's loosely-typed records.
type Identity struct {
	Kind      Kind
	RoleID    string
	Name      string
	Email     string
	BirthDate string
	Phone     string
}

func (id Identity) IsMatch() bool { return id.Kind != KindNone }

// ProfileFields maps the identity onto principal profile keys for the
// access gate's bootstrap write.
func (id Identity) ProfileFields() map[string]string {
	fields := map[string]string{principal.KeyRole: id.Kind.String()}
	switch id.Kind {
	case KindStudent:
		fields[principal.KeyStudentID] = id.RoleID
	case KindFaculty:
		fields[principal.KeyFacultyID] = id.RoleID
	default:
		return nil
	}
	if id.Name != "" {
		fields[principal.KeyName] = id.Name
	}
	if id.BirthDate != "" {
		fields[principal.KeyBirthDate] = id.BirthDate
	}
	if id.Phone != "" {
		fields[principal.KeyPhone] = id.Phone
	}
	return fields
}

// Resolver is any service that can map an email to a roster identity.
type Resolver interface {
	// Resolve never fails; an unreachable or erroring roster yields KindNone.
	Resolve(ctx context.Context, email string) Identity
}

type apiResolver struct {
	client  rest.Client
	baseURL string
	token   string
	logger  core.Logger
}

var _ Resolver = (*apiResolver)(nil)

func NewAPIResolver(conf *core.Config, logger core.Logger) *apiResolver {
	return &apiResolver{
		client:  rest.Client{HTTPClient: &http.Client{Timeout: conf.Roster.Timeout}},
		baseURL: strings.TrimRight(conf.Roster.BaseURL, "/"),
		token:   conf.Roster.Token,
		logger:  logger,
	}
}

// record is the roster's record shape; fields vary by endpoint and
// some deployments omit most of them.
type record struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	BirthDate string `json:"birth_date"`
	Phone     string `json:"phone"`
}

// envelope is `{ data: Record | Record[] }`.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (env envelope) records() ([]record, error) {
	data := strings.TrimSpace(string(env.Data))
	if data == "" || data == "null" {
		return nil, nil
	}
	if strings.HasPrefix(data, "[") {
		var many []record
		err := json.Unmarshal(env.Data, &many)
		return many, err
	}
	var one record
	if err := json.Unmarshal(env.Data, &one); err != nil {
		return nil, err
	}
	return []record{one}, nil
}

func (r *apiResolver) Resolve(ctx context.Context, email string) Identity {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return Identity{}
	}

	if rec, ok := r.query(ctx, "/students", email); ok {
		return Identity{
			Kind:      KindStudent,
			RoleID:    rec.roleID(),
			Name:      rec.Name,
			Email:     rec.Email,
			BirthDate: rec.BirthDate,
			Phone:     rec.Phone,
		}
	}
	// only consulted when no student matched
	if rec, ok := r.query(ctx, "/faculty", email); ok {
		return Identity{
			Kind:      KindFaculty,
			RoleID:    rec.roleID(),
			Name:      rec.Name,
			Email:     rec.Email,
			BirthDate: rec.BirthDate,
			Phone:     rec.Phone,
		}
	}
	return Identity{}
}

func (rec record) roleID() string {
	if rec.Number != "" {
		return rec.Number
	}
	return rec.ID
}

// query hits one roster endpoint and returns its first record, if that
// record's email actually equals the queried one. The roster's filter is
// not guaranteed exact-match (it may be substring-based), so a non-equal
// first record is treated as no match rather than trusted.
func (r *apiResolver) query(ctx context.Context, path, email string) (record, bool) {
	req := rest.Request{
		Method:  rest.Get,
		BaseURL: r.baseURL + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + r.token,
			"Accept":        "application/json",
		},
		QueryParams: map[string]string{"filter[email]": email},
	}

	resp, err := r.client.SendWithContext(ctx, req)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("roster: querying %s: %v", path, err))
		return record{}, false
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.Warn(fmt.Sprintf("roster: querying %s: unexpected status %d", path, resp.StatusCode))
		return record{}, false
	}

	var env envelope
	if err := json.Unmarshal([]byte(resp.Body), &env); err != nil {
		r.logger.Warn(fmt.Sprintf("roster: decoding %s response: %v", path, err))
		return record{}, false
	}
	records, err := env.records()
	if err != nil {
		r.logger.Warn(fmt.Sprintf("roster: decoding %s records: %v", path, err))
		return record{}, false
	}
	if len(records) == 0 {
		return record{}, false
	}

	first := records[0]
	if core.CleanString(first.Email, true /* lower */) != email {
		r.logger.Warn(fmt.Sprintf("roster: %s filter returned non-matching email for %s; ignoring", path, email))
		return record{}, false
	}
	return first, true
}

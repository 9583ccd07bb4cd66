// Package forms validates website enquiry forms and forwards them to the
// upstream forms endpoint. Every kind of form runs through one Proxy,
// parameterised by a Descriptor.
package forms

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/yourorg/listings-api/internal/apierr"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/renet"
)

// ForwardFailedMessage is the only thing a client learns about an upstream failure.
const ForwardFailedMessage = "Internal server error. Please try again or contact us directly."

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

//go:embed payload.schema.json
var payloadSchema []byte

const schemaURL = "https://listings-api.local/forms/payload.schema.json"

type State int

const (
	Received State = iota
	Validated
	Forwarded
	Acknowledged
	Failed
)

func (s State) String() string {
	switch s {
	case Received:
		return "received"
	case Validated:
		return "validated"
	case Forwarded:
		return "forwarded"
	case Acknowledged:
		return "acknowledged"
	default:
		return "failed"
	}
}

// Fields is a submitted form flattened to strings.
type Fields map[string]string

func (f Fields) Get(k string) string { return strings.TrimSpace(f[k]) }

func (f Fields) Or(k, def string) string {
	if v := f.Get(k); v != "" {
		return v
	}
	return def
}

// DecodeFields reads a JSON object body. Numbers keep their literal text,
// true becomes "true" and false, null and nested values are dropped.
func DecodeFields(r io.Reader) (Fields, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode form body: %w", err)
	}
	out := make(Fields, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case bool:
			if t {
				out[k] = strconv.FormatBool(t)
			}
		}
	}
	return out, nil
}

type Address struct {
	Street   string `json:"street"`
	Suburb   string `json:"suburb"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
}

type AdditionalField struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Payload is the upstream wire shape of one submission.
type Payload struct {
	Type             string            `json:"type"`
	SourceURL        string            `json:"sourceURL"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone,omitempty"`
	Comments         string            `json:"comments"`
	Address          *Address          `json:"address,omitempty"`
	AdditionalFields []AdditionalField `json:"additionalFields,omitempty"`
}

type Result struct {
	Kind         Kind
	State        State
	Message      string
	SubmissionID string
	Timestamp    time.Time
}

// Submitter is the upstream forms endpoint.
type Submitter interface {
	SubmitForm(ctx context.Context, payload any) (renet.FormReceipt, error)
}

type Proxy struct {
	upstream Submitter
	schema   *jsonschema.Schema
	now      func() time.Time
}

func New(upstream Submitter) (*Proxy, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(payloadSchema)); err != nil {
		return nil, fmt.Errorf("load form schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}
	return &Proxy{upstream: upstream, schema: schema, now: time.Now}, nil
}

// Validate checks required fields and the email address.
func Validate(d Descriptor, f Fields) error {
	var missing []string
	for _, k := range d.Required {
		if f.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return apierr.Validation("Missing required fields: "+strings.Join(missing, ", "), missing...)
	}
	if !emailPattern.MatchString(f.Get("email")) {
		return apierr.Validation("Invalid email address", "email")
	}
	return nil
}

// Build renders the upstream payload for a validated form.
func Build(d Descriptor, sourceURL string, f Fields) Payload {
	p := Payload{
		Type:      d.Label(f),
		SourceURL: sourceURL,
		FirstName: f.Get("firstName"),
		LastName:  f.Get("lastName"),
		Email:     f.Get("email"),
		Phone:     f.Get("phone"),
		Comments:  d.Comments(f),
	}
	if d.Address != nil {
		p.Address = d.Address(f)
	}
	if d.AdditionalFields != nil {
		p.AdditionalFields = d.AdditionalFields(f)
	}
	return p
}

func (p *Proxy) checkContract(payload Payload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	return p.schema.Validate(doc)
}

// Submit drives one form from Received to Acknowledged or Failed.
func (p *Proxy) Submit(ctx context.Context, d Descriptor, sourceURL string, f Fields) (Result, error) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{"form": d.Kind.String()})
	res := Result{Kind: d.Kind, State: Received}

	if err := Validate(d, f); err != nil {
		res.State = Failed
		return res, err
	}
	payload := Build(d, sourceURL, f)
	if err := p.checkContract(payload); err != nil {
		res.State = Failed
		return res, apierr.Validation(apierr.UserMessage(apierr.CodeValidation), invalidFields(err)...)
	}
	res.State = Validated
	log.Debug("form validated", logger.Fields{"type": payload.Type})

	res.State = Forwarded
	receipt, err := p.upstream.SubmitForm(ctx, payload)
	if err != nil {
		res.State = Failed
		fields := logger.Fields{}
		if ue, ok := renet.AsUpstream(err); ok {
			fields["status"] = ue.Status
			fields["upstream_body"] = ue.Body
		}
		log.Error("form forward failed", err, fields)
		return res, apierr.Internal(ForwardFailedMessage, err)
	}

	res.State = Acknowledged
	res.SubmissionID = receipt.ID
	res.Message = d.Success(f)
	res.Timestamp = p.now().UTC()
	log.Info("form forwarded", logger.Fields{"submission_id": receipt.ID})
	return res, nil
}

// invalidFields names the payload properties a schema error points at.
func invalidFields(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	seen := map[string]bool{}
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if loc := strings.Trim(e.InstanceLocation, "/"); loc != "" {
			seen[strings.SplitN(loc, "/", 2)[0]] = true
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Package smapi implements the SOAP-flavored speaker protocol: a typed
// request envelope, the operation dispatcher, and the response/fault
// serialisation.
package smapi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	// ServiceNamespace is the music-service namespace the speakers send.
	ServiceNamespace = "http://www.sonos.com/Services/1.1"

	// soapNamespace is the SOAP 1.1 envelope namespace.
	soapNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
)

var errMalformedEnvelope = errors.New("smapi: malformed request envelope")

// Request is one decoded protocol call: the operation selected by the
// body's top-level element name, its named parameters, and the credential
// carried in the header section (if any).
type Request struct {
	Operation  string
	Credential string

	params requestParams
}

// requestParams collects every named parameter any operation uses.
// Optional fields are pointers so "absent" and "zero" stay distinct and
// defaults can be applied per the paging contract.
type requestParams struct {
	ID        string `xml:"id"`
	Index     *int   `xml:"index"`
	Count     *int   `xml:"count"`
	Recursive *bool  `xml:"recursive"`
	Term      string `xml:"term"`
	Action    string `xml:"action"`
}

type requestEnvelope struct {
	XMLName xml.Name      `xml:"Envelope"`
	Header  requestHeader `xml:"Header"`
	Body    struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

type requestHeader struct {
	Credentials struct {
		LoginToken struct {
			Token string `xml:"token"`
		} `xml:"loginToken"`
	} `xml:"credentials"`
}

// ParseRequest decodes a raw request body into a Request. Any XML shape
// problem maps to a client fault at the dispatch boundary.
func ParseRequest(raw []byte) (*Request, error) {
	var env requestEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, errMalformedEnvelope
	}

	operation, err := firstElementName(env.Body.Inner)
	if err != nil {
		return nil, errMalformedEnvelope
	}

	req := &Request{
		Operation:  operation,
		Credential: strings.TrimSpace(env.Header.Credentials.LoginToken.Token),
	}

	// The params struct has no XMLName, so it accepts whatever the
	// operation element is called.
	if err := xml.Unmarshal(env.Body.Inner, &req.params); err != nil {
		return nil, errMalformedEnvelope
	}

	return req, nil
}

// firstElementName returns the local name of the first start element in
// the body, which selects the operation.
func firstElementName(inner []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(inner))
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", errMalformedEnvelope
			}
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func (r *Request) ID() string   { return strings.TrimSpace(r.params.ID) }
func (r *Request) Term() string { return r.params.Term }

// Index returns the requested page offset, defaulting to 0.
func (r *Request) Index() int {
	if r.params.Index == nil {
		return 0
	}
	return *r.params.Index
}

// Count returns the requested page size, defaulting to 100.
func (r *Request) Count() int {
	if r.params.Count == nil {
		return 100
	}
	return *r.params.Count
}

// Recursive returns the recursive flag, defaulting to false.
func (r *Request) Recursive() bool {
	if r.params.Recursive == nil {
		return false
	}
	return *r.params.Recursive
}

// Action returns the account action name for reportAccountAction.
func (r *Request) Action() string { return r.params.Action }

package smapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func soapRequest(header, body string) []byte {
	return []byte(`<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Header>` + header + `</s:Header>
  <s:Body>` + body + `</s:Body>
</s:Envelope>`)
}

const credentialHeader = `
    <credentials xmlns="http://www.sonos.com/Services/1.1">
      <loginToken>
        <token>header-token</token>
      </loginToken>
    </credentials>`

func TestParseRequest_Operation(t *testing.T) {
	t.Parallel()

	raw := soapRequest("", `
    <getMetadata xmlns="http://www.sonos.com/Services/1.1">
      <id>artists</id>
      <index>20</index>
      <count>10</count>
      <recursive>true</recursive>
    </getMetadata>`)

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	require.Equal(t, "getMetadata", req.Operation)
	require.Equal(t, "artists", req.ID())
	require.Equal(t, 20, req.Index())
	require.Equal(t, 10, req.Count())
	require.True(t, req.Recursive())
	require.Empty(t, req.Credential)
}

func TestParseRequest_Defaults(t *testing.T) {
	t.Parallel()

	raw := soapRequest("", `
    <getMetadata xmlns="http://www.sonos.com/Services/1.1">
      <id>root</id>
    </getMetadata>`)

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	require.Equal(t, 0, req.Index(), "index defaults to 0")
	require.Equal(t, 100, req.Count(), "count defaults to 100")
	require.False(t, req.Recursive(), "recursive defaults to false")
}

func TestParseRequest_ExplicitZeroLikeValues(t *testing.T) {
	t.Parallel()

	// An explicit zero index is the same as an absent one, but an explicit
	// count is honored as given.
	raw := soapRequest("", `
    <getMetadata xmlns="http://www.sonos.com/Services/1.1">
      <id>albums</id>
      <index>0</index>
      <count>5</count>
    </getMetadata>`)

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	require.Equal(t, 0, req.Index())
	require.Equal(t, 5, req.Count())
}

func TestParseRequest_HeaderCredential(t *testing.T) {
	t.Parallel()

	raw := soapRequest(credentialHeader, `
    <getMetadata xmlns="http://www.sonos.com/Services/1.1">
      <id>artists</id>
    </getMetadata>`)

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	require.Equal(t, "header-token", req.Credential)
}

func TestParseRequest_SearchAndAction(t *testing.T) {
	t.Parallel()

	search, err := ParseRequest(soapRequest("", `
    <search xmlns="http://www.sonos.com/Services/1.1">
      <id>tracks</id>
      <term>blue</term>
    </search>`))
	require.NoError(t, err)
	require.Equal(t, "search", search.Operation)
	require.Equal(t, "blue", search.Term())

	report, err := ParseRequest(soapRequest("", `
    <reportAccountAction xmlns="http://www.sonos.com/Services/1.1">
      <action>logout</action>
    </reportAccountAction>`))
	require.NoError(t, err)
	require.Equal(t, "reportAccountAction", report.Operation)
	require.Equal(t, "logout", report.Action())
}

func TestParseRequest_Malformed(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"not xml":       []byte("this is not xml"),
		"empty":         nil,
		"no body child": soapRequest("", "  "),
		"truncated":     []byte(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRequest(raw)
			require.ErrorIs(t, err, errMalformedEnvelope)
		})
	}
}

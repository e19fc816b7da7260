package smapi

import (
	"bytes"
	"encoding/xml"
)

// Response shapes follow the speaker protocol exactly: a mediaCollection
// element per enumerable entry, a mediaMetadata element per playable
// track, and optional fields omitted entirely when absent.

type soapEnvelope struct {
	XMLName xml.Name `xml:"s:Envelope"`
	NS      string   `xml:"xmlns:s,attr"`
	Body    soapBody
}

type soapBody struct {
	XMLName xml.Name `xml:"s:Body"`
	Content any
}

// MediaCollection is an enumerable catalog entry (container, artist,
// album).
type MediaCollection struct {
	ID           string `xml:"id"`
	ItemType     string `xml:"itemType"`
	Title        string `xml:"title"`
	Artist       string `xml:"artist,omitempty"`
	CanPlay      bool   `xml:"canPlay"`
	CanEnumerate bool   `xml:"canEnumerate"`
}

// MediaMetadata is a playable leaf entry.
type MediaMetadata struct {
	ID            string         `xml:"id"`
	ItemType      string         `xml:"itemType"`
	Title         string         `xml:"title"`
	MimeType      string         `xml:"mimeType,omitempty"`
	TrackMetadata *TrackMetadata `xml:"trackMetadata,omitempty"`
}

type TrackMetadata struct {
	Artist   string `xml:"artist,omitempty"`
	Album    string `xml:"album,omitempty"`
	Duration int    `xml:"duration,omitempty"`
}

// MediaList is the shared shape of browse and search results.
type MediaList struct {
	Index       int               `xml:"index"`
	Count       int               `xml:"count"`
	Total       int               `xml:"total"`
	Collections []MediaCollection `xml:"mediaCollection,omitempty"`
	Tracks      []MediaMetadata   `xml:"mediaMetadata,omitempty"`
}

type MetadataResponse struct {
	XMLName xml.Name  `xml:"http://www.sonos.com/Services/1.1 getMetadataResponse"`
	Result  MediaList `xml:"getMetadataResult"`
}

type SearchResponse struct {
	XMLName xml.Name  `xml:"http://www.sonos.com/Services/1.1 searchResponse"`
	Result  MediaList `xml:"searchResult"`
}

type MediaMetadataResponse struct {
	XMLName xml.Name       `xml:"http://www.sonos.com/Services/1.1 getMediaMetadataResponse"`
	Result  *MediaMetadata `xml:"getMediaMetadataResult,omitempty"`
}

// HTTPHeader instructs the player to attach a header on the media fetch.
type HTTPHeader struct {
	Header string `xml:"header"`
	Value  string `xml:"value"`
}

type MediaURIResponse struct {
	XMLName     xml.Name     `xml:"http://www.sonos.com/Services/1.1 getMediaURIResponse"`
	Result      string       `xml:"getMediaURIResult,omitempty"`
	HTTPHeaders []HTTPHeader `xml:"httpHeaders>httpHeader,omitempty"`
}

type AppLinkResponse struct {
	XMLName xml.Name      `xml:"http://www.sonos.com/Services/1.1 getAppLinkResponse"`
	Result  AppLinkResult `xml:"getAppLinkResult"`
}

type AppLinkResult struct {
	AuthorizeAccount AuthorizeAccount `xml:"authorizeAccount"`
}

type AuthorizeAccount struct {
	AppURLStringID string     `xml:"appUrlStringId"`
	DeviceLink     DeviceLink `xml:"deviceLink"`
}

type DeviceLink struct {
	RegURL       string `xml:"regUrl"`
	LinkCode     string `xml:"linkCode,omitempty"`
	ShowLinkCode bool   `xml:"showLinkCode"`
}

type ReportAccountActionResponse struct {
	XMLName xml.Name `xml:"http://www.sonos.com/Services/1.1 reportAccountActionResponse"`
}

// Fault is a SOAP 1.1 fault. Code is "s:Client" for caller mistakes and
// "s:Server" for everything the bridge failed to handle.
type Fault struct {
	XMLName     xml.Name     `xml:"s:Fault"`
	Code        string       `xml:"faultcode"`
	FaultString string       `xml:"faultstring"`
	Detail      *FaultDetail `xml:"detail,omitempty"`
}

type FaultDetail struct {
	ExceptionInfo string `xml:"ExceptionInfo,omitempty"`
	SonosError    string `xml:"SonosError,omitempty"`
}

func clientFault(message, info string) Fault {
	return Fault{
		Code:        "s:Client",
		FaultString: message,
		Detail:      &FaultDetail{ExceptionInfo: info},
	}
}

func serverFault() Fault {
	return Fault{
		Code:        "s:Server",
		FaultString: "internal error while handling the request",
	}
}

// marshalEnvelope wraps content in a SOAP envelope and serialises it.
// Marshalling typed response structs cannot realistically fail; an error
// here is a programming bug, reported as an empty body for the caller to
// turn into a server fault status.
func marshalEnvelope(content any) []byte {
	env := soapEnvelope{
		NS: soapNamespace,
		Body: soapBody{
			Content: content,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return nil
	}
	return buf.Bytes()
}

package veo

import (
	"encoding/json"
	"net/http"
	"strings"

	"vidgate/internal/domain"
)

// Operation mirrors the upstream long-running operation document. Response
// stays raw so relaying it does not drop fields the gateway never looks at.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    *OperationError `json:"error,omitempty"`
}

// OperationError is the upstream failure payload inside a terminal operation.
type OperationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

type generateVideoResponse struct {
	GenerateVideoResponse struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
}

// VideoURI extracts the first generated sample's URI from the operation
// response payload.
func (o *Operation) VideoURI() (string, bool) {
	if o == nil || len(o.Response) == 0 {
		return "", false
	}
	var parsed generateVideoResponse
	if err := json.Unmarshal(o.Response, &parsed); err != nil {
		return "", false
	}
	samples := parsed.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return "", false
	}
	uri := strings.TrimSpace(samples[0].Video.URI)
	if uri == "" {
		return "", false
	}
	return uri, true
}

// Terminal resolves a finished operation: the video URI on success, an
// upstream error when the operation failed, or a malformed-response error
// when the terminal payload carries neither. Unfinished operations report
// done=false with no error.
func (o *Operation) Terminal() (uri string, done bool, err error) {
	if o == nil || !o.Done {
		return "", false, nil
	}
	if o.Error != nil {
		return "", true, domain.Upstream(http.StatusBadGateway, strings.TrimSpace(o.Error.Message))
	}
	if uri, ok := o.VideoURI(); ok {
		return uri, true, nil
	}
	return "", true, domain.Malformed("operation finished without video or error", nil)
}

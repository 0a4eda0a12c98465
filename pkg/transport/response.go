package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	errs "github.com/theapemachine/taskflow-go/pkg/errors"
	"github.com/theapemachine/taskflow-go/pkg/retry"
)

/*
Response is a successful (2xx) reply. Data holds the decoded JSON value, the
body text for non-JSON content, or nil for 204 and empty bodies.
*/
type Response struct {
	StatusCode int
	Header     http.Header
	Raw        []byte
	Data       any
	request    errs.RequestInfo
}

/*
Decode unmarshals the raw body into v. A body that does not fit v is
reported as an OperationError with reason PARSE_ERROR.
*/
func (response *Response) Decode(v any) error {
	if len(response.Raw) == 0 {
		return &errs.OperationError{
			Status:  response.StatusCode,
			Reason:  errs.ReasonParseError,
			Headers: flattenHeaders(response.Header),
			Request: response.request,
			Cause:   errEmptyBody,
		}
	}

	if err := json.Unmarshal(response.Raw, v); err != nil {
		return &errs.OperationError{
			Status:  response.StatusCode,
			Reason:  errs.ReasonParseError,
			Headers: flattenHeaders(response.Header),
			Body:    response.Data,
			Request: response.request,
			Cause:   err,
		}
	}

	return nil
}

/*
Text returns the body as a string.
*/
func (response *Response) Text() string {
	return string(response.Raw)
}

var errEmptyBody = errors.New("empty response body")

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

func isJSON(header http.Header) bool {
	return strings.Contains(strings.ToLower(header.Get("Content-Type")), "application/json")
}

/*
classify converts a fully read response into a Response or an
OperationError, and reports whether the failure may be retried.
*/
func classify(
	resp *http.Response, raw []byte, info errs.RequestInfo, policy retry.Policy,
) (*Response, bool, error) {
	if isSuccess(resp.StatusCode) {
		data, err := parseSuccess(resp, raw)
		if err != nil {
			return nil, policy.RetryableStatus(resp.StatusCode), &errs.OperationError{
				Status:  resp.StatusCode,
				Reason:  errs.ReasonParseError,
				Headers: flattenHeaders(resp.Header),
				Body:    string(raw),
				Request: info,
				Cause:   err,
			}
		}

		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Raw:        raw,
			Data:       data,
			request:    info,
		}, false, nil
	}

	opErr := errs.NewHTTPError(
		resp.StatusCode,
		statusText(resp),
		flattenHeaders(resp.Header),
		parseErrorBody(resp, raw),
		info,
	)

	return nil, policy.RetryableStatus(resp.StatusCode), opErr
}

func parseSuccess(resp *http.Response, raw []byte) (any, error) {
	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil, nil
	}

	if !isJSON(resp.Header) {
		return string(raw), nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	return data, nil
}

/*
parseErrorBody never fails: an error body that claims JSON but is not
valid JSON is kept as text.
*/
func parseErrorBody(resp *http.Response, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	if isJSON(resp.Header) {
		var data any
		if err := json.Unmarshal(raw, &data); err == nil {
			return data
		}
	}

	return string(raw)
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(
		strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)),
	)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

/*
flattenHeaders collapses multi-value headers into a simple key to value
mapping, joining repeated values with a comma.
*/
func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key, values := range header {
		flat[key] = strings.Join(values, ", ")
	}
	return flat
}

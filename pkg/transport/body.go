package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	errs "github.com/theapemachine/taskflow-go/pkg/errors"
)

/*
encodeBody turns a request body into bytes that can be replayed on every
attempt. Structured values become JSON; strings, byte slices, readers and
form values are sent as they are.
*/
func encodeBody(body any) ([]byte, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case json.RawMessage:
		return v, "application/json", nil
	case []byte:
		return v, "", nil
	case string:
		return []byte(v), "", nil
	case url.Values:
		return []byte(v.Encode()), "application/x-www-form-urlencoded", nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, "", errs.NewValidationError("body", err)
		}
		return data, "", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", errs.NewValidationError("body", errs.ErrBodyNotSerializable, err)
		}
		return data, "application/json", nil
	}
}

/*
snapshot returns a JSON-safe copy of the request body for error reporting.
*/
func snapshot(body any, payload []byte) any {
	switch v := body.(type) {
	case nil:
		return nil
	case string:
		return v
	case url.Values:
		return v.Encode()
	case json.RawMessage:
		if json.Valid(v) {
			return v
		}
		return string(v)
	case []byte, io.Reader:
		return fmt.Sprintf("<%d bytes>", len(payload))
	default:
		return json.RawMessage(payload)
	}
}

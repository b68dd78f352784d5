package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bjaus/invoke"
)

// ResponseWriter delivers responses to an http.ResponseWriter.
type ResponseWriter struct {
	W http.ResponseWriter
}

var _ invoke.Replier = ResponseWriter{}

// Reply writes a response. Values that are not a Response are converted
// the same way the adapter would.
func (rw ResponseWriter) Reply(_ context.Context, response any) error {
	resp, err := AsResponse(response)
	if err != nil {
		return err
	}
	return rw.write(resp)
}

// Fail writes a 500 carrying the serialized error.
func (rw ResponseWriter) Fail(_ context.Context, err error) error {
	return rw.write(Response{Status: http.StatusInternalServerError, Body: invoke.SerializeError(err)})
}

func (rw ResponseWriter) write(resp Response) error {
	h := rw.W.Header()
	for k, v := range resp.Headers {
		h.Set(k, v)
	}
	if h.Get("Content-Type") == "" {
		if json.Valid([]byte(resp.Body)) {
			h.Set("Content-Type", "application/json")
		} else {
			h.Set("Content-Type", "text/plain; charset=utf-8")
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	rw.W.WriteHeader(status)
	_, err := rw.W.Write([]byte(resp.Body))
	return err
}

// AsResponse converts a transformed result into a Response.
func AsResponse(v any) (Response, error) {
	switch t := v.(type) {
	case Response:
		return t, nil
	case *Response:
		if t != nil {
			return *t, nil
		}
	}
	shaped, err := Transform(nil, v)
	if err != nil {
		return Response{}, err
	}
	if r, ok := shaped.(Response); ok {
		return r, nil
	}
	var resp Response
	b, err := codec.Marshal(shaped)
	if err != nil {
		return Response{}, err
	}
	if err := codec.Unmarshal(b, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

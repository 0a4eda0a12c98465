package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	errs "github.com/theapemachine/taskflow-go/pkg/errors"
	"github.com/theapemachine/taskflow-go/pkg/metrics"
	"github.com/theapemachine/taskflow-go/pkg/retry"
)

type fakeDoer struct {
	calls int
	fn    func(req *http.Request, call int) (*http.Response, error)
}

func (doer *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	doer.calls++
	return doer.fn(req, doer.calls)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      10 * time.Millisecond,
	}
}

func TestHeaders(t *testing.T) {
	Convey("Given a transport with client-wide headers", t, func() {
		var got http.Header

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		tr := New(Config{
			BaseURL:         server.URL,
			APIKey:          "secret",
			UserAgentSuffix: "my-app/2.0",
			Headers: map[string]string{
				"x-team":   "core",
				"x-region": "eu",
			},
			Retry: fastPolicy(1),
		})

		Convey("When a call overrides one of them with different casing", func() {
			_, err := tr.Do(context.Background(), Request{
				Method:  http.MethodGet,
				Path:    "/api/v1/status",
				Headers: map[string]string{"X-REGION": "us"},
			})

			Convey("Then the later source wins and defaults are present", func() {
				So(err, ShouldBeNil)
				So(got.Get("Accept"), ShouldEqual, "application/json")
				So(got.Get("User-Agent"), ShouldEqual, "taskflow-go/"+Version+" my-app/2.0")
				So(got.Get("X-API-Key"), ShouldEqual, "secret")
				So(got.Get("X-Team"), ShouldEqual, "core")
				So(got.Values("X-Region"), ShouldResemble, []string{"us"})
				So(got.Get(HeaderRequestID), ShouldNotBeEmpty)
			})
		})
	})
}

func TestJSONBody(t *testing.T) {
	Convey("Given a structured body", t, func() {
		var (
			contentType string
			decoded     map[string]any
			path        string
			query       string
		)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			path = r.URL.Path
			query = r.URL.Query().Get("taskId")
			_ = json.NewDecoder(r.Body).Decode(&decoded)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		tr := New(Config{BaseURL: server.URL + "/", Retry: fastPolicy(1)})

		resp, err := tr.Do(context.Background(), Request{
			Method: http.MethodPost,
			Path:   "api/v1",
			Query:  map[string][]string{"taskId": {"t-1"}},
			Body:   map[string]any{"workflowId": "wf"},
		})

		Convey("Then it is sent as JSON and a 204 yields a nil body", func() {
			So(err, ShouldBeNil)
			So(contentType, ShouldEqual, "application/json")
			So(decoded["workflowId"], ShouldEqual, "wf")
			So(path, ShouldEqual, "/api/v1")
			So(query, ShouldEqual, "t-1")
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
			So(resp.Data, ShouldBeNil)
		})
	})

	Convey("Given an explicit content type", t, func() {
		var contentType string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			_, _ = w.Write([]byte("plain reply"))
		}))
		defer server.Close()

		tr := New(Config{BaseURL: server.URL, Retry: fastPolicy(1)})

		resp, err := tr.Do(context.Background(), Request{
			Method:  http.MethodPost,
			Path:    "/raw",
			Headers: map[string]string{"content-type": "application/vnd.custom+json"},
			Body:    map[string]any{"a": 1},
		})

		Convey("Then it is kept and a text reply is returned verbatim", func() {
			So(err, ShouldBeNil)
			So(contentType, ShouldEqual, "application/vnd.custom+json")
			So(resp.Data, ShouldEqual, "plain reply")
			So(resp.Text(), ShouldEqual, "plain reply")
		})
	})

	Convey("Given a body that cannot be serialized", t, func() {
		doer := &fakeDoer{fn: func(*http.Request, int) (*http.Response, error) {
			return jsonResponse(200, `{}`), nil
		}}

		tr := New(Config{BaseURL: "http://example.test", HTTPClient: doer})

		_, err := tr.Do(context.Background(), Request{
			Method: http.MethodPost,
			Path:   "/api/v1",
			Body:   map[string]any{"ch": make(chan int)},
		})

		Convey("Then it fails locally without a network call", func() {
			So(errs.IsValidation(err), ShouldBeTrue)
			So(errors.Is(err, errs.ErrBodyNotSerializable), ShouldBeTrue)
			So(doer.calls, ShouldEqual, 0)
		})
	})
}

func TestAbsoluteURL(t *testing.T) {
	Convey("Given an absolute URL as path", t, func() {
		var hit atomic.Bool

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit.Store(true)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"taskId":"abc"}`))
		}))
		defer server.Close()

		tr := New(Config{BaseURL: "http://unused.invalid", Retry: fastPolicy(1)})

		resp, err := tr.Do(context.Background(), Request{Path: server.URL + "/elsewhere"})

		Convey("Then the base URL is ignored", func() {
			So(err, ShouldBeNil)
			So(hit.Load(), ShouldBeTrue)

			var out struct {
				TaskID string `json:"taskId"`
			}
			So(resp.Decode(&out), ShouldBeNil)
			So(out.TaskID, ShouldEqual, "abc")
		})
	})
}

func TestRetryBound(t *testing.T) {
	Convey("Given a server that always returns 500", t, func() {
		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := attempts.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"attempt": n})
		}))
		defer server.Close()

		m := metrics.NewRequestMetrics()
		tr := New(Config{BaseURL: server.URL, Retry: fastPolicy(3), Metrics: m})

		_, err := tr.Do(context.Background(), Request{Path: "/api/v1/status"})

		Convey("Then exactly MaxAttempts attempts are made", func() {
			So(attempts.Load(), ShouldEqual, 3)
			So(m.Retries, ShouldEqual, 2)
			So(m.TotalAttempts, ShouldEqual, 3)
			So(m.FailedRequests, ShouldEqual, 1)
		})

		Convey("Then the error reflects the last response", func() {
			opErr, ok := errs.AsOperationError(err)
			So(ok, ShouldBeTrue)
			So(opErr.Status, ShouldEqual, http.StatusInternalServerError)
			So(opErr.Reason, ShouldEqual, "Internal Server Error")
			So(opErr.Body, ShouldResemble, map[string]any{"attempt": float64(3)})
			So(opErr.Request.Method, ShouldEqual, http.MethodGet)
			So(opErr.Request.URL, ShouldEqual, server.URL+"/api/v1/status")
			So(opErr.Headers["Content-Type"], ShouldEqual, "application/json")
		})
	})

	Convey("Given a non-retryable status", t, func() {
		doer := &fakeDoer{fn: func(*http.Request, int) (*http.Response, error) {
			return jsonResponse(http.StatusNotFound, `{"error":"missing"}`), nil
		}}

		tr := New(Config{BaseURL: "http://example.test", HTTPClient: doer, Retry: fastPolicy(5)})

		_, err := tr.Do(context.Background(), Request{Path: "/api/v1/status"})

		Convey("Then only one attempt is made", func() {
			So(doer.calls, ShouldEqual, 1)
			opErr, ok := errs.AsOperationError(err)
			So(ok, ShouldBeTrue)
			So(opErr.Status, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a per-call policy override", t, func() {
		doer := &fakeDoer{fn: func(*http.Request, int) (*http.Response, error) {
			return jsonResponse(http.StatusServiceUnavailable, `{}`), nil
		}}

		tr := New(Config{BaseURL: "http://example.test", HTTPClient: doer, Retry: fastPolicy(5)})
		override := fastPolicy(2)

		_, err := tr.Do(context.Background(), Request{Path: "/x", Retry: &override})

		Convey("Then it replaces the client default", func() {
			So(err, ShouldNotBeNil)
			So(doer.calls, ShouldEqual, 2)
		})
	})
}

func TestNetworkFailures(t *testing.T) {
	Convey("Given a connection that keeps resetting", t, func() {
		doer := &fakeDoer{fn: func(*http.Request, int) (*http.Response, error) {
			return nil, &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
		}}

		tr := New(Config{BaseURL: "http://example.test", HTTPClient: doer, Retry: fastPolicy(3)})

		_, err := tr.Do(context.Background(), Request{Path: "/api/v1"})

		Convey("Then it is retried and surfaced with status 0", func() {
			So(doer.calls, ShouldEqual, 3)
			opErr, ok := errs.AsOperationError(err)
			So(ok, ShouldBeTrue)
			So(opErr.Status, ShouldEqual, 0)
			So(opErr.Reason, ShouldEqual, errs.ReasonNetworkError)
			So(errors.Is(err, syscall.ECONNRESET), ShouldBeTrue)
		})
	})

	Convey("Given an attempt that exceeds its timeout", t, func() {
		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) == 1 {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"RUNNING"}`))
		}))
		defer server.Close()

		tr := New(Config{
			BaseURL: server.URL,
			Timeout: 50 * time.Millisecond,
			Retry:   fastPolicy(2),
		})

		resp, err := tr.Do(context.Background(), Request{Path: "/api/v1/status"})

		Convey("Then the timeout is retried like a network failure", func() {
			So(err, ShouldBeNil)
			So(attempts.Load(), ShouldEqual, 2)
			So(resp.Data, ShouldResemble, map[string]any{"status": "RUNNING"})
		})
	})

	Convey("Given an attempt timeout with no attempts left", t, func() {
		doer := &fakeDoer{fn: func(req *http.Request, _ int) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}}

		tr := New(Config{
			BaseURL:    "http://example.test",
			HTTPClient: doer,
			Timeout:    10 * time.Millisecond,
			Retry:      fastPolicy(1),
		})

		_, err := tr.Do(context.Background(), Request{Path: "/api/v1"})

		Convey("Then it is reported as a request timeout, not a caller deadline", func() {
			opErr, ok := errs.AsOperationError(err)
			So(ok, ShouldBeTrue)
			So(opErr.Reason, ShouldEqual, errs.ReasonRequestTimeout)
			So(errors.Is(err, errs.ErrRequestTimeout), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeFalse)
		})
	})

	Convey("Given the caller cancels during a call", t, func() {
		ctx, cancel := context.WithCancel(context.Background())

		doer := &fakeDoer{fn: func(req *http.Request, _ int) (*http.Response, error) {
			cancel()
			<-req.Context().Done()
			return nil, req.Context().Err()
		}}

		tr := New(Config{BaseURL: "http://example.test", HTTPClient: doer, Retry: fastPolicy(3)})

		_, err := tr.Do(ctx, Request{Path: "/api/v1"})

		Convey("Then the cancellation propagates unchanged and is not retried", func() {
			So(err, ShouldEqual, context.Canceled)
			So(doer.calls, ShouldEqual, 1)
		})
	})
}

func TestParseFailure(t *testing.T) {
	Convey("Given a 200 that claims JSON but is not", t, func() {
		doer := &fakeDoer{fn: func(*http.Request, int) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `not json{`), nil
		}}

		tr := New(Config{BaseURL: "http://example.test", HTTPClient: doer, Retry: fastPolicy(3)})

		_, err := tr.Do(context.Background(), Request{Path: "/api/v1/status"})

		Convey("Then a parse error is raised without retrying", func() {
			So(doer.calls, ShouldEqual, 1)
			opErr, ok := errs.AsOperationError(err)
			So(ok, ShouldBeTrue)
			So(opErr.Status, ShouldEqual, http.StatusOK)
			So(opErr.Reason, ShouldEqual, errs.ReasonParseError)
			So(opErr.Body, ShouldEqual, "not json{")
		})
	})
}

package service

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/taskflow-go/pkg/types"
	"github.com/tj/assert"
)

func newTestServer(handler WebhookHandler) *WebhookServer {
	return NewWebhookServer(WebhookOptions{
		Handler: handler,
		Logger:  log.New(io.Discard),
	})
}

func TestWebhookServer_Delivery(t *testing.T) {
	var (
		gotID      string
		gotPayload *types.WebhookPayload
	)

	srv := newTestServer(func(deliveryID string, payload *types.WebhookPayload) error {
		gotID = deliveryID
		gotPayload = payload
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, DefaultWebhookPath, strings.NewReader(
		`{"taskId":"task-1","uniqueId":"order-7","status":"COMPLETED"}`,
	))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "delivery-1")

	resp, err := srv.App().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "delivery-1")

	assert.Equal(t, "delivery-1", gotID)
	assert.NotNil(t, gotPayload)
	assert.Equal(t, "task-1", gotPayload.TaskID)
	assert.Equal(t, "order-7", gotPayload.UniqueID)
	assert.Equal(t, types.StatusCompleted, gotPayload.Status)
}

func TestWebhookServer_AssignsDeliveryID(t *testing.T) {
	var gotID string

	srv := newTestServer(func(deliveryID string, payload *types.WebhookPayload) error {
		gotID = deliveryID
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, DefaultWebhookPath, strings.NewReader(`{"taskId":"t","status":"RUNNING"}`))

	resp, err := srv.App().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, gotID)
}

func TestWebhookServer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		handlerErr error
		wantStatus int
	}{
		{name: "malformed body", body: `{"taskId":`, wantStatus: http.StatusBadRequest},
		{name: "handler failure", body: `{"taskId":"t","status":"FAILED"}`, handlerErr: errors.New("sink down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(func(string, *types.WebhookPayload) error { return tt.handlerErr })

			resp, err := srv.App().Test(httptest.NewRequest(http.MethodPost, DefaultWebhookPath, strings.NewReader(tt.body)))
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestWebhookServer_Root(t *testing.T) {
	srv := newTestServer(nil)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderFunc func(ctx context.Context, to, subject, htmlBody string) error

func (f senderFunc) Send(ctx context.Context, to, subject, htmlBody string) error {
	return f(ctx, to, subject, htmlBody)
}

func TestNotifierDeliver(t *testing.T) {
	tests := []struct {
		name   string
		to     string
		sender Sender
		want   models.NotificationStatus
	}{
		{
			name:   "delivered",
			to:     "ana@example.com",
			sender: senderFunc(func(ctx context.Context, to, subject, htmlBody string) error { return nil }),
			want:   models.NotificationDelivered,
		},
		{
			name:   "provider error",
			to:     "ana@example.com",
			sender: senderFunc(func(ctx context.Context, to, subject, htmlBody string) error { return errors.New("503") }),
			want:   models.NotificationFailedLogged,
		},
		{
			name:   "provider panic",
			to:     "ana@example.com",
			sender: senderFunc(func(ctx context.Context, to, subject, htmlBody string) error { panic("nil map") }),
			want:   models.NotificationFailedLogged,
		},
		{
			name:   "no address",
			to:     "  ",
			sender: senderFunc(func(ctx context.Context, to, subject, htmlBody string) error { panic("must not be called") }),
			want:   models.NotificationSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			notifier := NewNotifier(tt.sender, logger)
			assert.Equal(t, tt.want, notifier.Deliver(context.Background(), tt.to, "subject", "<p>hi</p>"))
		})
	}
}

func TestNotifierLogsFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	notifier := NewNotifier(senderFunc(func(ctx context.Context, to, subject, htmlBody string) error {
		return errors.New("quota exceeded")
	}), logger)

	notifier.Deliver(context.Background(), "ana@example.com", "Comprobante", "<p>x</p>")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "ana@example.com", entry.Data["to"])
}

func TestLogSenderNeverFails(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, NewLogSender(logger).Send(context.Background(), "ana@example.com", "s", "<p>x</p>"))
	assert.Len(t, hook.AllEntries(), 1)
}

func TestRenderReceipt(t *testing.T) {
	sale := &models.Sale{
		ID:    42,
		Date:  time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC),
		Total: decimal.RequireFromString("30"),
		VAT:   decimal.RequireFromString("5.7"),
		Lines: []models.SaleLine{{
			ProductID: 1, ProductName: "Cuaderno <A4>", Quantity: 3,
			Subtotal: decimal.RequireFromString("30"),
		}},
	}
	buyer := &models.User{Username: "ana", FullName: "Ana Pérez"}

	html, err := RenderReceipt(buyer, sale)
	require.NoError(t, err)

	assert.Contains(t, html, "Venta #42")
	assert.Contains(t, html, "Hola Ana Pérez")
	assert.Contains(t, html, "Cuaderno &lt;A4&gt;")
	assert.Contains(t, html, "Total: 30.00")
	assert.Contains(t, html, "IVA: 5.70")
	assert.Contains(t, html, "15/03/2024 18:30 UTC")
	assert.Equal(t, "Comprobante de compra #42", ReceiptSubject(42))
}

func TestResendSender(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/emails"))
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer server.Close()

	client := resend.NewClient("re_test")
	client.BaseURL, _ = url.Parse(server.URL + "/")

	logger, hook := test.NewNullLogger()
	sender := NewResendSenderWithClient(client, "ventas@example.com", logger)

	require.NoError(t, sender.Send(context.Background(), "ana@example.com", "Comprobante", "<p>hola</p>"))
	assert.Equal(t, "ventas@example.com", got["from"])
	assert.Equal(t, []interface{}{"ana@example.com"}, got["to"])
	assert.Equal(t, "Comprobante", got["subject"])
	assert.Equal(t, "email_123", hook.LastEntry().Data["email_id"])
}

func TestResendSenderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from"}`))
	}))
	defer server.Close()

	client := resend.NewClient("re_test")
	client.BaseURL, _ = url.Parse(server.URL + "/")

	logger, _ := test.NewNullLogger()
	err := NewResendSenderWithClient(client, "bad", logger).Send(context.Background(), "ana@example.com", "s", "<p>x</p>")
	assert.Error(t, err)
}

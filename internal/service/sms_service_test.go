package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/LeventeLantos/sms-faas/internal/client"
	"github.com/LeventeLantos/sms-faas/internal/model"
	"github.com/LeventeLantos/sms-faas/internal/repo"
	"github.com/LeventeLantos/sms-faas/internal/service"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []sentCall
	res   client.SendResult
	err   error
}

type sentCall struct {
	To, Text, SenderID string
}

func (f *fakeClient) Send(ctx context.Context, to, text, senderID string) (client.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentCall{To: to, Text: text, SenderID: senderID})
	return f.res, f.err
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newService(t *testing.T, c service.SendClient, opts service.Options) (*service.SmsService, *repo.MemoryStore) {
	t.Helper()
	store := repo.NewMemoryStore()
	return service.NewSmsService(store, store, c, opts), store
}

func logCount(t *testing.T, store *repo.MemoryStore) int {
	t.Helper()
	logs, err := store.ListLogs(context.Background(), model.LogFilter{Limit: model.MaxLogLimit})
	if err != nil {
		t.Fatalf("ListLogs() error: %v", err)
	}
	return len(logs)
}

func mustUpsert(t *testing.T, svc *service.SmsService, templateID, body string) *model.Template {
	t.Helper()
	tpl, err := svc.UpsertTemplate(context.Background(), model.TemplateUpsert{
		Key:  model.ByTemplateID{TemplateID: templateID},
		Name: templateID,
		Body: body,
	})
	if err != nil {
		t.Fatalf("UpsertTemplate() error: %v", err)
	}
	return tpl
}

func TestSendSms_TemplateRenderedAndLoggedAsSent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "echo": body["text"]})
	}))
	t.Cleanup(srv.Close)

	svc, _ := newService(t, client.NewProviderClient(srv.URL, "", 0), service.Options{DefaultSenderID: "ACME"})
	mustUpsert(t, svc, "otp", "Hi {{name}}, code {{code}}")

	l, err := svc.SendSms(context.Background(), service.SendInput{
		Phone:      "+361234567",
		TemplateID: "otp",
		Variables:  []model.KeyValue{{Key: "name", Value: "A"}, {Key: "code", Value: "1"}},
	})
	if err != nil {
		t.Fatalf("SendSms() error: %v", err)
	}

	if l.Status != model.Sent {
		t.Fatalf("expected SENT, got %s", l.Status)
	}
	if l.Message != "Hi A, code 1" {
		t.Fatalf("unexpected message %q", l.Message)
	}
	if l.TemplateID != "otp" {
		t.Fatalf("expected templateId otp, got %q", l.TemplateID)
	}
	if l.ProviderResponse != `{"echo":"Hi A, code 1","ok":true}` {
		t.Fatalf("unexpected provider response %q", l.ProviderResponse)
	}
	if l.ID.IsZero() {
		t.Fatalf("expected log id to be assigned")
	}
	if v, _ := l.Variables.Get("code"); v != "1" {
		t.Fatalf("expected variables to be logged, got %v", l.Variables.Map())
	}
}

func TestSendSms_ProviderNon2xxLogsFailed(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{
		OK:         false,
		StatusCode: http.StatusInternalServerError,
		Body:       json.RawMessage(`{ "error": "boom" }`),
	}}
	svc, store := newService(t, fc, service.Options{})

	l, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", Message: "hello"})
	if err != nil {
		t.Fatalf("SendSms() error: %v", err)
	}
	if l.Status != model.Failed {
		t.Fatalf("expected FAILED, got %s", l.Status)
	}
	if l.ProviderResponse != `{"error":"boom"}` {
		t.Fatalf("unexpected provider response %q", l.ProviderResponse)
	}
	if l.TemplateID != "" {
		t.Fatalf("expected no template id, got %q", l.TemplateID)
	}
	if n := logCount(t, store); n != 1 {
		t.Fatalf("expected exactly 1 log, got %d", n)
	}
	if fc.count() != 1 {
		t.Fatalf("expected exactly one provider call, got %d", fc.count())
	}
}

func TestSendSms_UnknownTemplateIsNotFound(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{OK: true}}
	svc, store := newService(t, fc, service.Options{})

	_, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", TemplateID: "ghost"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "template not found: ghost" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if n := logCount(t, store); n != 0 {
		t.Fatalf("expected no log, got %d", n)
	}
	if fc.count() != 0 {
		t.Fatalf("expected no provider call, got %d", fc.count())
	}
}

func TestSendSms_MissingVariableAbortsBeforeSend(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{OK: true}}
	svc, store := newService(t, fc, service.Options{})
	mustUpsert(t, svc, "otp", "Hi {{name}}, code {{code}}")

	_, err := svc.SendSms(context.Background(), service.SendInput{
		Phone:      "+1",
		TemplateID: "otp",
		Variables:  []model.KeyValue{{Key: "name", Value: "A"}},
	})
	if !errors.Is(err, model.ErrMissingVariable) {
		t.Fatalf("expected ErrMissingVariable, got %v", err)
	}
	if fc.count() != 0 || logCount(t, store) != 0 {
		t.Fatalf("expected no send and no log, got calls=%d logs=%d", fc.count(), logCount(t, store))
	}
}

func TestSendSms_Validation(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{OK: true}}
	svc, store := newService(t, fc, service.Options{})

	cases := []struct {
		name string
		in   service.SendInput
	}{
		{"missing phone", service.SendInput{Message: "hi"}},
		{"no text source", service.SendInput{Phone: "+1"}},
	}
	for _, tc := range cases {
		if _, err := svc.SendSms(context.Background(), tc.in); !errors.Is(err, model.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
	if fc.count() != 0 || logCount(t, store) != 0 {
		t.Fatalf("expected no send and no log")
	}
}

func TestSendSms_TemplateWinsOverMessage(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{OK: true}}
	svc, _ := newService(t, fc, service.Options{})
	mustUpsert(t, svc, "static", "from template")

	l, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", TemplateID: "static", Message: "direct"})
	if err != nil {
		t.Fatalf("SendSms() error: %v", err)
	}
	if l.Message != "from template" {
		t.Fatalf("expected template text, got %q", l.Message)
	}
}

func TestSendSms_SenderIDFallback(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{OK: true}}
	svc, _ := newService(t, fc, service.Options{DefaultSenderID: "DEFAULT"})

	if _, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", Message: "a"}); err != nil {
		t.Fatalf("SendSms() error: %v", err)
	}
	if _, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", Message: "b", SenderID: "MINE"}); err != nil {
		t.Fatalf("SendSms() error: %v", err)
	}

	if fc.calls[0].SenderID != "DEFAULT" || fc.calls[1].SenderID != "MINE" {
		t.Fatalf("unexpected sender ids: %+v", fc.calls)
	}
}

func TestSendSms_TransportErrorLogsFailed(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{err: errors.New("dial tcp: connection refused")}
	svc, store := newService(t, fc, service.Options{})

	l, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", Message: "hi"})
	if err != nil {
		t.Fatalf("SendSms() error: %v", err)
	}
	if l.Status != model.Failed || l.ProviderResponse != "" {
		t.Fatalf("expected FAILED without provider response, got %+v", l)
	}
	if logCount(t, store) != 1 {
		t.Fatalf("expected one log")
	}
}

func TestSendSms_ConfigurationErrorWritesNoLog(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, client.NewProviderClient("", "", 0), service.Options{})

	_, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", Message: "hi"})
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if logCount(t, store) != 0 {
		t.Fatalf("expected no log")
	}
}

func TestSendSms_PhoneNormalization(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{OK: true}}
	svc, _ := newService(t, fc, service.Options{PhoneRegion: "HU"})

	l, err := svc.SendSms(context.Background(), service.SendInput{Phone: "06 30 123 4567", Message: "hi"})
	if err != nil {
		t.Fatalf("SendSms() error: %v", err)
	}
	if l.Phone != "+36301234567" || fc.calls[0].To != "+36301234567" {
		t.Fatalf("expected E.164 phone, got log=%q sent=%q", l.Phone, fc.calls[0].To)
	}

	if _, err := svc.SendSms(context.Background(), service.SendInput{Phone: "not a phone", Message: "hi"}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSendSms_HooksRunAfterLog(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{OK: true}}
	svc, _ := newService(t, fc, service.Options{})

	var seen []model.Status
	svc.WithHooks(
		func(ctx context.Context, l model.SmsLog) error {
			if l.ID.IsZero() {
				t.Errorf("hook ran before the log was written")
			}
			seen = append(seen, l.Status)
			return nil
		},
		func(ctx context.Context, l model.SmsLog) error {
			return errors.New("broker down")
		},
	)

	if _, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", Message: "hi"}); err != nil {
		t.Fatalf("hook errors must not fail the send: %v", err)
	}
	if len(seen) != 1 || seen[0] != model.Sent {
		t.Fatalf("unexpected hook calls %v", seen)
	}
}

func TestUpsertTemplate_IdempotentByTemplateID(t *testing.T) {
	t.Parallel()

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := repo.NewMemoryStore().WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	svc := service.NewSmsService(store, store, &fakeClient{}, service.Options{})
	in := model.TemplateUpsert{
		Key:       model.ByTemplateID{TemplateID: "welcome"},
		Name:      "Welcome",
		Body:      "Hi {{name}}",
		Variables: []string{"name"},
	}

	first, err := svc.UpsertTemplate(context.Background(), in)
	if err != nil {
		t.Fatalf("UpsertTemplate() error: %v", err)
	}
	second, err := svc.UpsertTemplate(context.Background(), in)
	if err != nil {
		t.Fatalf("UpsertTemplate() error: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same id, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("createdAt changed")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("updatedAt did not advance")
	}
}

func TestUpsertTemplate_DerivedSlug(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, &fakeClient{}, service.Options{})

	key, err := model.NewTemplateKey("", "", "Order Confirm!")
	if err != nil {
		t.Fatalf("NewTemplateKey() error: %v", err)
	}
	tpl, err := svc.UpsertTemplate(context.Background(), model.TemplateUpsert{Key: key, Name: "Order Confirm!", Body: "ok"})
	if err != nil {
		t.Fatalf("UpsertTemplate() error: %v", err)
	}
	if tpl.TemplateID != "order-confirm" {
		t.Fatalf("expected order-confirm, got %q", tpl.TemplateID)
	}
	if tpl.Variables == nil {
		t.Fatalf("expected variables to default to empty list")
	}
}

func TestTemplateByID_MalformedIsAbsent(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, &fakeClient{}, service.Options{})
	created := mustUpsert(t, svc, "a", "b")

	got, err := svc.TemplateByID(context.Background(), "xyz")
	if err != nil || got != nil {
		t.Fatalf("expected nil for malformed id, got %+v err=%v", got, err)
	}
	got, err = svc.TemplateByID(context.Background(), created.ID.Hex())
	if err != nil || got == nil || got.TemplateID != "a" {
		t.Fatalf("expected template a, got %+v err=%v", got, err)
	}
}

func TestDeleteTemplate(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, &fakeClient{}, service.Options{})
	created := mustUpsert(t, svc, "a", "b")
	mustUpsert(t, svc, "c", "d")

	if ok, err := svc.DeleteTemplate(context.Background(), "malformed", ""); err != nil || ok {
		t.Fatalf("malformed id: expected false, got ok=%v err=%v", ok, err)
	}
	if ok, err := svc.DeleteTemplate(context.Background(), created.ID.Hex(), "c"); err != nil || !ok {
		t.Fatalf("delete by id: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.DeleteTemplate(context.Background(), "", "c"); err != nil || !ok {
		t.Fatalf("delete by templateId: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.DeleteTemplate(context.Background(), "", "c"); err != nil || ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
	if _, err := svc.DeleteTemplate(context.Background(), "", ""); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSmsLogs_Clamping(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{res: client.SendResult{OK: true}}
	svc, _ := newService(t, fc, service.Options{})

	for i := 0; i < 205; i++ {
		if _, err := svc.SendSms(context.Background(), service.SendInput{Phone: "+1", Message: fmt.Sprint(i)}); err != nil {
			t.Fatalf("SendSms() error: %v", err)
		}
	}

	logs, err := svc.SmsLogs(context.Background(), model.LogFilter{Limit: 500, Offset: -5})
	if err != nil {
		t.Fatalf("SmsLogs() error: %v", err)
	}
	if len(logs) != 200 {
		t.Fatalf("expected 200 logs, got %d", len(logs))
	}
	if logs[0].Message != "204" {
		t.Fatalf("expected newest first, got %q", logs[0].Message)
	}
}

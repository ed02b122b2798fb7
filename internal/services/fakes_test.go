package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Lllllllleong/admissionsflow/internal/notify"
)

type notifyCall struct {
	ApplicantID string
	Step        string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (n *fakeNotifier) Notify(_ context.Context, applicantID, step string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{ApplicantID: applicantID, Step: step})
	return n.err
}

func (n *fakeNotifier) Calls() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall(nil), n.calls...)
}

type fakeMailer struct {
	sent []*notify.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg *notify.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type retentionCall struct {
	ApplicantID string
	Decision    string
	DeleteAfter time.Time
}

type fakeRetention struct {
	calls []retentionCall
	err   error
}

func (r *fakeRetention) ScheduleRetention(_ context.Context, applicantID, decision string, deleteAfter time.Time) (string, error) {
	r.calls = append(r.calls, retentionCall{ApplicantID: applicantID, Decision: decision, DeleteAfter: deleteAfter})
	if r.err != nil {
		return "", r.err
	}
	return "executions/" + applicantID, nil
}

type fakeSigner struct {
	err error
}

func (s *fakeSigner) SignUpload(_ context.Context, object, contentType string, ttl time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("https://signed.test/put/%s?type=%s&ttl=%s", object, contentType, ttl), nil
}

func (s *fakeSigner) SignDownload(_ context.Context, object string, ttl time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("https://signed.test/get/%s?ttl=%s", object, ttl), nil
}

type fakeReader struct {
	objects map[string][]byte
	err     error
}

func (r *fakeReader) Read(_ context.Context, bucket, object string, limit int64) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	data, ok := r.objects[bucket+"/"+object]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, object)
	}
	return data, nil
}

type fakeSummarizer struct {
	summary string
	err     error
	uris    []string
}

func (s *fakeSummarizer) Summarize(_ context.Context, gcsURI, _, _ string) (string, error) {
	s.uris = append(s.uris, gcsURI)
	return s.summary, s.err
}

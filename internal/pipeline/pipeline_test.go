package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/crimson-sun/iconclass/internal/model"
)

// echoClassifier labels every query with itself.
type echoClassifier struct {
	calls []string
}

func (e *echoClassifier) Classify(_ context.Context, query string) model.Prediction {
	e.calls = append(e.calls, query)
	return model.Prediction{Query: query, Labels: []string{query}}
}

type captureOutput struct {
	got     []model.Prediction
	failOn  string
	closed  bool
	onWrite func()
}

func (c *captureOutput) Write(_ context.Context, p model.Prediction) error {
	if c.onWrite != nil {
		c.onWrite()
	}
	if p.Query == c.failOn {
		return errors.New("write refused")
	}
	c.got = append(c.got, p)
	return nil
}

func (c *captureOutput) Close() error {
	c.closed = true
	return nil
}

func TestRunClassifiesEachLine(t *testing.T) {
	cls := &echoClassifier{}
	out := &captureOutput{}
	p := New(cls, out, WithBatchID("b1"))

	n, err := p.Run(context.Background(), strings.NewReader("Bus\r\n\nBus stop\n  \nHome"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}

	want := []struct{ query, id string }{
		{"Bus", "b1-1"},
		{"Bus stop", "b1-3"},
		{"  ", "b1-4"},
		{"Home", "b1-5"},
	}
	for i, w := range want {
		if out.got[i].Query != w.query || out.got[i].RequestID != w.id {
			t.Errorf("prediction %d = (%q, %q), want (%q, %q)",
				i, out.got[i].Query, out.got[i].RequestID, w.query, w.id)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	out := &captureOutput{}
	n, err := New(&echoClassifier{}, out).Run(context.Background(), strings.NewReader(""))
	if err != nil || n != 0 {
		t.Fatalf("Run() = %d, %v; want 0, nil", n, err)
	}
}

func TestRunStopsOnOutputError(t *testing.T) {
	cls := &echoClassifier{}
	out := &captureOutput{failOn: "b"}
	n, err := New(cls, out).Run(context.Background(), strings.NewReader("a\nb\nc\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v, want line 2 output error", err)
	}
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}
	if len(cls.calls) != 2 {
		t.Errorf("classified %d queries, want 2", len(cls.calls))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := &captureOutput{onWrite: cancel}
	n, err := New(&echoClassifier{}, out).Run(ctx, strings.NewReader("a\nb\nc\n"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}
}

func TestRunLineTooLong(t *testing.T) {
	long := strings.Repeat("x", maxLineBytes+1)
	_, err := New(&echoClassifier{}, &captureOutput{}).Run(context.Background(), strings.NewReader(long))
	if err == nil {
		t.Fatal("expected scanner error for oversized line")
	}
}

func TestDefaultBatchIDIsUnique(t *testing.T) {
	a := New(&echoClassifier{}, &captureOutput{})
	b := New(&echoClassifier{}, &captureOutput{})
	if a.batchID == "" || a.batchID == b.batchID {
		t.Errorf("batch IDs %q and %q should be distinct and non-empty", a.batchID, b.batchID)
	}
}

func TestClose(t *testing.T) {
	out := &captureOutput{}
	if err := New(&echoClassifier{}, out).Close(); err != nil {
		t.Fatal(err)
	}
	if !out.closed {
		t.Error("output not closed")
	}
}

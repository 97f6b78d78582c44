package llm

import (
	"context"
	"errors"
	"testing"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

func TestRegistry_FactoryLifecycle(t *testing.T) {
	r := NewRegistry()

	r.RegisterFactory("mock", func(creds Credentials) (Provider, error) {
		return &MockProvider{ProviderName: "mock"}, nil
	})

	if !r.HasFactory("mock") {
		t.Error("factory should be registered")
	}
	if got := r.ListFactories(); len(got) != 1 || got[0] != "mock" {
		t.Errorf("ListFactories() = %v, want [mock]", got)
	}
	if r.IsActive("mock") {
		t.Error("provider should not be active before Activate")
	}

	if err := r.Activate("mock", APIKeyCredentials{APIKey: "k"}); err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	if !r.IsActive("mock") {
		t.Error("provider should be active after Activate")
	}

	// Re-activation is a no-op.
	if err := r.Activate("mock", APIKeyCredentials{APIKey: "other"}); err != nil {
		t.Errorf("re-activation should not error: %v", err)
	}
}

func TestRegistry_ActivateUnknownFactory(t *testing.T) {
	r := NewRegistry()

	err := r.Activate("missing", APIKeyCredentials{APIKey: "k"})
	if !errors.Is(err, ErrFactoryNotFound) {
		t.Errorf("expected ErrFactoryNotFound, got %v", err)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("nope")
	var nf *pberrors.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %T", err)
	}
}

func TestRegistry_DefaultProvider(t *testing.T) {
	r := NewRegistry()

	if _, err := r.GetDefault(); !errors.Is(err, ErrNoDefaultProvider) {
		t.Errorf("expected ErrNoDefaultProvider, got %v", err)
	}

	if err := r.SetDefault("nope"); err == nil {
		t.Error("SetDefault should fail for unregistered provider")
	}

	if err := r.Register(&MockProvider{ProviderName: "anthropic"}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetDefault("anthropic"); err != nil {
		t.Fatal(err)
	}

	p, err := r.GetDefault()
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("default provider = %q, want 'anthropic'", p.Name())
	}
}

func TestRegistry_Fallback(t *testing.T) {
	r := NewRegistry()

	if err := r.SetFallback("nope"); err == nil {
		t.Error("SetFallback should fail for unregistered provider")
	}

	if err := r.Register(&MockProvider{ProviderName: "openai"}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetFallback("openai"); err != nil {
		t.Fatal(err)
	}
	if got := r.Fallback(); got != "openai" {
		t.Errorf("Fallback() = %q, want 'openai'", got)
	}

	if err := r.SetFallback(""); err != nil {
		t.Errorf("clearing fallback should not error: %v", err)
	}
	if got := r.Fallback(); got != "" {
		t.Errorf("Fallback() = %q after clear, want empty", got)
	}
}

func TestRegistry_ListActive(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"openai", "anthropic", "google"} {
		if err := r.Register(&MockProvider{ProviderName: name}); err != nil {
			t.Fatal(err)
		}
	}

	got := r.ListActive()
	want := []string{"anthropic", "google", "openai"}
	if len(got) != len(want) {
		t.Fatalf("ListActive() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListActive()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClient_NamedProvider(t *testing.T) {
	r := NewRegistry()
	mock := &MockProvider{ProviderName: "anthropic", Responses: []string{"hello"}}
	if err := r.Register(mock); err != nil {
		t.Fatal(err)
	}

	client := NewClient(r, nil, nil)
	resp, err := client.Complete(context.Background(), CompleteOptions{
		Prompt:   "hi",
		Provider: "anthropic",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "hello" {
		t.Errorf("Content = %q, want 'hello'", resp.Content)
	}
	if resp.Provider != "anthropic" {
		t.Errorf("Provider = %q, want 'anthropic'", resp.Provider)
	}
}

func TestClient_AutoSelectByOrder(t *testing.T) {
	r := NewRegistry()
	openai := &MockProvider{ProviderName: "openai", Responses: []string{"from openai"}}
	google := &MockProvider{ProviderName: "google", Responses: []string{"from google"}}
	if err := r.Register(openai); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(google); err != nil {
		t.Fatal(err)
	}

	// anthropic is first in order but not active; openai should win.
	client := NewClient(r, []string{"anthropic", "openai", "google"}, nil)
	resp, err := client.Complete(context.Background(), CompleteOptions{Prompt: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "openai" {
		t.Errorf("auto-selected %q, want 'openai'", resp.Provider)
	}
	if google.Calls() != 0 {
		t.Errorf("google should not be called, got %d calls", google.Calls())
	}
}

func TestClient_DefaultBeatsOrder(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&MockProvider{ProviderName: "openai", Responses: []string{"o"}}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&MockProvider{ProviderName: "google", Responses: []string{"g"}}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetDefault("google"); err != nil {
		t.Fatal(err)
	}

	client := NewClient(r, []string{"openai", "google"}, nil)
	resp, err := client.Complete(context.Background(), CompleteOptions{Prompt: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "google" {
		t.Errorf("resolved %q, want default 'google'", resp.Provider)
	}
}

func TestClient_NoProviders(t *testing.T) {
	client := NewClient(NewRegistry(), []string{"anthropic"}, nil)
	_, err := client.Complete(context.Background(), CompleteOptions{Prompt: "hi"})
	if !errors.Is(err, ErrNoProvidersActive) {
		t.Errorf("expected ErrNoProvidersActive, got %v", err)
	}
}

func TestClient_FallbackOnFailure(t *testing.T) {
	r := NewRegistry()
	primary := &MockProvider{ProviderName: "anthropic", Err: errors.New("rate limited")}
	backup := &MockProvider{ProviderName: "openai", Responses: []string{"rescued"}}
	if err := r.Register(primary); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(backup); err != nil {
		t.Fatal(err)
	}
	if err := r.SetDefault("anthropic"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetFallback("openai"); err != nil {
		t.Fatal(err)
	}

	client := NewClient(r, nil, nil)
	resp, err := client.Complete(context.Background(), CompleteOptions{Prompt: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "openai" {
		t.Errorf("fallback should answer, got provider %q", resp.Provider)
	}
	if primary.Calls() != 1 || backup.Calls() != 1 {
		t.Errorf("expected one call each, got primary=%d backup=%d", primary.Calls(), backup.Calls())
	}
}

func TestClient_NamedProviderIsPinned(t *testing.T) {
	r := NewRegistry()
	primary := &MockProvider{ProviderName: "anthropic", Err: errors.New("rate limited")}
	backup := &MockProvider{ProviderName: "openai", Responses: []string{"rescued"}}
	if err := r.Register(primary); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(backup); err != nil {
		t.Fatal(err)
	}
	if err := r.SetFallback("openai"); err != nil {
		t.Fatal(err)
	}

	client := NewClient(r, nil, nil)
	_, err := client.Complete(context.Background(), CompleteOptions{
		Prompt:   "hi",
		Provider: "anthropic",
	})
	if err == nil {
		t.Fatal("explicitly named provider should fail without substitution")
	}
	if backup.Calls() != 0 {
		t.Errorf("fallback should not be tried for a named provider, got %d calls", backup.Calls())
	}
}

func TestClient_NoFallbackWithoutConfig(t *testing.T) {
	r := NewRegistry()
	primary := &MockProvider{ProviderName: "anthropic", Err: errors.New("boom")}
	if err := r.Register(primary); err != nil {
		t.Fatal(err)
	}
	if err := r.SetDefault("anthropic"); err != nil {
		t.Fatal(err)
	}

	client := NewClient(r, nil, nil)
	_, err := client.Complete(context.Background(), CompleteOptions{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected primary error to propagate")
	}
	if primary.Calls() != 1 {
		t.Errorf("expected exactly one attempt, got %d", primary.Calls())
	}
}

func TestClient_NoFallbackOnCancellation(t *testing.T) {
	r := NewRegistry()
	primary := &MockProvider{ProviderName: "anthropic", Responses: []string{"x"}}
	backup := &MockProvider{ProviderName: "openai", Responses: []string{"y"}}
	if err := r.Register(primary); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(backup); err != nil {
		t.Fatal(err)
	}
	if err := r.SetDefault("anthropic"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetFallback("openai"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(r, nil, nil)
	_, err := client.Complete(ctx, CompleteOptions{Prompt: "hi"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if backup.Calls() != 0 {
		t.Errorf("fallback should not run after cancellation, got %d calls", backup.Calls())
	}
}

func TestClient_DefaultsMaxTokens(t *testing.T) {
	r := NewRegistry()
	mock := &MockProvider{ProviderName: "anthropic", Responses: []string{"x"}}
	if err := r.Register(mock); err != nil {
		t.Fatal(err)
	}

	client := NewClient(r, []string{"anthropic"}, nil)
	if _, err := client.Complete(context.Background(), CompleteOptions{Prompt: "hi"}); err != nil {
		t.Fatal(err)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default 4096", reqs[0].MaxTokens)
	}
}

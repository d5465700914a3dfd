package stage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"guidecast/internal/llm"
	"guidecast/internal/metadata"
	"guidecast/internal/retry"
	"guidecast/internal/tts"
	"guidecast/pkg/prompts"
)

func fastRetry(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     2 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// fakeLLM serves canned text after a configurable number of failures.
type fakeLLM struct {
	t         *testing.T
	forbidden bool // any call fails the test
	failures  int
	calls     atomic.Int32
	response  string

	lastInfoContent string
}

func (f *fakeLLM) RetrieveInfo(ctx context.Context, req llm.InfoRequest) (string, error) {
	return f.serve()
}

func (f *fakeLLM) GenerateScript(ctx context.Context, req llm.ScriptRequest) (string, error) {
	f.lastInfoContent = req.InfoContent
	return f.serve()
}

func (f *fakeLLM) serve() (string, error) {
	if f.forbidden {
		f.t.Error("provider called when no call was expected")
	}
	n := f.calls.Add(1)
	if int(n) <= f.failures {
		return "", errors.New("transient upstream error")
	}
	return f.response, nil
}

type fakeTTS struct {
	t         *testing.T
	forbidden bool
	calls     atomic.Int32
	audio     []byte
}

func (f *fakeTTS) Synthesize(ctx context.Context, req tts.SynthesisRequest) ([]byte, error) {
	if f.forbidden {
		f.t.Error("provider called when no call was expected")
	}
	f.calls.Add(1)
	return f.audio, nil
}

func writePromptFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		filepath.Join(prompts.PipelineInfo, "default.yaml"): `
api_type: responses
instructions: Research carefully.
user_prompt_template: "Research {{.Keyword}}"
`,
		filepath.Join(prompts.PipelineScript, "v2-tts.yaml"): `
api_type: chat
system_prompt: Write narration.
user_prompt_template: "{{.Keyword}}: {{.InfoContent}}"
`,
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func infoRequest(dir string) Request {
	return Request{
		Keyword:       "Seokguram Grotto",
		OutputDir:     dir,
		Model:         "gpt-4.1",
		PromptVersion: "default",
	}
}

func TestInfoExecuteSuccess(t *testing.T) {
	out := t.TempDir()
	client := &fakeLLM{t: t, response: "# Seokguram Grotto\n\nfacts"}
	exec := NewInfo(InfoOptions{
		Client:         client,
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(3),
	})

	path, err := exec.Execute(context.Background(), infoRequest(out))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !filepath.IsAbs(path) {
		t.Errorf("Execute() returned relative path %q", path)
	}
	if filepath.Base(path) != "Seokguram Grotto.md" {
		t.Errorf("artifact name = %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Seokguram Grotto\n\nfacts" {
		t.Errorf("artifact content = %q", data)
	}

	meta, err := metadata.Read(path)
	if err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	if meta["mode"] != "production" || meta["pipeline"] != NameInfo {
		t.Errorf("sidecar = %v", meta)
	}
}

func TestDryRunMakesNoCalls(t *testing.T) {
	out := t.TempDir()
	client := &fakeLLM{t: t, forbidden: true}
	// No credential either: a dry run must not need one.
	exec := NewInfo(InfoOptions{
		Client:         client,
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(3),
	})

	req := infoRequest(out)
	req.DryRun = true

	path, err := exec.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Seokguram Grotto") {
		t.Error("placeholder should mention the keyword")
	}

	meta, err := metadata.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if meta["mode"] != "dry_run" {
		t.Errorf("mode = %v, want dry_run", meta["mode"])
	}
}

func TestScriptMissingUpstream(t *testing.T) {
	out := t.TempDir()
	client := &fakeLLM{t: t, forbidden: true}
	exec := NewScript(ScriptOptions{
		Client:         client,
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(3),
	})

	req := Request{
		Keyword:       "Bulguksa",
		OutputDir:     out,
		UpstreamDir:   out, // empty: no info artifact
		Model:         "gpt-4.1",
		PromptVersion: "v2-tts",
	}

	for _, dryRun := range []bool{false, true} {
		req.DryRun = dryRun
		_, err := exec.Execute(context.Background(), req)
		if !errors.Is(err, ErrMissingUpstream) {
			t.Errorf("dryRun=%v: error = %v, want ErrMissingUpstream", dryRun, err)
		}
	}
}

func TestScriptBlankUpstream(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "Bulguksa.md"), []byte("  \n\t\n"), 0644); err != nil {
		t.Fatal(err)
	}

	exec := NewScript(ScriptOptions{
		Client:         &fakeLLM{t: t, forbidden: true},
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(3),
	})

	_, err := exec.Execute(context.Background(), Request{
		Keyword:       "Bulguksa",
		OutputDir:     out,
		UpstreamDir:   out,
		Model:         "gpt-4.1",
		PromptVersion: "v2-tts",
	})
	if !errors.Is(err, ErrMissingUpstream) {
		t.Errorf("error = %v, want ErrMissingUpstream", err)
	}
}

func TestScriptReceivesUpstreamContent(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "Bulguksa.md"), []byte("temple facts"), 0644); err != nil {
		t.Fatal(err)
	}

	client := &fakeLLM{t: t, response: "narration"}
	exec := NewScript(ScriptOptions{
		Client:         client,
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(3),
	})

	path, err := exec.Execute(context.Background(), Request{
		Keyword:       "Bulguksa",
		OutputDir:     out,
		UpstreamDir:   out,
		Model:         "gpt-4.1",
		PromptVersion: "v2-tts",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if client.lastInfoContent != "temple facts" {
		t.Errorf("upstream content = %q", client.lastInfoContent)
	}
	if filepath.Base(path) != "Bulguksa_script.md" {
		t.Errorf("artifact name = %q", filepath.Base(path))
	}
}

func TestMissingCredentialFailsBeforeAnyCall(t *testing.T) {
	out := t.TempDir()
	client := &fakeLLM{t: t, forbidden: true}
	exec := NewInfo(InfoOptions{
		Client:         client,
		APIKey:         "",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(5),
	})

	_, err := exec.Execute(context.Background(), infoRequest(out))
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestRetriesUntilSuccess(t *testing.T) {
	out := t.TempDir()
	client := &fakeLLM{t: t, failures: 2, response: "third time lucky"}
	exec := NewInfo(InfoOptions{
		Client:         client,
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(5),
	})

	if _, err := exec.Execute(context.Background(), infoRequest(out)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := client.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestRetriesExhausted(t *testing.T) {
	out := t.TempDir()
	client := &fakeLLM{t: t, failures: 100}
	exec := NewInfo(InfoOptions{
		Client:         client,
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(4),
	})

	_, err := exec.Execute(context.Background(), infoRequest(out))

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want *retry.ExhaustedError", err)
	}
	if got := client.calls.Load(); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
}

func TestRequestMaxRetriesOverride(t *testing.T) {
	out := t.TempDir()
	client := &fakeLLM{t: t, failures: 100}
	exec := NewInfo(InfoOptions{
		Client:         client,
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(8),
	})

	req := infoRequest(out)
	req.MaxRetries = 2

	_, err := exec.Execute(context.Background(), req)
	if err == nil {
		t.Fatal("Execute() should fail")
	}
	if got := client.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestAudioInvalidVoiceNotRetried(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "Bulguksa_script.md"), []byte("narration"), 0644); err != nil {
		t.Fatal(err)
	}

	provider := &fakeTTS{t: t, forbidden: true}
	exec := NewAudio(AudioOptions{
		Provider:       provider,
		APIKey:         "gm-test",
		CredentialName: "GEMINI_API_KEY",
		Retry:          fastRetry(5),
	})

	_, err := exec.Execute(context.Background(), Request{
		Keyword:     "Bulguksa",
		OutputDir:   out,
		UpstreamDir: out,
		Model:       "gemini-2.5-pro-preview-tts",
		Voice:       "Bogus",
		Speed:       1.0,
	})
	if !errors.Is(err, tts.ErrInvalidVoice) {
		t.Fatalf("error = %v, want ErrInvalidVoice", err)
	}
}

func TestAudioSuccess(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "Bulguksa_script.md"), []byte("narration"), 0644); err != nil {
		t.Fatal(err)
	}

	provider := &fakeTTS{t: t, audio: []byte("RIFFfake")}
	exec := NewAudio(AudioOptions{
		Provider:       provider,
		APIKey:         "gm-test",
		CredentialName: "GEMINI_API_KEY",
		Retry:          fastRetry(3),
	})

	path, err := exec.Execute(context.Background(), Request{
		Keyword:     "Bulguksa",
		OutputDir:   out,
		UpstreamDir: out,
		Model:       "gemini-2.5-pro-preview-tts",
		Voice:       "Zephyr",
		Speed:       1.0,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if filepath.Base(path) != "Bulguksa.mp3" {
		t.Errorf("artifact name = %q", filepath.Base(path))
	}
	if got := provider.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestAudioDryRunPlaceholder(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "Bulguksa_script.md"), []byte("narration"), 0644); err != nil {
		t.Fatal(err)
	}

	exec := NewAudio(AudioOptions{
		Provider:       &fakeTTS{t: t, forbidden: true},
		CredentialName: "GEMINI_API_KEY",
		Retry:          fastRetry(3),
	})

	path, err := exec.Execute(context.Background(), Request{
		Keyword:     "Bulguksa",
		OutputDir:   out,
		UpstreamDir: out,
		DryRun:      true,
		Model:       "gemini-2.5-pro-preview-tts",
		Voice:       "Zephyr",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xFB}) {
		t.Error("placeholder should start with an MP3 frame sync")
	}
}

func TestEmptyKeywordRejected(t *testing.T) {
	exec := NewInfo(InfoOptions{
		Client:         &fakeLLM{t: t, forbidden: true},
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(3),
	})

	for _, keyword := range []string{"", "   ", "\t\n"} {
		req := infoRequest(t.TempDir())
		req.Keyword = keyword
		if _, err := exec.Execute(context.Background(), req); !errors.Is(err, ErrEmptyKeyword) {
			t.Errorf("keyword %q: error = %v, want ErrEmptyKeyword", keyword, err)
		}
	}
}

func TestOutputNameOverridesArtifactName(t *testing.T) {
	out := t.TempDir()
	exec := NewInfo(InfoOptions{
		Client:         &fakeLLM{t: t, response: "facts"},
		APIKey:         "sk-test",
		CredentialName: "OPENAI_API_KEY",
		PromptsDir:     writePromptFixtures(t),
		Retry:          fastRetry(3),
	})

	req := infoRequest(out)
	req.OutputName = "stop-01"

	path, err := exec.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if filepath.Base(path) != "stop-01.md" {
		t.Errorf("artifact name = %q, want stop-01.md", filepath.Base(path))
	}
}

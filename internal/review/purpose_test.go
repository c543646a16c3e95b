package review

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

func TestSummarize_NoFragments(t *testing.T) {
	s := NewSummarizer(DefaultPrompts())
	calls := 0
	got, err := s.Summarize(context.Background(), slices.Values([]Fragment(nil)), func(context.Context, string, []string) (string, error) {
		calls++
		return "", nil
	})
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if got != InitialSummary {
		t.Errorf("Summarize = %q, want %q", got, InitialSummary)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestSummarize_ThreadsSummary(t *testing.T) {
	s := &Summarizer{Template: MustTemplate("\n--\n{content}"), System: "persona"}
	frags := Fragments(Split("one\ntwo\nthree\n", 4))

	var prompts []string
	infer := func(_ context.Context, prompt string, system []string) (string, error) {
		if len(system) != 1 || system[0] != "persona" {
			t.Errorf("system = %v", system)
		}
		prompts = append(prompts, prompt)
		return fmt.Sprintf("S%d", len(prompts)), nil
	}

	got, err := s.Summarize(context.Background(), slices.Values(frags), infer)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if got != "S3" {
		t.Errorf("Summarize = %q, want S3", got)
	}
	want := []string{
		InitialSummary + "\n--\none\n",
		"S1\n--\ntwo\n",
		"S2\n--\nthree\n",
	}
	if len(prompts) != len(want) {
		t.Fatalf("got %d prompts, want %d", len(prompts), len(want))
	}
	for i := range want {
		if prompts[i] != want[i] {
			t.Errorf("prompt %d = %q, want %q", i, prompts[i], want[i])
		}
	}
}

func TestSummarize_StopsOnError(t *testing.T) {
	s := NewSummarizer(DefaultPrompts())
	frags := Fragments(Split("a\nb\nc\n", 2))
	boom := errors.New("provider down")

	calls := 0
	_, err := s.Summarize(context.Background(), slices.Values(frags), func(context.Context, string, []string) (string, error) {
		calls++
		if calls == 2 {
			return "", boom
		}
		return "ok", nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if !strings.Contains(err.Error(), "fragment 1") {
		t.Errorf("err = %q, want fragment index", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSummarize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSummarizer(DefaultPrompts())
	_, err := s.Summarize(ctx, slices.Values(Fragments(Split("a\n", 10))), func(context.Context, string, []string) (string, error) {
		t.Error("infer called after cancellation")
		return "", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSummarize_CapsCarriedSummary(t *testing.T) {
	s := &Summarizer{Template: MustTemplate("\n--\n{content}"), MaxSummary: 5}
	frags := Fragments(Split("one\ntwo\n", 4))

	var prompts []string
	infer := func(_ context.Context, prompt string, _ []string) (string, error) {
		prompts = append(prompts, prompt)
		return "éééééééééé", nil
	}
	got, err := s.Summarize(context.Background(), slices.Values(frags), infer)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if got != "éééééééééé" {
		t.Errorf("Summarize = %q, want the last reply untouched", got)
	}
	want := []string{
		InitialSummary[:5] + "\n--\none\n",
		"ééééé\n--\ntwo\n",
	}
	if !slices.Equal(prompts, want) {
		t.Errorf("prompts = %q, want %q", prompts, want)
	}
}

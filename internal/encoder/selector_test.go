package encoder

import (
	"context"
	"errors"
	"testing"
)

func TestSelectPrefersHardware(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")

	strategy, err := Select(context.Background(), env.options(), cfg)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if strategy.Name() != variantHardware {
		t.Fatalf("selected %s, want %s", strategy.Name(), variantHardware)
	}
}

func TestSelectFallsBackToSoftwareOffDarwin(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	opts := env.options()
	opts.Platform = "linux"

	strategy, err := Select(context.Background(), opts, cfg)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if strategy.Name() != variantSoftware {
		t.Fatalf("selected %s, want %s", strategy.Name(), variantSoftware)
	}
}

func TestSelectFallsBackOnUnsupportedOption(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.Decomb = true

	strategy, err := Select(context.Background(), env.options(), cfg)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if strategy.Name() != variantSoftware {
		t.Fatalf("selected %s, want %s", strategy.Name(), variantSoftware)
	}
}

func TestSelectNoFallbackAborts(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.Decomb = true
	opts := env.options()
	opts.Fallback = false

	_, err := Select(context.Background(), opts, cfg)
	if !errors.Is(err, ErrOptionNotSupported) {
		t.Fatalf("expected ErrOptionNotSupported, got %v", err)
	}
}

func TestSelectMalformedJobNeverFallsBack(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.OutputTitle = ""

	_, err := Select(context.Background(), env.options(), cfg)
	if !errors.Is(err, ErrMalformedJob) {
		t.Fatalf("expected ErrMalformedJob, got %v", err)
	}
}

func TestSelectPassthroughFirstWhenRequested(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.Passthrough = true

	strategy, err := Select(context.Background(), env.options(), cfg)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if strategy.Name() != variantPassthrough {
		t.Fatalf("selected %s, want %s", strategy.Name(), variantPassthrough)
	}
}

func TestSelectPassthroughFallsBackOnOptions(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.Passthrough = true
	cfg.AddSubtitle = "auto"

	strategy, err := Select(context.Background(), env.options(), cfg)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if strategy.Name() != variantHardware {
		t.Fatalf("selected %s, want %s", strategy.Name(), variantHardware)
	}
}

func TestSelectForceSoftwareSkipsHardware(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.ForceSoftware = true

	strategy, err := Select(context.Background(), env.options(), cfg)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if strategy.Name() != variantSoftware {
		t.Fatalf("selected %s, want %s", strategy.Name(), variantSoftware)
	}
}

func TestSelectResizeGuardIsFatal(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "hd.mkv")
	cfg.Resize1080 = true
	opts := env.options()
	opts.Prober = fakeProber{fourK: false}

	_, err := Select(context.Background(), opts, cfg)
	if !errors.Is(err, ErrIncompatibleInput) {
		t.Fatalf("expected ErrIncompatibleInput, got %v", err)
	}
}

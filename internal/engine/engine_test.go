package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/crimson-sun/iconclass/internal/cache"
	"github.com/crimson-sun/iconclass/internal/engine/artifact"
	"github.com/crimson-sun/iconclass/internal/engine/compiler"
	"github.com/crimson-sun/iconclass/internal/engine/ngram"
	"github.com/crimson-sun/iconclass/internal/model"

	_ "github.com/crimson-sun/iconclass/internal/source/builtin"
	_ "github.com/crimson-sun/iconclass/internal/source/file"
)

func scenarioArtifacts(t *testing.T, fingerprint string) *model.Artifacts {
	t.Helper()
	arts, err := compiler.Compile(context.Background(), []model.Record{
		{Name: "cat", Label: "animal"},
		{Name: "car", Label: "vehicle"},
		{Name: "cart", Label: "vehicle"},
	}, compiler.WithFingerprint(fingerprint))
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return arts
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]string, bool, error) {
	return nil, false, errors.New("unavailable")
}

func (failingCache) Set(context.Context, string, []string) error {
	return errors.New("unavailable")
}

func TestClassify(t *testing.T) {
	e, err := New(scenarioArtifacts(t, "fp1"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	p := e.Classify(context.Background(), "cat")
	if want := []string{"animal"}; !reflect.DeepEqual(p.Labels, want) {
		t.Errorf("Labels = %q, want %q", p.Labels, want)
	}
	if len(p.Scores) != len(p.Labels) {
		t.Errorf("len(Scores) = %d, want %d", len(p.Scores), len(p.Labels))
	}
	if p.Fingerprint != "fp1" {
		t.Errorf("Fingerprint = %q, want fp1", p.Fingerprint)
	}
	if p.Query != "cat" || p.Cached {
		t.Errorf("unexpected prediction %+v", p)
	}
}

func TestClassifyEmptyResultIsNotNil(t *testing.T) {
	e, err := New(scenarioArtifacts(t, "fp1"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	// "dog" is not in the vocabulary, so every label gets likelihood 0.
	p := e.Classify(context.Background(), "dog")
	if p.Labels == nil || len(p.Labels) != 0 {
		t.Errorf("Labels = %#v, want empty non-nil slice", p.Labels)
	}
}

func TestClassifyUsesCache(t *testing.T) {
	c := cache.NewLRU(16, 0)
	e, err := New(scenarioArtifacts(t, "fp1"), WithCache(c))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	first := e.Classify(context.Background(), "car")
	if first.Cached {
		t.Fatal("first classification should not be cached")
	}
	second := e.Classify(context.Background(), "car")
	if !second.Cached {
		t.Fatal("second classification should be cached")
	}
	if !reflect.DeepEqual(first.Labels, second.Labels) {
		t.Errorf("cached Labels = %q, want %q", second.Labels, first.Labels)
	}
	if c.Len() != 1 {
		t.Errorf("cache Len = %d, want 1", c.Len())
	}
}

func TestClassifyCacheFailureFallsThrough(t *testing.T) {
	e, err := New(scenarioArtifacts(t, "fp1"), WithCache(failingCache{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	p := e.Classify(context.Background(), "cat")
	if want := []string{"animal"}; !reflect.DeepEqual(p.Labels, want) {
		t.Errorf("Labels = %q, want %q", p.Labels, want)
	}
}

func TestWithMaxResults(t *testing.T) {
	e, err := New(scenarioArtifacts(t, "fp1"), WithMaxResults(1))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	p := e.Classify(context.Background(), "12")
	if want := []string{"vehicle"}; !reflect.DeepEqual(p.Labels, want) {
		t.Errorf("Labels = %q, want %q", p.Labels, want)
	}
}

func TestNewRejectsInvalidArtifacts(t *testing.T) {
	arts := scenarioArtifacts(t, "fp1")
	arts.Examples[0].Features = arts.Examples[0].Features[:1]
	if _, err := New(arts); err == nil {
		t.Fatal("expected error for mismatched feature length")
	}
}

func TestNewAssignsGenerationFingerprint(t *testing.T) {
	arts := scenarioArtifacts(t, "")
	e, err := New(arts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	fp := e.Info().Fingerprint
	if !strings.HasPrefix(fp, "gen-") {
		t.Errorf("Fingerprint = %q, want gen- prefix", fp)
	}
	if arts.Fingerprint != "" {
		t.Error("New must not modify the caller's artifacts")
	}
}

func TestReload(t *testing.T) {
	c := cache.NewLRU(16, 0)
	e, err := New(scenarioArtifacts(t, "fp1"), WithCache(c))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	e.Classify(context.Background(), "cat")

	next, err := compiler.Compile(context.Background(), []model.Record{
		{Name: "cat", Label: "pet"},
		{Name: "car", Label: "vehicle"},
	}, compiler.WithFingerprint("fp2"))
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if err := e.Reload(next); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	p := e.Classify(context.Background(), "cat")
	if p.Cached {
		t.Error("entry cached under old fingerprint must not be served")
	}
	if want := []string{"pet"}; !reflect.DeepEqual(p.Labels, want) {
		t.Errorf("Labels = %q, want %q", p.Labels, want)
	}
	if got := e.Info(); got.Fingerprint != "fp2" || got.Labels != 2 {
		t.Errorf("Info = %+v", got)
	}
}

func TestReloadKeepsSnapshotOnError(t *testing.T) {
	e, err := New(scenarioArtifacts(t, "fp1"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	bad := scenarioArtifacts(t, "fp2")
	bad.Variant = "fourgram"
	if err := e.Reload(bad); err == nil {
		t.Fatal("expected error for unknown variant")
	}
	if fp := e.Info().Fingerprint; fp != "fp1" {
		t.Errorf("Fingerprint = %q, want fp1", fp)
	}
}

func TestClassifyConcurrentWithReload(t *testing.T) {
	e, err := New(scenarioArtifacts(t, "fp1"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	a := scenarioArtifacts(t, "fp1")
	b := scenarioArtifacts(t, "fp2")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				p := e.Classify(context.Background(), "cat")
				if len(p.Labels) != 1 || p.Labels[0] != "animal" {
					t.Errorf("Labels = %q, want [animal]", p.Labels)
					return
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		next := a
		if j%2 == 0 {
			next = b
		}
		if err := e.Reload(next); err != nil {
			t.Errorf("Reload() error: %v", err)
		}
	}
	wg.Wait()
}

func TestLoadBuiltin(t *testing.T) {
	arts, err := Load(context.Background(), LoadConfig{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if arts.Variant != "trigram" {
		t.Errorf("Variant = %q, want trigram", arts.Variant)
	}
	if arts.Fingerprint == "" {
		t.Error("expected corpus fingerprint")
	}
	if len(arts.Labels) == 0 || len(arts.Examples) == 0 {
		t.Error("built-in corpus compiled to empty tables")
	}

	e, err := New(arts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	p := e.Classify(context.Background(), "bus")
	if len(p.Labels) == 0 || p.Labels[0] != "directions_bus" {
		t.Errorf("Classify(bus) = %q, want directions_bus first", p.Labels)
	}
}

func TestLoadFileDigram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.txt")
	if err := os.WriteFile(path, []byte("3 Catanimal\n3 Carvehicle\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	arts, err := Load(context.Background(), LoadConfig{Source: path, Variant: ngram.Digram, Workers: 2})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if arts.Variant != "digram" {
		t.Errorf("Variant = %q, want digram", arts.Variant)
	}
	if want := []string{"animal", "vehicle"}; !reflect.DeepEqual(arts.Labels, want) {
		t.Errorf("Labels = %q, want %q", arts.Labels, want)
	}
}

func TestLoadMalformedCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.txt")
	if err := os.WriteFile(path, []byte("3 Catanimal\nbroken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(context.Background(), LoadConfig{Source: path}); err == nil {
		t.Fatal("expected error for malformed corpus")
	}
}

func TestLoadArtifactFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.msgpack")
	want := scenarioArtifacts(t, "fp1")
	if err := artifact.SaveFile(path, want); err != nil {
		t.Fatalf("SaveFile() error: %v", err)
	}

	got, err := Load(context.Background(), LoadConfig{ArtifactPath: path, Source: "/does/not/exist"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	if _, err := Load(context.Background(), LoadConfig{ArtifactPath: path, Variant: ngram.Digram}); err == nil {
		t.Fatal("expected variant mismatch error")
	}
}

func TestLoadUnknownScheme(t *testing.T) {
	if _, err := Load(context.Background(), LoadConfig{Source: "s3://bucket/icons.txt"}); err == nil {
		t.Fatal("expected error for unregistered scheme")
	}
}

package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func Test_Chaos_Passes_Through_When_Mode_Is_Passthrough(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal(), 1, ChaosConfig{OpenFailRate: 1, WriteFailRate: 1})
	path := filepath.Join(t.TempDir(), "history.log")

	f, err := chaos.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("abc")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := chaos.TotalFaults(); got != 0 {
		t.Fatalf("TotalFaults=%d, want=0", got)
	}
}

func Test_Chaos_Fails_Open_When_Open_Rate_Is_One(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal(), 1, ChaosConfig{OpenFailRate: 1})
	chaos.SetMode(ChaosModeInject)

	path := filepath.Join(t.TempDir(), "history.log")

	_, err := chaos.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err == nil {
		t.Fatal("OpenFile: want error, got nil")
	}

	if !IsInjected(err) {
		t.Fatalf("IsInjected(%v)=false, want=true", err)
	}

	if got, want := chaos.Stats().OpenFails, int64(1); got != want {
		t.Fatalf("OpenFails=%d, want=%d", got, want)
	}
}

func Test_Chaos_Never_Returns_ENOENT_When_File_Exists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	chaos := NewChaos(NewReal(), 7, ChaosConfig{OpenFailRate: 1})
	chaos.SetMode(ChaosModeInject)

	for range 50 {
		_, err := chaos.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Open(existing) returned ENOENT: %v", err)
		}
	}
}

func Test_Chaos_Writes_Half_Then_Fails_When_Partial_Write_Rate_Is_One(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal(), 1, ChaosConfig{PartialWriteRate: 1})
	path := filepath.Join(t.TempDir(), "history.log")

	f, err := chaos.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	chaos.SetMode(ChaosModeInject)

	n, err := f.Write([]byte("abcdef"))
	if err == nil {
		t.Fatal("Write: want error, got nil")
	}

	if got, want := n, 3; got != want {
		t.Fatalf("n=%d, want=%d", got, want)
	}

	_ = f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if got, want := string(data), "abc"; got != want {
		t.Fatalf("content=%q, want=%q", got, want)
	}
}

func Test_IsInjected_Returns_False_When_Error_Is_Real(t *testing.T) {
	t.Parallel()

	_, err := NewReal().Open(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("Open: want error")
	}

	if IsInjected(err) {
		t.Fatalf("IsInjected(%v)=true, want=false", err)
	}

	if IsInjected(nil) {
		t.Fatal("IsInjected(nil)=true, want=false")
	}
}

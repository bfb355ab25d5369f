package local

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/hybridstt/storage"
)

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	if err := storage.Put(ctx, s, "req-1/0001.wav", []byte("RIFF")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = storage.Put(ctx, s, "req-1/0002.wav", []byte("RIFFRIFF"))
	_ = storage.Put(ctx, s, "req-2/0001.wav", []byte("x"))

	data, err := storage.Get(ctx, s, "req-1/0001.wav")
	if err != nil || string(data) != "RIFF" {
		t.Fatalf("Get = %q, %v", data, err)
	}

	files, err := s.List(ctx, "req-1/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 || files[0].Path != "req-1/0001.wav" || files[1].Size != 8 {
		t.Errorf("unexpected listing %+v", files)
	}

	if err := storage.DeletePrefix(ctx, s, "req-1/"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if ok, _ := s.Exists(ctx, "req-1/0001.wav"); ok {
		t.Error("expected fragment to be deleted")
	}
	if ok, _ := s.Exists(ctx, "req-2/0001.wav"); !ok {
		t.Error("expected other request's fragment to remain")
	}
}

func TestStorage_DownloadMissing(t *testing.T) {
	s, _ := NewStorage(t.TempDir())
	if _, err := s.Download(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(context.Background(), "nope"); err != nil {
		t.Errorf("Delete of missing object should succeed, got %v", err)
	}
}

func TestStorage_LocalPathStaysInside(t *testing.T) {
	base := t.TempDir()
	s, _ := NewStorage(base)
	p, err := s.LocalPath("../../etc/passwd")
	if err != nil {
		t.Fatalf("LocalPath: %v", err)
	}
	if p != base+"/etc/passwd" {
		t.Errorf("expected path clamped inside base, got %s", p)
	}
}

func TestFactoryRegistration(t *testing.T) {
	s, err := storage.New(storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*Storage); !ok {
		t.Errorf("expected *local.Storage, got %T", s)
	}
}

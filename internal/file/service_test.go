package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abduss/filevault/internal/content"
	"github.com/abduss/filevault/internal/events"
)

func TestSaveStoresContentThenMetadata(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	pub := &recordingPublisher{}
	service := NewService(repo, store, pub, nil)

	stored, err := service.Save(context.Background(), 100, "notes.txt", strings.NewReader("hello-world"), "text/plain")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if stored.SizeBytes != 11 {
		t.Fatalf("expected 11 bytes, got %d", stored.SizeBytes)
	}
	if stored.OriginalFilename != "notes.txt" {
		t.Fatalf("unexpected filename: %s", stored.OriginalFilename)
	}
	if !regexp.MustCompile(`^[0-9a-f]{32}_notes\.txt$`).MatchString(stored.StoredFilename) {
		t.Fatalf("unexpected storage name: %s", stored.StoredFilename)
	}
	if got := string(store.objects[stored.StoredFilename]); got != "hello-world" {
		t.Fatalf("unexpected stored content: %q", got)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected metadata stored, got %d", len(repo.records))
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.FileUploaded {
		t.Fatalf("expected one upload event, got %+v", pub.events)
	}
}

func TestSaveDefaultsNameAndContentType(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeStore(), nil, nil)

	stored, err := service.Save(context.Background(), 1, "", strings.NewReader("x"), "")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if stored.OriginalFilename != "unnamed" {
		t.Fatalf("expected default display name, got %q", stored.OriginalFilename)
	}
	if stored.ContentType != "application/octet-stream" {
		t.Fatalf("expected default content type, got %q", stored.ContentType)
	}
}

func TestSaveStorageNamesAreUnique(t *testing.T) {
	service := NewService(newFakeRepo(), newFakeStore(), nil, nil)

	a, err := service.Save(context.Background(), 1, "same.txt", strings.NewReader("a"), "")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	b, err := service.Save(context.Background(), 1, "same.txt", strings.NewReader("b"), "")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if a.StoredFilename == b.StoredFilename {
		t.Fatalf("expected distinct storage names, both %s", a.StoredFilename)
	}
}

func TestSaveWriteFailureCreatesNoMetadata(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	store.putErr = content.ErrStorageWrite
	service := NewService(repo, store, nil, nil)

	_, err := service.Save(context.Background(), 1, "a.txt", strings.NewReader("data"), "")
	if !errors.Is(err, content.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected no metadata, got %d rows", len(repo.records))
	}
}

func TestSaveMetadataFailureRemovesContent(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("db down")
	store := newFakeStore()
	service := NewService(repo, store, nil, nil)

	if _, err := service.Save(context.Background(), 1, "a.txt", strings.NewReader("data"), ""); err == nil {
		t.Fatalf("expected error")
	}
	if len(store.objects) != 0 {
		t.Fatalf("expected orphaned content removed, %d objects left", len(store.objects))
	}
}

func TestListByOwnerNewestFirst(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, newFakeStore(), nil, nil)
	ctx := context.Background()

	first, _ := service.Save(ctx, 5, "first.txt", strings.NewReader("1"), "")
	second, _ := service.Save(ctx, 5, "second.txt", strings.NewReader("2"), "")
	if _, err := service.Save(ctx, 6, "other.txt", strings.NewReader("3"), ""); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	list, err := service.ListByOwner(ctx, 5)
	if err != nil {
		t.Fatalf("ListByOwner returned error: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", list)
	}

	empty, err := service.ListByOwner(ctx, 99)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %v, %v", empty, err)
	}
}

func TestOpenChecksOwnershipAndContent(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	service := NewService(repo, store, nil, nil)
	ctx := context.Background()

	stored, err := service.Save(ctx, 7, "owner.txt", strings.NewReader("mine"), "")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if _, _, err := service.Open(ctx, stored.ID, 9); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound for other owner, got %v", err)
	}

	f, rc, err := service.Open(ctx, stored.ID, 7)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "mine" || f.ID != stored.ID {
		t.Fatalf("unexpected content %q", body)
	}

	delete(store.objects, stored.StoredFilename)
	if _, _, err := service.Open(ctx, stored.ID, 7); !errors.Is(err, ErrContentMissing) {
		t.Fatalf("expected ErrContentMissing, got %v", err)
	}
}

func TestDeleteRemovesContentAndMetadata(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	pub := &recordingPublisher{}
	service := NewService(repo, store, pub, nil)
	ctx := context.Background()

	stored, err := service.Save(ctx, 1, "data.bin", bytes.NewReader([]byte("payload")), "")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := service.Delete(ctx, stored.ID, 2); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound for other owner, got %v", err)
	}
	if len(store.objects) != 1 {
		t.Fatalf("content must survive a rejected delete")
	}

	if err := service.Delete(ctx, stored.ID, 1); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(store.objects) != 0 {
		t.Fatalf("expected content removed")
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected metadata removed, remaining %d", len(repo.records))
	}
	if last := pub.events[len(pub.events)-1]; last.Type != events.FileDeleted {
		t.Fatalf("expected delete event, got %s", last.Type)
	}

	if err := service.Delete(ctx, stored.ID, 1); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound on second delete, got %v", err)
	}
}

func TestDeleteKeepsMetadataWhenContentRemovalFails(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	service := NewService(repo, store, nil, nil)
	ctx := context.Background()

	stored, err := service.Save(ctx, 1, "data.bin", strings.NewReader("payload"), "")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	store.removeErr = content.ErrStorageWrite

	if err := service.Delete(ctx, stored.ID, 1); !errors.Is(err, content.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("metadata must remain when content removal fails")
	}
}

// --- fakes ---

type fakeRepo struct {
	mu        sync.Mutex
	records   map[int64]StoredFile
	nextID    int64
	clock     time.Time
	createErr error
	listErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: make(map[int64]StoredFile),
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) Create(_ context.Context, meta StoredFile) (StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return StoredFile{}, f.createErr
	}
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	meta.ID = f.nextID
	meta.CreatedAt = f.clock
	f.records[meta.ID] = meta
	return meta, nil
}

func (f *fakeRepo) ListByOwner(_ context.Context, ownerID int64) ([]StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	list := []StoredFile{}
	for _, m := range f.records {
		if m.OwnerID == ownerID {
			list = append(list, m)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (f *fakeRepo) FindByIDAndOwner(_ context.Context, fileID, ownerID int64) (StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.records[fileID]
	if !ok || meta.OwnerID != ownerID {
		return StoredFile{}, ErrFileNotFound
	}
	return meta, nil
}

func (f *fakeRepo) DeleteByIDAndOwner(_ context.Context, fileID, ownerID int64, removeContent func(StoredFile) error) (StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.records[fileID]
	if !ok || meta.OwnerID != ownerID {
		return StoredFile{}, ErrFileNotFound
	}
	if err := removeContent(meta); err != nil {
		return StoredFile{}, err
	}
	delete(f.records, fileID)
	return meta, nil
}

type fakeStore struct {
	objects   map[string][]byte
	putErr    error
	removeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(_ context.Context, key string, r io.Reader, _ string) (content.Object, error) {
	if f.putErr != nil {
		return content.Object{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return content.Object{}, err
	}
	f.objects[key] = data
	return content.Object{Key: key, Location: "mem://" + key, Size: int64(len(data)), Checksum: "sum"}, nil
}

func (f *fakeStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, content.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.events = append(p.events, e)
}

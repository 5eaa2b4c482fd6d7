package records_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/autolot/internal/media"
	"github.com/JaimeStill/autolot/internal/records"
	"github.com/JaimeStill/autolot/pkg/lifecycle"
	"github.com/JaimeStill/autolot/pkg/storage"
)

const blobBase = "https://media.test/listings"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory records.Store.
type memStore struct {
	mu        sync.Mutex
	seq       int
	recs      map[string]records.Record
	createErr error
	listErr   error
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]records.Record)}
}

func (m *memStore) Create(ctx context.Context, r records.Record) (records.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return records.Record{}, m.createErr
	}
	m.seq++
	r.ID = "rec-" + strconv.Itoa(m.seq)
	m.recs[r.ID] = r
	return r, nil
}

func (m *memStore) List(ctx context.Context, f records.Filter) ([]records.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []records.Record
	for _, r := range m.recs {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) Find(ctx context.Context, id string) (records.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return records.Record{}, records.ErrNotFound
	}
	return r, nil
}

func (m *memStore) Update(ctx context.Context, id string, cmd records.UpdateCommand) (records.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return records.Record{}, records.ErrNotFound
	}
	r = cmd.Apply(r)
	m.recs[id] = r
	return r, nil
}

func (m *memStore) Delete(ctx context.Context, id string) (records.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return records.Record{}, records.ErrNotFound
	}
	delete(m.recs, id)
	return r, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

// memBlobs is an in-memory storage.System.
type memBlobs struct {
	mu      sync.Mutex
	blobs   map[string]string
	uploads int
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string]string)}
}

func (b *memBlobs) Start(lc *lifecycle.Coordinator) error { return nil }

func (b *memBlobs) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads++
	b.blobs[key] = string(data)
	return b.URL(key), nil
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(b.blobs, key)
	return nil
}

func (b *memBlobs) URL(key string) string {
	return storage.JoinURL(blobBase, key)
}

func (b *memBlobs) Key(rawURL string) (string, bool) {
	return storage.KeyFromURL(blobBase, rawURL)
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}

type fixture struct {
	store *memStore
	blobs *memBlobs
	sys   records.System
	clock *time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store: newMemStore(),
		blobs: newMemBlobs(),
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.clock = &now

	mediaSys := media.New(f.blobs, media.Config{
		Folder:      "auto_pro_care",
		MaxFiles:    5,
		Concurrency: 2,
		Timeout:     5 * time.Second,
	}, discard())

	f.sys = records.New(f.store, mediaSys, discard(), 5*time.Second, records.WithClock(func() time.Time {
		t := *f.clock
		*f.clock = t.Add(time.Minute)
		return t
	}))
	return f
}

func image(name string) media.File {
	return media.File{Name: name, Body: strings.NewReader("img:" + name)}
}

func inventory(name string, public bool) records.InventorySubmission {
	return records.InventorySubmission{
		CarName:      name,
		CarModel:     "2021",
		Price:        "15000",
		IsAdminEntry: strconv.FormatBool(public),
	}
}

func TestCreateInventoryEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.sys.CreateInventoryEntry(ctx, inventory("Civic", true), []media.File{image("front.jpg"), image("back.png")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if rec.ID == "" {
		t.Error("expected assigned id")
	}
	if rec.CustomerName != records.DefaultCustomerName {
		t.Errorf("customerName = %q, want %q", rec.CustomerName, records.DefaultCustomerName)
	}
	if rec.PhoneNumber != records.DefaultPhoneNumber {
		t.Errorf("phoneNumber = %q, want %q", rec.PhoneNumber, records.DefaultPhoneNumber)
	}
	if rec.Price != 15000 {
		t.Errorf("price = %v, want 15000", rec.Price)
	}
	if !rec.IsAdminEntry {
		t.Error("expected public entry")
	}
	if len(rec.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(rec.Images))
	}
	for _, u := range rec.Images {
		if !strings.HasPrefix(u, blobBase+"/auto_pro_care/") {
			t.Errorf("unexpected image url %q", u)
		}
	}
	if f.blobs.count() != 2 {
		t.Errorf("blobs = %d, want 2", f.blobs.count())
	}
}

func TestCreateInventoryEntryCoercion(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		flag      string
		wantPrice float64
		wantFlag  bool
	}{
		{"numeric", "2500.5", "true", 2500.5, true},
		{"garbage price", "abc", "true", 0, true},
		{"empty price", "", "false", 0, false},
		{"negative price", "-10", "1", 0, true},
		{"unknown flag", "10", "yes please", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			sub := records.InventorySubmission{CarName: "Car", Price: tt.price, IsAdminEntry: tt.flag}

			rec, err := f.sys.CreateInventoryEntry(context.Background(), sub, []media.File{image("a.jpg")})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if rec.Price != tt.wantPrice {
				t.Errorf("price = %v, want %v", rec.Price, tt.wantPrice)
			}
			if rec.IsAdminEntry != tt.wantFlag {
				t.Errorf("isAdminEntry = %v, want %v", rec.IsAdminEntry, tt.wantFlag)
			}
		})
	}
}

func TestCreateInventoryEntryRejected(t *testing.T) {
	tests := []struct {
		name    string
		files   []media.File
		wantErr error
	}{
		{"no files", nil, records.ErrNoImages},
		{"unsupported type", []media.File{image("a.jpg"), image("b.gif")}, media.ErrUnsupportedFile},
		{
			"too many files",
			[]media.File{image("1.jpg"), image("2.jpg"), image("3.jpg"), image("4.jpg"), image("5.jpg"), image("6.jpg")},
			media.ErrTooManyFiles,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.sys.CreateInventoryEntry(context.Background(), inventory("Civic", true), tt.files)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if records.MapHTTPStatus(err) != 400 {
				t.Errorf("status = %d, want 400", records.MapHTTPStatus(err))
			}
			if f.store.count() != 0 {
				t.Errorf("records = %d, want 0", f.store.count())
			}
			if f.blobs.count() != 0 {
				t.Errorf("blobs = %d, want 0", f.blobs.count())
			}
		})
	}
}

func TestCreateInventoryEntryPersistenceFailure(t *testing.T) {
	f := newFixture()
	f.store.createErr = errors.New("connection refused")

	_, err := f.sys.CreateInventoryEntry(context.Background(), inventory("Civic", true), []media.File{image("a.jpg"), image("b.jpg")})
	if !errors.Is(err, records.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error %q should carry store message", err)
	}
	if records.MapHTTPStatus(err) != 500 {
		t.Errorf("status = %d, want 500", records.MapHTTPStatus(err))
	}
	if f.blobs.count() != 0 {
		t.Errorf("blobs = %d, want 0 after compensation", f.blobs.count())
	}
}

func TestCreateInquiry(t *testing.T) {
	f := newFixture()

	rec, err := f.sys.CreateInquiry(context.Background(), records.InquirySubmission{
		Name:    "Ravi",
		Message: "Is the Civic still available?",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if rec.IsAdminEntry {
		t.Error("inquiry must not be public")
	}
	if rec.CustomerName != "Ravi" {
		t.Errorf("customerName = %q", rec.CustomerName)
	}
	if rec.PhoneNumber != records.DefaultPhoneNumber {
		t.Errorf("phoneNumber = %q, want %q", rec.PhoneNumber, records.DefaultPhoneNumber)
	}
	if rec.Description != "Is the Civic still available?" {
		t.Errorf("description = %q", rec.Description)
	}
	if rec.Images == nil || len(rec.Images) != 0 {
		t.Errorf("images = %#v, want empty list", rec.Images)
	}
}

func TestListPartitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := f.sys.CreateInventoryEntry(ctx, inventory(name, true), []media.File{image(name + ".jpg")}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := f.sys.CreateInventoryEntry(ctx, inventory("hidden", false), []media.File{image("h.jpg")}); err != nil {
		t.Fatalf("create hidden: %v", err)
	}
	if _, err := f.sys.CreateInquiry(ctx, records.InquirySubmission{Name: "Asha", Phone: "555"}); err != nil {
		t.Fatalf("create inquiry: %v", err)
	}

	public, err := f.sys.ListPublicInventory(ctx)
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	inquiries, err := f.sys.ListInquiries(ctx)
	if err != nil {
		t.Fatalf("list inquiries: %v", err)
	}

	t.Run("newest first", func(t *testing.T) {
		want := []string{"third", "second", "first"}
		if len(public) != len(want) {
			t.Fatalf("public = %d, want %d", len(public), len(want))
		}
		for i, name := range want {
			if public[i].CarName != name {
				t.Errorf("public[%d] = %q, want %q", i, public[i].CarName, name)
			}
		}
	})

	t.Run("disjoint", func(t *testing.T) {
		if len(inquiries) != 2 {
			t.Fatalf("inquiries = %d, want 2", len(inquiries))
		}
		seen := make(map[string]bool)
		for _, r := range public {
			seen[r.ID] = true
		}
		for _, r := range inquiries {
			if seen[r.ID] {
				t.Errorf("record %s in both partitions", r.ID)
			}
			if r.IsAdminEntry {
				t.Errorf("inquiry %s is public", r.ID)
			}
		}
	})
}

func TestListEmpty(t *testing.T) {
	f := newFixture()

	recs, err := f.sys.ListPublicInventory(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("recs = %#v, want empty non-nil list", recs)
	}
}

func TestListFailure(t *testing.T) {
	f := newFixture()
	f.store.listErr = errors.New("timeout")

	_, err := f.sys.ListInquiries(context.Background())
	if !errors.Is(err, records.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
}

func TestUpdateRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.sys.CreateInventoryEntry(ctx, inventory("Civic", true), []media.File{image("a.jpg")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.sys.UpdateRecord(ctx, created.ID, map[string]any{
		"price":        "500",
		"carModel":     2022,
		"id":           "other",
		"isAdminEntry": false,
		"unknown":      "ignored",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Price != 500 {
		t.Errorf("price = %v, want 500", updated.Price)
	}
	if updated.CarModel != "2022" {
		t.Errorf("carModel = %q, want 2022", updated.CarModel)
	}
	if updated.ID != created.ID {
		t.Errorf("id changed to %q", updated.ID)
	}
	if !updated.IsAdminEntry {
		t.Error("partition must not change on update")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("createdAt must not change on update")
	}

	found, err := f.sys.Find(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	want := *created
	want.Price = 500
	want.CarModel = "2022"
	if !reflect.DeepEqual(*found, want) {
		t.Errorf("found = %+v\nwant  %+v (only price and carModel may change)", *found, want)
	}
}

func TestUpdateRecordEmpty(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.sys.CreateInquiry(ctx, records.InquirySubmission{Name: "Asha"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec, err := f.sys.UpdateRecord(ctx, created.ID, map[string]any{"isAdminEntry": true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.ID != created.ID || rec.IsAdminEntry {
		t.Errorf("rec = %+v, want unchanged inquiry", rec)
	}
}

func TestUpdateRecordNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.sys.UpdateRecord(context.Background(), "missing", map[string]any{"carName": "x"})
	if !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if records.MapHTTPStatus(err) != 404 {
		t.Errorf("status = %d, want 404", records.MapHTTPStatus(err))
	}
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.sys.CreateInventoryEntry(ctx, inventory("Civic", true), []media.File{image("a.jpg"), image("b.jpg")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.sys.DeleteRecord(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.sys.Find(ctx, created.ID); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("find after delete err = %v, want ErrNotFound", err)
	}
	if f.blobs.count() != 0 {
		t.Errorf("blobs = %d, want 0 after delete", f.blobs.count())
	}

	if err := f.sys.DeleteRecord(ctx, created.ID); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestDecodeUpdate(t *testing.T) {
	t.Run("weak scalars", func(t *testing.T) {
		cmd, err := records.DecodeUpdate(map[string]any{
			"carName":  "Swift",
			"carModel": 2019,
			"price":    "1200.50",
			"images":   []any{"https://a", "https://b"},
		})
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if cmd.CarName == nil || *cmd.CarName != "Swift" {
			t.Errorf("carName = %v", cmd.CarName)
		}
		if cmd.CarModel == nil || *cmd.CarModel != "2019" {
			t.Errorf("carModel = %v", cmd.CarModel)
		}
		if cmd.Price == nil || *cmd.Price != 1200.5 {
			t.Errorf("price = %v", cmd.Price)
		}
		if cmd.Images == nil || len(*cmd.Images) != 2 {
			t.Errorf("images = %v", cmd.Images)
		}
	})

	t.Run("immutable keys ignored", func(t *testing.T) {
		cmd, err := records.DecodeUpdate(map[string]any{
			"id":           "x",
			"_id":          "y",
			"isAdminEntry": true,
			"createdAt":    "2020-01-01",
		})
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !cmd.Empty() {
			t.Errorf("cmd = %+v, want empty", cmd)
		}
	})

	t.Run("invalid shape", func(t *testing.T) {
		_, err := records.DecodeUpdate(map[string]any{
			"carName": map[string]any{"nested": true},
		})
		if !errors.Is(err, records.ErrInvalidRecord) {
			t.Fatalf("err = %v, want ErrInvalidRecord", err)
		}
	})

	t.Run("null price ignored", func(t *testing.T) {
		cmd, err := records.DecodeUpdate(map[string]any{"price": nil})
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if cmd.Price != nil {
			t.Errorf("price = %v, want nil", *cmd.Price)
		}
	})
}

func TestCoercePrice(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"100", 100},
		{"12.5", 12.5},
		{42, 42},
		{"abc", 0},
		{"", 0},
		{"-3", 0},
		{"NaN", 0},
		{"Inf", 0},
		{nil, 0},
	}

	for _, tt := range tests {
		if got := records.CoercePrice(tt.in); got != tt.want {
			t.Errorf("CoercePrice(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

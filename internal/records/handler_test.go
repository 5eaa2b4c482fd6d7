package records_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/JaimeStill/autolot/internal/records"
	"github.com/JaimeStill/autolot/pkg/routes"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Car     *records.Record `json:"car"`
}

func requireHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin") != "yes" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newMux(f *fixture, maxUpload int64, guard func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, f.sys.Handler(maxUpload, guard).Routes())
	return mux
}

type part struct {
	name        string
	contentType string
	body        string
}

func multipartBody(t *testing.T, fields map[string]string, images []part) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, p := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		pw.Write([]byte(p.body))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return env
}

func TestAddInventoryHandler(t *testing.T) {
	fields := map[string]string{
		"carName":      "Civic",
		"carModel":     "2021",
		"price":        "15000",
		"isAdminEntry": "true",
	}

	tests := []struct {
		name       string
		images     []part
		maxUpload  int64
		wantStatus int
		wantStored int
	}{
		{
			name:       "created",
			images:     []part{{"front.jpg", "image/jpeg", "jpg"}, {"back.png", "image/png", "png"}},
			maxUpload:  1 << 20,
			wantStatus: http.StatusCreated,
			wantStored: 1,
		},
		{
			name:       "no images",
			maxUpload:  1 << 20,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unsupported image",
			images:     []part{{"anim.gif", "image/gif", "gif"}},
			maxUpload:  1 << 20,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too large",
			images:     []part{{"big.jpg", "image/jpeg", strings.Repeat("x", 4096)}},
			maxUpload:  1024,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			mux := newMux(f, tt.maxUpload, nil)

			body, contentType := multipartBody(t, fields, tt.images)
			req := httptest.NewRequest("POST", "/admin/add-inventory", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			if env.Success != (tt.wantStatus == http.StatusCreated) {
				t.Errorf("success = %v", env.Success)
			}
			if f.store.count() != tt.wantStored {
				t.Errorf("stored = %d, want %d", f.store.count(), tt.wantStored)
			}
			if tt.wantStatus == http.StatusCreated {
				if env.Message != "Car added successfully!" {
					t.Errorf("message = %q", env.Message)
				}
				if env.Car == nil || len(env.Car.Images) != 2 {
					t.Errorf("car = %+v", env.Car)
				}
			}
		})
	}
}

func TestAddInventoryNotMultipart(t *testing.T) {
	f := newFixture()
	mux := newMux(f, 1<<20, nil)

	req := httptest.NewRequest("POST", "/admin/add-inventory", strings.NewReader(`{"carName":"Civic"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Message != records.ErrNoImages.Error() {
		t.Errorf("message = %q, want %q", env.Message, records.ErrNoImages.Error())
	}
}

func TestContactAndListHandlers(t *testing.T) {
	f := newFixture()
	mux := newMux(f, 1<<20, nil)

	body := `{"name":"Asha","phone":"555-0101","message":"Call me"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contact", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("contact status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); !env.Success || env.Message == "" {
		t.Errorf("contact envelope = %+v", env)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/inquiries", nil))

	var inquiries []records.Record
	if err := json.NewDecoder(rec.Body).Decode(&inquiries); err != nil {
		t.Fatalf("decode inquiries: %v", err)
	}
	if len(inquiries) != 1 || inquiries[0].CustomerName != "Asha" || inquiries[0].Description != "Call me" {
		t.Errorf("inquiries = %+v", inquiries)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/cars/inventory", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("inventory body = %s, want []", got)
	}
}

func TestContactMalformed(t *testing.T) {
	f := newFixture()
	mux := newMux(f, 1<<20, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contact", strings.NewReader("{")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestContactCoercesScalars(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantName  string
		wantPhone string
		wantMsg   string
	}{
		{"numeric phone", `{"name":"Asha","phone":5550101,"message":"Call me"}`, "Asha", "5550101", "Call me"},
		{"long numeric phone", `{"name":"Ravi","phone":919876543210}`, "Ravi", "919876543210", ""},
		{"boolean message", `{"name":"Mei","phone":"555","message":true}`, "Mei", "555", "1"},
		{"null phone defaults", `{"name":"Lee","phone":null}`, "Lee", records.DefaultPhoneNumber, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			mux := newMux(f, 1<<20, nil)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contact", strings.NewReader(tt.body)))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}

			inquiries, err := f.sys.ListInquiries(t.Context())
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(inquiries) != 1 {
				t.Fatalf("stored = %d, want 1", len(inquiries))
			}
			got := inquiries[0]
			if got.CustomerName != tt.wantName || got.PhoneNumber != tt.wantPhone || got.Description != tt.wantMsg {
				t.Errorf("inquiry = %+v", got)
			}
		})
	}
}

func TestContactRejectsNonObject(t *testing.T) {
	for _, body := range []string{"{", `["Asha"]`, `"Asha"`, `{"name":{"first":"Asha"}}`} {
		f := newFixture()
		mux := newMux(f, 1<<20, nil)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/contact", strings.NewReader(body)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
		if f.store.count() != 0 {
			t.Errorf("%s: stored = %d, want 0", body, f.store.count())
		}
	}
}

func TestUpdateAndDeleteHandlers(t *testing.T) {
	f := newFixture()
	mux := newMux(f, 1<<20, nil)

	created, err := f.sys.CreateInquiry(t.Context(), records.InquirySubmission{Name: "Asha"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/admin/update/"+created.ID, strings.NewReader(`{"price":500,"carName":"Swift"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || env.Car == nil || env.Car.Price != 500 || env.Car.CarName != "Swift" {
		t.Errorf("update envelope = %+v", env)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/admin/delete/"+created.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Message != "Deleted successfully" {
		t.Errorf("delete message = %q", env.Message)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"update missing", "PUT", "/admin/update/" + created.ID, `{"carName":"x"}`},
		{"delete missing", "DELETE", "/admin/delete/" + created.ID, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
			if env := decodeEnvelope(t, rec); env.Success {
				t.Error("expected success=false")
			}
		})
	}
}

func TestAdminRoutesGuarded(t *testing.T) {
	f := newFixture()
	mux := newMux(f, 1<<20, requireHeader)

	tests := []struct {
		name   string
		method string
		path   string
		admin  bool
		want   int
	}{
		{"public inventory open", "GET", "/cars/inventory", false, http.StatusOK},
		{"inquiries denied", "GET", "/admin/inquiries", false, http.StatusUnauthorized},
		{"inquiries allowed", "GET", "/admin/inquiries", true, http.StatusOK},
		{"delete denied", "DELETE", "/admin/delete/x", false, http.StatusUnauthorized},
		{"add denied", "POST", "/admin/add-inventory", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.admin {
				req.Header.Set("X-Admin", "yes")
			}

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

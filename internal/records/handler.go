package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/JaimeStill/autolot/internal/media"
	"github.com/JaimeStill/autolot/pkg/formatting"
	"github.com/JaimeStill/autolot/pkg/handlers"
	"github.com/JaimeStill/autolot/pkg/routes"
)

const (
	imagesField     = "images"
	multipartMemory = 8 << 20

	msgCarAdded    = "Car added successfully!"
	msgInquirySent = "Thanks! We will get in touch with you soon."
	msgDeleted     = "Deleted successfully"
)

// Handler provides HTTP endpoints for listing operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
	guard         func(http.Handler) http.Handler
}

// NewHandler creates a Handler. guard, when non-nil, wraps every admin route.
func NewHandler(
	sys System,
	logger *slog.Logger,
	maxUploadSize int64,
	guard func(http.Handler) http.Handler,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "records"),
		maxUploadSize: maxUploadSize,
		guard:         guard,
	}
}

// Routes returns the public routes with the guarded admin routes as a child group.
func (h *Handler) Routes() routes.Group {
	admin := routes.Group{
		Prefix: "/admin",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/add-inventory", Handler: h.AddInventory},
			{Method: "GET", Pattern: "/inquiries", Handler: h.ListInquiries},
			{Method: "DELETE", Pattern: "/delete/{id}", Handler: h.Delete},
			{Method: "PUT", Pattern: "/update/{id}", Handler: h.Update},
		},
	}
	if h.guard != nil {
		admin.Middleware = []func(http.Handler) http.Handler{h.guard}
	}

	return routes.Group{
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/contact", Handler: h.Contact},
			{Method: "GET", Pattern: "/cars/inventory", Handler: h.ListInventory},
		},
		Children: []routes.Group{admin},
	}
}

// AddInventory accepts a multipart form with up to the configured number of
// "images" files plus the listing's text fields.
func (h *Handler) AddInventory(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		if r.ContentLength > h.maxUploadSize {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, h.tooLarge())
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, h.tooLarge())
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	files, closeFiles, err := openImages(r.MultipartForm)
	defer closeFiles()
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
		return
	}

	sub := InventorySubmission{
		CustomerName: r.FormValue("customerName"),
		PhoneNumber:  r.FormValue("phoneNumber"),
		CarName:      r.FormValue("carName"),
		CarModel:     r.FormValue("carModel"),
		Price:        r.FormValue("price"),
		Description:  r.FormValue("description"),
		IsAdminEntry: r.FormValue("isAdminEntry"),
	}

	rec, err := h.sys.CreateInventoryEntry(r.Context(), sub, files)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, handlers.Envelope{
		Success: true,
		Message: msgCarAdded,
		Car:     rec,
	})
}

// Contact records a public inquiry from a JSON object body. Field values are
// coerced to strings; a body that is not a JSON object is rejected.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
		return
	}

	sub, err := DecodeInquiry(fields)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if _, err := h.sys.CreateInquiry(r.Context(), sub); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, handlers.Envelope{
		Success: true,
		Message: msgInquirySent,
	})
}

// ListInventory returns public inventory, newest first.
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	recs, err := h.sys.ListPublicInventory(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, recs)
}

// ListInquiries returns customer inquiries, newest first.
func (h *Handler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	recs, err := h.sys.ListInquiries(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, recs)
}

// Update applies a partial JSON update to the record named by the id path parameter.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
		return
	}

	rec, err := h.sys.UpdateRecord(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, handlers.Envelope{
		Success: true,
		Car:     rec,
	})
}

// Delete removes the record named by the id path parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.DeleteRecord(r.Context(), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, handlers.Envelope{
		Success: true,
		Message: msgDeleted,
	})
}

func (h *Handler) tooLarge() error {
	return fmt.Errorf("%w: limit %s", ErrUploadTooLarge, formatting.FormatBytes(h.maxUploadSize, 0))
}

// openImages opens every uploaded image part. The returned close function is
// always safe to call.
func openImages(form *multipart.Form) ([]media.File, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	if form == nil {
		return nil, closeAll, nil
	}

	headers := form.File[imagesField]
	files := make([]media.File, 0, len(headers))

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)

		files = append(files, media.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	return files, closeAll, nil
}

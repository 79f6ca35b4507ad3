package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/lightit/patientreg/internal/schema"
	"github.com/lightit/patientreg/internal/service/patient"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeService struct {
	patients  []schema.Patient
	createErr error
	updateErr error
	deleteErr error
	getErr    error

	lastCreate   patient.CreateRequest
	lastUpdate   patient.UpdateRequest
	lastUpdateID uuid.UUID
}

func (f *fakeService) List(_ context.Context) ([]schema.Patient, error) {
	return f.patients, nil
}

func (f *fakeService) Get(_ context.Context, id uuid.UUID) (*schema.Patient, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.patients {
		if f.patients[i].ID == id {
			return &f.patients[i], nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (f *fakeService) Create(_ context.Context, req patient.CreateRequest) (*schema.Patient, error) {
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &schema.Patient{
		ID:               uuid.New(),
		Name:             req.Name,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		DocumentPhotoURL: req.DocumentPhotoURL,
	}, nil
}

func (f *fakeService) Update(_ context.Context, id uuid.UUID, req patient.UpdateRequest) (*schema.Patient, error) {
	f.lastUpdateID = id
	f.lastUpdate = req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &schema.Patient{ID: id}, nil
}

func (f *fakeService) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return true, nil
}

func (f *fakeService) WithAbsolutePhotoURL(p schema.Patient, baseURL string) schema.Patient {
	p.DocumentPhotoURL = baseURL + p.DocumentPhotoURL
	return p
}

func (f *fakeService) BuildFileURL(filename string) string {
	return "/uploads/documents/" + filename
}

type fakeUploads struct {
	validateErr error
	saveErr     error
	saved       int
}

func (f *fakeUploads) Validate(_ *multipart.FileHeader) error { return f.validateErr }

func (f *fakeUploads) Save(_ *multipart.FileHeader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved++
	return "generated.png", nil
}

func newTestApp(svc patient.Service, files Uploads) *fiber.App {
	app := fiber.New()
	h := NewPatientHandler(svc, files)

	api := app.Group("/api/v1")
	patients := api.Group("/patients")
	patients.Get("/", h.List)
	patients.Post("/", h.Create)
	p := patients.Group("/:id")
	p.Get("/", h.Get)
	p.Put("/", h.Update)
	p.Delete("/", h.Delete)

	return app
}

func multipartBody(t *testing.T, fields map[string]string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if withFile {
		fw, err := w.CreateFormFile("documentPhoto", "doc.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("png bytes")); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func validFields() map[string]string {
	return map[string]string{
		"name":        "Ana",
		"email":       "ana@x.com",
		"phoneNumber": "1112223333",
	}
}

func TestCreate_Created(t *testing.T) {
	svc := &fakeService{}
	files := &fakeUploads{}
	app := newTestApp(svc, files)

	buf, contentType := multipartBody(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/", buf)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if files.saved != 1 {
		t.Errorf("saved %d files, want 1", files.saved)
	}
	if svc.lastCreate.DocumentPhotoURL != "/uploads/documents/generated.png" {
		t.Errorf("DocumentPhotoURL = %q", svc.lastCreate.DocumentPhotoURL)
	}

	body := decodeBody(t, resp)
	data, _ := body["data"].(map[string]any)
	if data["email"] != "ana@x.com" {
		t.Errorf("data.email = %v", data["email"])
	}
}

func TestCreate_MissingFile(t *testing.T) {
	app := newTestApp(&fakeService{}, &fakeUploads{})

	buf, contentType := multipartBody(t, validFields(), false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/", buf)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{name: "empty name", mutate: func(f map[string]string) { f["name"] = "" }},
		{name: "name too long", mutate: func(f map[string]string) { f["name"] = strings.Repeat("a", 201) }},
		{name: "bad email", mutate: func(f map[string]string) { f["email"] = "not-an-email" }},
		{name: "email too long", mutate: func(f map[string]string) {
			f["email"] = strings.Repeat("a", 250) + "@example.com"
		}},
		{name: "phone with letters", mutate: func(f map[string]string) { f["phoneNumber"] = "12345abc" }},
		{name: "phone too long", mutate: func(f map[string]string) { f["phoneNumber"] = strings.Repeat("1", 21) }},
		{name: "empty phone", mutate: func(f map[string]string) { f["phoneNumber"] = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeService{}, &fakeUploads{})

			fields := validFields()
			tt.mutate(fields)
			buf, contentType := multipartBody(t, fields, true)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/", buf)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestCreate_Duplicate(t *testing.T) {
	svc := &fakeService{createErr: &patient.DuplicateFieldError{Message: "a patient with this email or phone number already exists"}}
	app := newTestApp(svc, &fakeUploads{})

	buf, contentType := multipartBody(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/", buf)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "a patient with this email or phone number already exists" {
		t.Errorf("error = %v", body["error"])
	}
}

// ---------------------------------------------------------------------------
// Get / List
// ---------------------------------------------------------------------------

func TestGet(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{patients: []schema.Patient{{
		ID:               id,
		Name:             "Ana",
		DocumentPhotoURL: "/uploads/documents/doc.png",
	}}}
	app := newTestApp(svc, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+id.String(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	data, _ := body["data"].(map[string]any)
	got, _ := data["documentPhotoUrl"].(string)
	if !strings.HasSuffix(got, "/uploads/documents/doc.png") || !strings.HasPrefix(got, "http") {
		t.Errorf("documentPhotoUrl = %q, want absolute URL", got)
	}
}

func TestGet_Absent(t *testing.T) {
	app := newTestApp(&fakeService{}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGet_InvalidID(t *testing.T) {
	app := newTestApp(&fakeService{}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/not-a-uuid", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestList(t *testing.T) {
	svc := &fakeService{patients: []schema.Patient{
		{ID: uuid.New(), Name: "Ana", DocumentPhotoURL: "/uploads/documents/a.png"},
		{ID: uuid.New(), Name: "Juan", DocumentPhotoURL: "/uploads/documents/b.png"},
	}}
	app := newTestApp(svc, &fakeUploads{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	data, _ := body["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("len(data) = %d, want 2", len(data))
	}

	// unlike Get, listing keeps photo URLs relative
	first, _ := data[0].(map[string]any)
	if got, _ := first["documentPhotoUrl"].(string); got != "/uploads/documents/a.png" {
		t.Errorf("documentPhotoUrl = %q, want relative path", got)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_JSONPartial(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{}
	app := newTestApp(svc, &fakeUploads{})

	payload := bytes.NewBufferString(`{"name":"Ana María"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/"+id.String(), payload)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if svc.lastUpdateID != id {
		t.Errorf("update id = %s, want %s", svc.lastUpdateID, id)
	}
	if svc.lastUpdate.Name == nil || *svc.lastUpdate.Name != "Ana María" {
		t.Errorf("Name = %v", svc.lastUpdate.Name)
	}
	if svc.lastUpdate.Email != nil || svc.lastUpdate.PhoneNumber != nil || svc.lastUpdate.DocumentPhotoURL != nil {
		t.Error("omitted fields must stay nil")
	}
}

func TestUpdate_JSONPhotoURL(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{}
	app := newTestApp(svc, &fakeUploads{})

	payload := bytes.NewBufferString(`{"documentPhotoUrl":"/uploads/documents/new.png"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/"+id.String(), payload)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if svc.lastUpdate.DocumentPhotoURL == nil || *svc.lastUpdate.DocumentPhotoURL != "/uploads/documents/new.png" {
		t.Errorf("DocumentPhotoURL = %v, want /uploads/documents/new.png", svc.lastUpdate.DocumentPhotoURL)
	}
	if svc.lastUpdate.Name != nil || svc.lastUpdate.Email != nil || svc.lastUpdate.PhoneNumber != nil {
		t.Error("omitted fields must stay nil")
	}
}

func TestUpdate_JSONPhotoURLValidation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "outside managed prefix", url: "/somewhere/else.png"},
		{name: "nested path", url: "/uploads/documents/a/b.png"},
		{name: "traversal", url: "/uploads/documents/../escape.png"},
		{name: "too long", url: "/uploads/documents/" + strings.Repeat("a", 500) + ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			app := newTestApp(svc, &fakeUploads{})

			body, _ := json.Marshal(map[string]string{"documentPhotoUrl": tt.url})
			req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/"+uuid.NewString(), bytes.NewReader(body))
			req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestUpdate_MultipartWithPhoto(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{}
	files := &fakeUploads{}
	app := newTestApp(svc, files)

	buf, contentType := multipartBody(t, map[string]string{"name": "Ana"}, true)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/"+id.String(), buf)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if files.saved != 1 {
		t.Errorf("saved %d files, want 1", files.saved)
	}
	if svc.lastUpdate.DocumentPhotoURL == nil || *svc.lastUpdate.DocumentPhotoURL != "/uploads/documents/generated.png" {
		t.Errorf("DocumentPhotoURL = %v", svc.lastUpdate.DocumentPhotoURL)
	}
	if svc.lastUpdate.PhoneNumber != nil {
		t.Error("phoneNumber was not submitted, must stay nil")
	}
}

func TestUpdate_Absent(t *testing.T) {
	svc := &fakeService{updateErr: patient.ErrPatientNotFound}
	app := newTestApp(svc, &fakeUploads{})

	payload := bytes.NewBufferString(`{"name":"Ana"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/"+uuid.NewString(), payload)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdate_Duplicate(t *testing.T) {
	svc := &fakeService{updateErr: &patient.DuplicateFieldError{Message: "a patient with this email or phone number already exists"}}
	app := newTestApp(svc, &fakeUploads{})

	payload := bytes.NewBufferString(`{"email":"taken@x.com"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/"+uuid.NewString(), payload)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete(t *testing.T) {
	app := newTestApp(&fakeService{}, &fakeUploads{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/patients/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestDelete_Absent(t *testing.T) {
	svc := &fakeService{deleteErr: patient.ErrPatientNotFound}
	app := newTestApp(svc, &fakeUploads{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/patients/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

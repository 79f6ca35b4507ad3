package handler

import (
	"errors"
	"mime/multipart"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/lightit/patientreg/internal/service/patient"
	"github.com/lightit/patientreg/pkg/filestore"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
	photoPattern = regexp.MustCompile(`^/uploads/documents/[^/]+$`)
)

// Uploads is the slice of the file store the handler needs: pre-flight
// validation and saving of an incoming document photo.
type Uploads interface {
	Validate(fh *multipart.FileHeader) error
	Save(fh *multipart.FileHeader) (string, error)
}

type PatientHandler struct {
	svc   patient.Service
	files Uploads
}

func NewPatientHandler(svc patient.Service, files Uploads) *PatientHandler {
	return &PatientHandler{svc: svc, files: files}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mapPatientError(c fiber.Ctx, err error) error {
	var dup *patient.DuplicateFieldError
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.As(err, &dup):
		return conflict(c, dup.Message)
	default:
		return internalError(c)
	}
}

func validateName(name string) string {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > 200 {
		return "name must be between 1 and 200 characters"
	}
	return ""
}

func validateEmail(email string) string {
	if len(email) > 255 || !emailPattern.MatchString(email) {
		return "email must be a valid address of at most 255 characters"
	}
	return ""
}

func validatePhone(phone string) string {
	if len(phone) < 1 || len(phone) > 20 || !phonePattern.MatchString(phone) {
		return "phoneNumber must be 1-20 characters of digits, spaces, dashes, plus signs or parentheses"
	}
	return ""
}

func validatePhotoURL(u string) string {
	if len(u) > 500 || !photoPattern.MatchString(u) {
		return "documentPhotoUrl must be a path under /uploads/documents of at most 500 characters"
	}
	return ""
}

var (
	errInvalidForm = errors.New("invalid multipart form")
	errInvalidBody = errors.New("invalid request body")
)

func mapUploadError(c fiber.Ctx, err error) error {
	var tooLarge filestore.ErrTooLarge
	var badType filestore.ErrInvalidType
	switch {
	case errors.As(err, &tooLarge) || errors.As(err, &badType):
		return badRequest(c, err.Error())
	case errors.Is(err, errInvalidForm) || errors.Is(err, errInvalidBody):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// savePhoto validates and stores an uploaded document photo, returning its
// canonical relative URL.
func (h *PatientHandler) savePhoto(fh *multipart.FileHeader) (string, error) {
	if err := h.files.Validate(fh); err != nil {
		return "", err
	}
	filename, err := h.files.Save(fh)
	if err != nil {
		return "", err
	}
	return h.svc.BuildFileURL(filename), nil
}

// ---------------------------------------------------------------------------
// Patient CRUD
// ---------------------------------------------------------------------------

// GET /patients
//
// Photo URLs stay relative here; only the single-record Get resolves them
// against the request host.
func (h *PatientHandler) List(c fiber.Ctx) error {
	patients, err := h.svc.List(c.Context())
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, patients)
}

// GET /patients/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid patient id")
	}

	p, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return mapPatientError(c, err)
	}

	return ok(c, h.svc.WithAbsolutePhotoURL(*p, c.BaseURL()))
}

// POST /patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	name := c.FormValue("name")
	email := c.FormValue("email")
	phone := c.FormValue("phoneNumber")

	if msg := validateName(name); msg != "" {
		return badRequest(c, msg)
	}
	if msg := validateEmail(email); msg != "" {
		return badRequest(c, msg)
	}
	if msg := validatePhone(phone); msg != "" {
		return badRequest(c, msg)
	}

	fh, err := c.FormFile("documentPhoto")
	if err != nil {
		return badRequest(c, "documentPhoto file is required")
	}
	photoURL, err := h.savePhoto(fh)
	if err != nil {
		return mapUploadError(c, err)
	}

	p, err := h.svc.Create(c.Context(), patient.CreateRequest{
		Name:             name,
		Email:            email,
		PhoneNumber:      phone,
		DocumentPhotoURL: photoURL,
	})
	if err != nil {
		return mapPatientError(c, err)
	}

	return created(c, p)
}

// PUT /patients/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid patient id")
	}

	var req patient.UpdateRequest
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req, err = h.updateFromMultipart(c)
	} else {
		req, err = updateFromJSON(c)
	}
	if err != nil {
		return mapUploadError(c, err)
	}

	if req.Name != nil {
		if msg := validateName(*req.Name); msg != "" {
			return badRequest(c, msg)
		}
	}
	if req.Email != nil {
		if msg := validateEmail(*req.Email); msg != "" {
			return badRequest(c, msg)
		}
	}
	if req.PhoneNumber != nil {
		if msg := validatePhone(*req.PhoneNumber); msg != "" {
			return badRequest(c, msg)
		}
	}
	if req.DocumentPhotoURL != nil {
		if msg := validatePhotoURL(*req.DocumentPhotoURL); msg != "" {
			return badRequest(c, msg)
		}
	}

	p, err := h.svc.Update(c.Context(), id, req)
	if err != nil {
		return mapPatientError(c, err)
	}

	return ok(c, p)
}

func (h *PatientHandler) updateFromMultipart(c fiber.Ctx) (patient.UpdateRequest, error) {
	var req patient.UpdateRequest

	form, err := c.MultipartForm()
	if err != nil {
		return req, errInvalidForm
	}
	if vals, present := form.Value["name"]; present && len(vals) > 0 {
		req.Name = &vals[0]
	}
	if vals, present := form.Value["email"]; present && len(vals) > 0 {
		req.Email = &vals[0]
	}
	if vals, present := form.Value["phoneNumber"]; present && len(vals) > 0 {
		req.PhoneNumber = &vals[0]
	}

	if fh, err := c.FormFile("documentPhoto"); err == nil {
		photoURL, err := h.savePhoto(fh)
		if err != nil {
			return req, err
		}
		req.DocumentPhotoURL = &photoURL
	}
	return req, nil
}

func updateFromJSON(c fiber.Ctx) (patient.UpdateRequest, error) {
	var body struct {
		Name             *string `json:"name"`
		Email            *string `json:"email"`
		PhoneNumber      *string `json:"phoneNumber"`
		DocumentPhotoURL *string `json:"documentPhotoUrl"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return patient.UpdateRequest{}, errInvalidBody
	}
	return patient.UpdateRequest{
		Name:             body.Name,
		Email:            body.Email,
		PhoneNumber:      body.PhoneNumber,
		DocumentPhotoURL: body.DocumentPhotoURL,
	}, nil
}

// DELETE /patients/:id
func (h *PatientHandler) Delete(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid patient id")
	}

	if _, err := h.svc.Delete(c.Context(), id); err != nil {
		return mapPatientError(c, err)
	}

	return noContent(c)
}

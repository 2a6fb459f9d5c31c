// Package courses manages study courses and their materials.
package courses

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/focusflow/internal/model"
)

// MaxMaterialBytes caps uploaded files.
const MaxMaterialBytes = 5 << 20

// Accepted file types.
const (
	MIMEPDF  = "application/pdf"
	MIMEDoc  = "application/msword"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrEmptyTitle is returned when a course or material has no title.
	ErrEmptyTitle = errors.New("title is required")
	// ErrTooLarge is returned for files over MaxMaterialBytes.
	ErrTooLarge = fmt.Errorf("file exceeds %d MB", MaxMaterialBytes>>20)
	// ErrUnsupportedType is returned for files that are not PDF or Word documents.
	ErrUnsupportedType = errors.New("only PDF and Word documents are supported")
	// ErrInvalidURL is returned for links that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("link must be an http or https URL")
	// ErrNoFileData is returned when extracting a link material.
	ErrNoFileData = errors.New("material has no file data")
)

var mimeByExt = map[string]string{
	".pdf":  MIMEPDF,
	".doc":  MIMEDoc,
	".docx": MIMEDocx,
}

// Backend persists courses and materials.
type Backend interface {
	Courses(ctx context.Context) ([]model.Course, error)
	Course(ctx context.Context, id string) (model.Course, error)
	InsertCourse(ctx context.Context, c model.Course) error
	DeleteCourse(ctx context.Context, id string) error
	Materials(ctx context.Context, courseID string) ([]model.Material, error)
	Material(ctx context.Context, id string) (model.Material, error)
	InsertMaterial(ctx context.Context, m model.Material) error
	DeleteMaterial(ctx context.Context, id string) error
}

// CourseView is a course with its materials.
type CourseView struct {
	model.Course `yaml:",inline"`
	Materials    []model.Material `json:"materials" yaml:"materials"`
}

// Manager implements course operations.
type Manager struct {
	backend Backend
	now     func() time.Time
}

// NewManager returns a manager over backend.
func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend, now: time.Now}
}

// List returns every course with its materials.
func (m *Manager) List(ctx context.Context) ([]CourseView, error) {
	courses, err := m.backend.Courses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CourseView, 0, len(courses))
	for _, c := range courses {
		mats, err := m.backend.Materials(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CourseView{Course: c, Materials: mats})
	}
	return out, nil
}

// Create adds a course.
func (m *Manager) Create(ctx context.Context, title, description string) (model.Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Course{}, ErrEmptyTitle
	}
	c := model.Course{
		ID:          uuid.New().String(),
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   m.now().UnixMilli(),
	}
	if err := m.backend.InsertCourse(ctx, c); err != nil {
		return model.Course{}, err
	}
	return c, nil
}

// Remove deletes a course and its materials.
func (m *Manager) Remove(ctx context.Context, courseID string) error {
	return m.backend.DeleteCourse(ctx, courseID)
}

// AddLink attaches a web link to a course.
func (m *Manager) AddLink(ctx context.Context, courseID, title, link string) (model.Material, error) {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.Material{}, ErrInvalidURL
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = u.Host
	}
	mat := model.Material{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		Title:     title,
		URL:       link,
		CreatedAt: m.now().UnixMilli(),
	}
	if err := m.backend.InsertMaterial(ctx, mat); err != nil {
		return model.Material{}, err
	}
	return mat, nil
}

// AttachFile reads a local file and attaches it to a course.
func (m *Manager) AttachFile(ctx context.Context, courseID, title, path string) (model.Material, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Material{}, err
	}
	if info.Size() > MaxMaterialBytes {
		return model.Material{}, ErrTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Material{}, err
	}
	return m.Attach(ctx, courseID, title, filepath.Base(path), data)
}

// Attach stores file contents as a base64 data URL. PDFs also record their page count.
func (m *Manager) Attach(ctx context.Context, courseID, title, fileName string, data []byte) (model.Material, error) {
	if len(data) > MaxMaterialBytes {
		return model.Material{}, ErrTooLarge
	}
	mime, ok := mimeByExt[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		return model.Material{}, ErrUnsupportedType
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}
	mat := model.Material{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		Title:     title,
		FileName:  fileName,
		MIME:      mime,
		Size:      int64(len(data)),
		Data:      EncodeDataURL(mime, data),
		CreatedAt: m.now().UnixMilli(),
	}
	if mime == MIMEPDF {
		mat.Pages = PageCount(data)
	}
	if err := m.backend.InsertMaterial(ctx, mat); err != nil {
		return model.Material{}, err
	}
	return mat, nil
}

// RemoveMaterial deletes one material.
func (m *Manager) RemoveMaterial(ctx context.Context, materialID string) error {
	return m.backend.DeleteMaterial(ctx, materialID)
}

// Extract returns the stored file of a material.
func (m *Manager) Extract(ctx context.Context, materialID string) (model.Material, []byte, error) {
	mat, err := m.backend.Material(ctx, materialID)
	if err != nil {
		return model.Material{}, nil, err
	}
	if !mat.IsFile() {
		return mat, nil, ErrNoFileData
	}
	_, data, err := DecodeDataURL(mat.Data)
	if err != nil {
		return mat, nil, err
	}
	return mat, data, nil
}

// Preview returns the text of the first page of a PDF material.
func (m *Manager) Preview(ctx context.Context, materialID string) (string, error) {
	mat, data, err := m.Extract(ctx, materialID)
	if err != nil {
		return "", err
	}
	if mat.MIME != MIMEPDF {
		return "", ErrUnsupportedType
	}
	return FirstPageText(bytes.NewReader(data), int64(len(data)))
}

// EncodeDataURL renders data as a base64 data URL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a base64 data URL.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URL is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return mime, data, nil
}

package library

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
	"valvx/internal/queue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory stand-in for the three repositories the library
// services use. It keeps foreign-key-like behavior where the services rely
// on it.
type memStore struct {
	mu sync.Mutex

	nextID      int64
	folders     map[int64]models.Folder
	pdfs        map[int64]models.PDFDocument
	versions    map[int64][]models.PDFVersion
	metadata    map[int64]map[string]string
	annotations map[int64]models.PDFAnnotation
}

func newMemStore() *memStore {
	return &memStore{
		folders:     map[int64]models.Folder{},
		pdfs:        map[int64]models.PDFDocument{},
		versions:    map[int64][]models.PDFVersion{},
		metadata:    map[int64]map[string]string{},
		annotations: map[int64]models.PDFAnnotation{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memFolders struct{ *memStore }

// siblingTaken mirrors the unique index on (parent_id, name). Callers hold mu.
func (r memFolders) siblingTaken(f *models.Folder) error {
	for _, other := range r.folders {
		if other.ID != f.ID && other.Name == f.Name && sameParent(other.ParentID, f.ParentID) {
			return &domain.ConflictError{Message: "duplicate folder name", ResourceType: "folder", ResourceID: f.Name}
		}
	}
	return nil
}

func (r memFolders) Create(_ context.Context, f *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.siblingTaken(f); err != nil {
		return err
	}
	f.ID = r.id()
	f.CreatedAt = time.Now()
	r.folders[f.ID] = *f
	return nil
}

func (r memFolders) GetByID(_ context.Context, id int64) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

func (r memFolders) GetRoot(_ context.Context) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.IsRoot() {
			return &f, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memFolders) List(_ context.Context) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Folder, 0, len(r.folders))
	for _, f := range r.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memFolders) ListChildren(_ context.Context, parentID *int64) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if sameParent(f.ParentID, parentID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r memFolders) Update(_ context.Context, f *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[f.ID]; !ok {
		return domain.ErrNotFound
	}
	if err := r.siblingTaken(f); err != nil {
		return err
	}
	r.folders[f.ID] = *f
	return nil
}

func (r memFolders) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.folders, id)
	return nil
}

func (r memFolders) CountContents(_ context.Context, id int64) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var folders, pdfs int
	for _, f := range r.folders {
		if f.ParentID != nil && *f.ParentID == id {
			folders++
		}
	}
	for _, p := range r.pdfs {
		if p.FolderID != nil && *p.FolderID == id {
			pdfs++
		}
	}
	return folders, pdfs, nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type memPDFs struct{ *memStore }

func (r memPDFs) Create(_ context.Context, d *models.PDFDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.pdfs {
		if existing.UniqueID == d.UniqueID {
			return &domain.ConflictError{Message: "duplicate unique_id", ResourceType: "pdf"}
		}
	}
	d.ID = r.id()
	d.UploadedAt = time.Now()
	r.pdfs[d.ID] = *d
	return nil
}

func (r memPDFs) GetByUniqueID(_ context.Context, uniqueID string) (*models.PDFDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.pdfs {
		if d.UniqueID == uniqueID {
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memPDFs) GetByUniqueIDForUpdate(ctx context.Context, uniqueID string) (*models.PDFDocument, error) {
	return r.GetByUniqueID(ctx, uniqueID)
}

func (r memPDFs) List(_ context.Context, folderID *int64) ([]models.PDFDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PDFDocument
	for _, d := range r.pdfs {
		if folderID == nil || sameParent(d.FolderID, folderID) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memPDFs) UpdateFile(_ context.Context, id int64, filePath string, fileSize int64, version int, uploadedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.pdfs[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.FilePath, d.FileSize, d.Version, d.UploadedAt = filePath, fileSize, version, uploadedAt
	r.pdfs[id] = d
	return nil
}

func (r memPDFs) Delete(_ context.Context, uniqueID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, d := range r.pdfs {
		if d.UniqueID != uniqueID {
			continue
		}
		paths := []string{d.FilePath}
		for _, v := range r.versions[id] {
			if v.FilePath != d.FilePath {
				paths = append(paths, v.FilePath)
			}
		}
		delete(r.pdfs, id)
		delete(r.versions, id)
		delete(r.metadata, id)
		for aid, a := range r.annotations {
			if a.PDFID == id {
				delete(r.annotations, aid)
			}
		}
		return paths, nil
	}
	return nil, domain.ErrNotFound
}

func (r memPDFs) CreateVersion(_ context.Context, v *models.PDFVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.versions[v.PDFID] {
		if existing.VersionNumber == v.VersionNumber {
			return &domain.ConflictError{Message: "duplicate version", ResourceType: "pdf_version"}
		}
	}
	v.ID = r.id()
	v.CreatedAt = time.Now()
	r.versions[v.PDFID] = append(r.versions[v.PDFID], *v)
	return nil
}

func (r memPDFs) ListVersions(_ context.Context, pdfID int64) ([]models.PDFVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.PDFVersion(nil), r.versions[pdfID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (r memPDFs) SetMetadata(_ context.Context, pdfID int64, values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pdfs[pdfID]; !ok {
		return domain.ErrNotFound
	}
	if r.metadata[pdfID] == nil {
		r.metadata[pdfID] = map[string]string{}
	}
	for k, v := range values {
		r.metadata[pdfID][k] = v
	}
	return nil
}

func (r memPDFs) GetMetadata(_ context.Context, pdfID int64) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]string{}
	for k, v := range r.metadata[pdfID] {
		out[k] = v
	}
	return out, nil
}

type memAnnotations struct{ *memStore }

func (r memAnnotations) Create(_ context.Context, a *models.PDFAnnotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.id()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.annotations[a.ID] = *a
	return nil
}

func (r memAnnotations) GetByID(_ context.Context, id int64) (*models.PDFAnnotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.annotations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r memAnnotations) List(_ context.Context, pdfID int64, filter models.AnnotationFilter) ([]models.PDFAnnotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.PDFAnnotation{}
	for _, a := range r.annotations {
		if a.PDFID != pdfID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.PageNumber != 0 && a.Rect.PageNumber != filter.PageNumber {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rect.PageNumber != out[j].Rect.PageNumber {
			return out[i].Rect.PageNumber < out[j].Rect.PageNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memAnnotations) Update(_ context.Context, a *models.PDFAnnotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.annotations[a.ID]; !ok {
		return domain.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	r.annotations[a.ID] = *a
	return nil
}

func (r memAnnotations) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.annotations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.annotations, id)
	return nil
}

// passTx runs the function directly; the in-memory store has no rollback.
type passTx struct{}

func (passTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type recordedEvent struct {
	Type    string
	Payload any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Publish(eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType, payload})
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type jobRecorder struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (r *jobRecorder) Publish(_ context.Context, job queue.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

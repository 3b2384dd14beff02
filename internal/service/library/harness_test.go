package library

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	qt "github.com/frankban/quicktest"

	"valvx/internal/domain/models"
	"valvx/internal/domain/services"
	"valvx/internal/storage"
)

const testMaxBytes = 1 << 20

type testLibrary struct {
	mem     *memStore
	files   *storage.DiskStore
	events  *eventRecorder
	jobs    *jobRecorder
	folders services.FolderService
	pdfs    services.PDFService
	notes   services.AnnotationService
	root    *models.Folder
}

func newTestLibrary(c *qt.C) *testLibrary {
	mem := newMemStore()
	files, err := storage.NewDiskStore(c.TempDir())
	c.Assert(err, qt.IsNil)

	lib := &testLibrary{
		mem:    mem,
		files:  files,
		events: &eventRecorder{},
		jobs:   &jobRecorder{},
	}
	logger := discardLogger()
	lib.folders = NewFolderService(memFolders{mem}, memPDFs{mem}, passTx{}, files, lib.events, logger)
	lib.pdfs = NewPDFService(memPDFs{mem}, memFolders{mem}, passTx{}, files, lib.jobs, lib.events, testMaxBytes, logger)
	lib.notes = NewAnnotationService(memAnnotations{mem}, memPDFs{mem}, lib.events, logger)

	lib.root = &models.Folder{Name: models.RootFolderName}
	c.Assert(memFolders{mem}.Create(context.Background(), lib.root), qt.IsNil)
	return lib
}

func (l *testLibrary) mkdir(c *qt.C, name string, parent *int64) *models.Folder {
	f, err := l.folders.CreateFolder(context.Background(), &services.CreateFolderRequest{Name: name, ParentID: parent})
	c.Assert(err, qt.IsNil)
	return f
}

func (l *testLibrary) upload(c *qt.C, req services.UploadRequest) *models.PDFDocument {
	if req.File == nil {
		req.File = bytes.NewReader(pdfBytes(1))
	}
	doc, err := l.pdfs.Upload(context.Background(), &req)
	c.Assert(err, qt.IsNil)
	return doc
}

// pdfBytes builds a valid PDF with n empty pages.
func pdfBytes(n int) []byte {
	objs := []string{"<< /Type /Catalog /Pages 2 0 R >>"}
	kids := make([]string, n)
	for i := range n {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for range n {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func ptr[T any](v T) *T { return &v }

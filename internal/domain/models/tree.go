package models

import "time"

// FolderTreeNode is a folder with its nested subfolders and PDFs.
type FolderTreeNode struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	ParentID    *int64            `json:"parent_id"`
	Path        string            `json:"path"`
	Level       int               `json:"level"`
	CreatedAt   time.Time         `json:"created_at"`
	Children    []*FolderTreeNode `json:"children"`
	Files       []PDFTreeNode     `json:"files"`
}

// PDFTreeNode is a PDF leaf in the folder tree (metadata only).
type PDFTreeNode struct {
	UniqueID    string    `json:"unique_id"`
	DisplayName string    `json:"display_name"`
	FolderID    *int64    `json:"folder_id"`
	Version     int       `json:"version"`
	UploadedAt  time.Time `json:"uploaded_at"`
	URL         string    `json:"url"`
}

// Tree is the whole library: top-level folders plus PDFs that have no folder.
type Tree struct {
	Folders []*FolderTreeNode `json:"folders"`
	Files   []PDFTreeNode     `json:"files"`
}

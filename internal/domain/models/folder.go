package models

import "time"

// RootFolderName is the folder created on first start; uploads without a
// folder land here.
const RootFolderName = "root"

type Folder struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ParentID    *int64    `json:"parent_id" db:"parent_id"` // NULL = top level
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IsRoot reports whether the folder is the library's root folder.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil && f.Name == RootFolderName
}

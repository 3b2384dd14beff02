package config

const (
	// MaxFolderNameLength matches folders.name VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxTitleLength matches pdf_documents.display_name VARCHAR(255).
	MaxTitleLength = 255

	// MaxFilenameLength matches pdf_documents.filename VARCHAR(255).
	MaxFilenameLength = 255

	// MaxDescriptionLength bounds free-text descriptions on folders and PDFs.
	MaxDescriptionLength = 4000

	// MaxCommentLength bounds annotation comments.
	MaxCommentLength = 4000

	// DefaultMaxUploadMB is the per-file upload limit when MAX_UPLOAD_MB is unset.
	DefaultMaxUploadMB = 10

	// TextExcerptLength is how many characters of extracted PDF text are kept as metadata.
	TextExcerptLength = 500
)

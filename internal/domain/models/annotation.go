package models

import "time"

// AnnotationStatus is the review state of a PDF annotation.
type AnnotationStatus string

const (
	StatusNewComment     AnnotationStatus = "new_comment"
	StatusActionRequired AnnotationStatus = "action_required"
	StatusRejected       AnnotationStatus = "rejected"
	StatusNewReview      AnnotationStatus = "new_review"
	StatusOtherForum     AnnotationStatus = "other_forum"
	StatusResolved       AnnotationStatus = "resolved"
)

// AnnotationStatuses lists every valid status in display order.
var AnnotationStatuses = []AnnotationStatus{
	StatusNewComment,
	StatusActionRequired,
	StatusRejected,
	StatusNewReview,
	StatusOtherForum,
	StatusResolved,
}

// AnnotationRect is a highlighted region in PDF page coordinates.
type AnnotationRect struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PageNumber int     `json:"pageNumber"`
}

type PDFAnnotation struct {
	ID         int64            `json:"id"`
	PDFID      int64            `json:"pdfId"`
	Rect       AnnotationRect   `json:"rect"`
	Color      string           `json:"color"`
	Comment    string           `json:"comment"`
	Status     AnnotationStatus `json:"status"`
	CreatedBy  string           `json:"createdBy"`
	AssignedTo *string          `json:"assignedTo,omitempty"`
	Deadline   *time.Time       `json:"deadline,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// AnnotationFilter narrows an annotation listing. Zero values match everything.
type AnnotationFilter struct {
	Status     AnnotationStatus
	PageNumber int
}

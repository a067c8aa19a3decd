package models

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
	"time"
)

// Upload record sources.
const (
	SourceUpload     = "upload"
	SourceReconciler = "reconciler"
)

// UploadedImageRecord is one row of the append-only upload audit log.
type UploadedImageRecord struct {
	Path         string    `firestore:"path" json:"path"`
	URL          string    `firestore:"url" json:"url"`
	Section      string    `firestore:"section" json:"section"`
	OriginalName string    `firestore:"originalName" json:"originalName"`
	ContentType  string    `firestore:"contentType" json:"contentType"`
	Size         int64     `firestore:"size" json:"size"`
	UploadedAt   time.Time `firestore:"uploadedAt" json:"uploadedAt"`
	PageCount    int       `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	AltText      string    `firestore:"altText,omitempty" json:"altText,omitempty"`
	Source       string    `firestore:"source" json:"source"`
}

// UploadRecordID is the audit log key for an object path. One object has
// at most one record.
func UploadRecordID(objectPath string) string {
	sum := sha256.Sum256([]byte(objectPath))
	return hex.EncodeToString(sum[:])
}

// Upload sections and the storage folders they map to.
const (
	FolderTestimonials = "client-face-pics"
	FolderProjects     = "projects"
	FolderLogos        = "logos"
	FolderDefault      = "uploads"
)

// FolderForSection maps a declared upload section to its storage folder.
// Unrecognised sections land in the generic folder.
func FolderForSection(section string) string {
	switch section {
	case SectionTestimonials:
		return FolderTestimonials
	case SectionProjects:
		return FolderProjects
	case "logos":
		return FolderLogos
	default:
		return FolderDefault
	}
}

// SectionForPath infers the upload section from an object path's folder.
func SectionForPath(objectPath string) string {
	folder, _, found := strings.Cut(path.Clean(objectPath), "/")
	if !found {
		return ""
	}
	switch folder {
	case FolderTestimonials:
		return SectionTestimonials
	case FolderProjects:
		return SectionProjects
	case FolderLogos:
		return "logos"
	}
	return ""
}

package models

import "time"

// ArtifactKind tells uploads from conversion outputs.
type ArtifactKind string

const (
	ArtifactUpload    ArtifactKind = "upload"
	ArtifactConverted ArtifactKind = "converted"
)

// FileInfo describes a temporary file held by the artifact store.
type FileInfo struct {
	ID        string       `json:"id" msgpack:"id"`
	Name      string       `json:"name" msgpack:"name"`
	Size      int64        `json:"size" msgpack:"size"`
	Kind      ArtifactKind `json:"kind" msgpack:"kind"`
	UploadID  string       `json:"uploadId,omitempty" msgpack:"uploadId,omitempty"` // source upload of a converted file
	CreatedAt time.Time    `json:"createdAt" msgpack:"createdAt"`
	ExpiresAt time.Time    `json:"expiresAt" msgpack:"expiresAt"`
}

// Expired reports whether the file is past its retention at now.
func (f *FileInfo) Expired(now time.Time) bool {
	return !now.Before(f.ExpiresAt)
}

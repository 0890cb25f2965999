package models

import "github.com/bidmap-converter/backend/internal/iconstyle"

// UploadResponse is returned after a map upload.
type UploadResponse struct {
	UploadID string `json:"uploadId" msgpack:"uploadId"`
	Name     string `json:"name" msgpack:"name"`
	Size     int64  `json:"size" msgpack:"size"`
}

// ConversionResponse reports a finished conversion and where to fetch it.
type ConversionResponse struct {
	UploadID        string   `json:"uploadId" msgpack:"uploadId"`
	FileID          string   `json:"fileId" msgpack:"fileId"`
	Name            string   `json:"name" msgpack:"name"`
	Mode            string   `json:"mode" msgpack:"mode"`
	Converted       int      `json:"converted" msgpack:"converted"`
	Skipped         int      `json:"skipped" msgpack:"skipped"`
	SkippedSubjects []string `json:"skippedSubjects" msgpack:"skippedSubjects"`
	ProcessingTime  int64    `json:"processingTimeMs" msgpack:"processingTimeMs"`
	DownloadURL     string   `json:"downloadUrl" msgpack:"downloadUrl"`
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status          string   `json:"status"`
	BidIcons        int      `json:"bidIcons"`
	DeploymentIcons int      `json:"deploymentIcons"`
	Mappings        int      `json:"mappings"`
	ReferenceColors int      `json:"referenceColors"`
	RenderMode      string   `json:"renderMode"`
	IconEditing     bool     `json:"iconEditing"`
	MappingWarnings []string `json:"mappingWarnings,omitempty"`
}

// BulkIconUpdate applies one partial style to several subjects.
type BulkIconUpdate struct {
	Subjects []string            `json:"subjects"`
	Updates  iconstyle.Overrides `json:"updates"`
}

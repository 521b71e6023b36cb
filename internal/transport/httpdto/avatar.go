package httpdto

// UploadImageRequest is used for POST /v1/avatar (multipart form with an
// "image" file part; options arrive as form fields)
type UploadImageRequest struct {
	CreateBackup     *bool `form:"create_backup"`
	GenerateVariants *bool `form:"generate_variants"`
}

// UploadImageResponse is the avatar pipeline result
type UploadImageResponse struct {
	Original        string            `json:"original"`
	Variants        map[string]string `json:"variants,omitempty"`
	BackupReference string            `json:"backup_reference,omitempty"`
	Degraded        bool              `json:"degraded"`
}

// ListBackupsResponse lists backup references, most recent first
type ListBackupsResponse struct {
	Backups []string `json:"backups"`
}

// RestoreBackupRequest is used for POST /v1/avatar/restore
type RestoreBackupRequest struct {
	BackupReference string `json:"backup_reference" binding:"required"`
}

// RestoreBackupResponse acknowledges a restored pointer
type RestoreBackupResponse struct {
	Restored  bool   `json:"restored"`
	Reference string `json:"reference"`
}

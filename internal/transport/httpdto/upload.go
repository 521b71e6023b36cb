package httpdto

// CreateSessionRequest is used for POST /v1/uploads
type CreateSessionRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileSize int64  `json:"file_size" binding:"required"`
	MimeType string `json:"mime_type"`
}

// CreateSessionResponse is returned after creating an upload session
type CreateSessionResponse struct {
	SessionID   string `json:"session_id"`
	TotalChunks int    `json:"total_chunks"`
	ChunkSize   int64  `json:"chunk_size"`
	ExpiresAt   string `json:"expires_at"`
}

// ChunkResponse is returned after accepting one chunk
type ChunkResponse struct {
	UploadedChunks  int `json:"uploaded_chunks"`
	TotalChunks     int `json:"total_chunks"`
	ProgressPercent int `json:"progress_percent"`
}

// SessionStatusResponse is returned for GET /v1/uploads/:id
type SessionStatusResponse struct {
	Status          string `json:"status"`
	UploadedChunks  []int  `json:"uploaded_chunks"`
	TotalChunks     int    `json:"total_chunks"`
	ProgressPercent int    `json:"progress_percent"`
	ExpiresAt       string `json:"expires_at"`
}

// FinalizeResponse references the assembled object
type FinalizeResponse struct {
	FinalReference string `json:"final_reference"`
	FileName       string `json:"file_name"`
	FileSize       int64  `json:"file_size"`
	CorrelationID  string `json:"correlation_id"`
}

// MissingChunksResponse is the finalize rejection payload
type MissingChunksResponse struct {
	MissingChunks []int `json:"missing_chunks"`
}

// CancelResponse acknowledges a cancelled session
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// SessionSummary is one entry of the in-progress listing
type SessionSummary struct {
	SessionID       string `json:"session_id"`
	FileName        string `json:"file_name"`
	Status          string `json:"status"`
	ProgressPercent int    `json:"progress_percent"`
	ExpiresAt       string `json:"expires_at"`
}

package session

import (
	"sort"
	"time"
)

// Status is the lifecycle state of an upload session. It only advances
// pending -> uploading -> completed, or exits through expired/cancelled.
// Terminal sessions are immutable.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusCancelled
}

// UploadSession tracks one resumable chunked upload.
type UploadSession struct {
	ID             string          `json:"id"`
	OwnerID        int64           `json:"owner_id"`
	FileName       string          `json:"file_name"`
	DeclaredSize   int64           `json:"declared_size"`
	MimeType       string          `json:"mime_type"`
	ChunkSize      int64           `json:"chunk_size"`
	TotalChunks    int             `json:"total_chunks"`
	UploadedChunks map[int]struct{} `json:"uploaded_chunks"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// Expired reports whether the session deadline has passed at now.
func (s *UploadSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// UploadedCount returns the number of distinct chunk indices recorded.
func (s *UploadSession) UploadedCount() int {
	return len(s.UploadedChunks)
}

// Complete reports whether every chunk index has been recorded.
func (s *UploadSession) Complete() bool {
	return len(s.UploadedChunks) == s.TotalChunks
}

// Progress returns upload completion as a whole percentage.
func (s *UploadSession) Progress() int {
	if s.TotalChunks == 0 {
		return 0
	}
	return len(s.UploadedChunks) * 100 / s.TotalChunks
}

// MissingChunks returns the sorted list of indices not yet uploaded, so
// clients can retry exactly those.
func (s *UploadSession) MissingChunks() []int {
	missing := make([]int, 0)
	for i := 0; i < s.TotalChunks; i++ {
		if _, ok := s.UploadedChunks[i]; !ok {
			missing = append(missing, i)
		}
	}
	sort.Ints(missing)
	return missing
}

// UploadedIndices returns the sorted list of recorded chunk indices.
func (s *UploadSession) UploadedIndices() []int {
	indices := make([]int, 0, len(s.UploadedChunks))
	for i := range s.UploadedChunks {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

package asset

// VariantSet is the result of one image upload for an owner. It is not
// persisted as its own entity; the Original reference is projected into
// the owner's current-asset pointer. Variants is nil when the processing
// capability was unavailable or processing failed (Degraded true).
type VariantSet struct {
	Original        string            `json:"original"`
	Variants        map[string]string `json:"variants,omitempty"`
	BackupReference string            `json:"backup_reference,omitempty"`
	Degraded        bool              `json:"degraded"`
}

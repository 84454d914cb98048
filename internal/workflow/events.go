// SPDX-License-Identifier: MIT

package workflow

import "time"

// Event names produced by the server. The stream contract is that every
// stage emits one start event, optional progress events, and exactly one
// terminal event.
const (
	EventImportStart    = "import.start"
	EventImportClearing = "import.clearing"
	EventImportFound    = "import.found"
	EventImportProgress = "import.progress"
	EventImportComplete = "import.complete"
	EventImportError    = "import.error"

	EventCaptionStart      = "caption.generate.start"
	EventCaptionProcessing = "caption.generate.processing"
	EventCaptionSuccess    = "caption.generate.success"
	EventCaptionError      = "caption.generate.error"

	EventProcessStart    = "process.start"
	EventProcessProgress = "process.progress"
	EventProcessError    = "process.error"
	EventFileProcessed   = "file.processed"

	EventFileDeleted      = "file.deleted"
	EventCaptionUpdated   = "caption.updated"
	EventWorkspaceCleared = "workspace.cleared"
	EventWorkspaceError   = "workspace.error"
	EventProcessedDeleted = "processed.deleted"
	EventWorkspaceChanged = "workspace.changed"
)

// ImportStart announces an import run.
type ImportStart struct {
	SourceFolder string    `json:"source_folder"`
	TotalFiles   int       `json:"total_files"`
	Timestamp    time.Time `json:"timestamp"`
}

// ImportFound reports how many of the uploaded files are images.
type ImportFound struct {
	TotalFiles int    `json:"total_files"`
	ImageFiles int    `json:"image_files"`
	Message    string `json:"message"`
}

// ImportProgress reports one saved file with running totals.
type ImportProgress struct {
	Filename string `json:"filename"`
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Percent  int    `json:"percent"`
}

// ImportComplete summarises a finished import run.
type ImportComplete struct {
	ImportedCount int       `json:"imported_count"`
	SkippedCount  int       `json:"skipped_count"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// CaptionStart announces a caption generation.
type CaptionStart struct {
	Filename  string    `json:"filename"`
	FileSize  int       `json:"file_size"`
	Timestamp time.Time `json:"timestamp"`
}

// CaptionProcessing reports the hand-off to the model service.
type CaptionProcessing struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// CaptionSuccess summarises a generated caption.
type CaptionSuccess struct {
	Filename       string    `json:"filename"`
	CaptionPreview string    `json:"caption_preview"`
	CaptionLength  int       `json:"caption_length"`
	Timestamp      time.Time `json:"timestamp"`
}

// ProcessStart announces processing of one image.
type ProcessStart struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
}

// ProcessProgress reports a processing step.
type ProcessProgress struct {
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// FileProcessed is the terminal event of a successful process run.
type FileProcessed struct {
	OriginalFilename string    `json:"original_filename"`
	OutputFilename   string    `json:"output_filename"`
	Timestamp        time.Time `json:"timestamp"`
}

// StageError is the terminal event payload of a failed stage.
type StageError struct {
	Filename  string    `json:"filename,omitempty"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

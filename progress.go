package asar

// ProgressEvent represents a progress update during extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry currently being processed, if applicable.
	Path string

	// BytesDone is the number of file bytes written so far.
	BytesDone uint64

	// BytesTotal is the total number of file bytes to write.
	BytesTotal uint64

	// FilesDone is the number of files and symlinks written so far.
	FilesDone int

	// FilesTotal is the total number of files and symlinks to write.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages.
const (
	// StageReadingData indicates the data blob is being read into memory.
	StageReadingData ProgressStage = iota

	// StageExtracting indicates entries are being written.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageReadingData:
		return "reading data"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)

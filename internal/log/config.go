package log

// Config tunes where and how the record log is written.
type Config struct {
	Store struct {
		// FileName of the log inside Dir, "records.db" when empty.
		FileName string
		// NoSync skips the fsync after each append.
		NoSync bool
	}
}

const defaultFileName = "records.db"

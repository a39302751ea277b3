package store

type TidyResult struct {
	RemovedEntries []string // manifest entries for files outside the file set
	RemovedFiles   []string // data files outside the file set, only with removeFiles
	RemovedPartial []string // temporary files left by interrupted writes
	ChangedPaths   []string
}

package scanner

// Events carries optional callbacks invoked as a scan progresses. All
// fields may be nil. Callbacks run on the scanning goroutine and must
// return quickly; the service layer typically forwards them to its
// logger.
type Events struct {
	// OnStateChange fires on every state transition of a session.
	OnStateChange func(state State)
	// OnFileObserved fires for each regular file the walk reaches,
	// before any hashing decision.
	OnFileObserved func(path string)
	// OnFileChanged fires when a file is judged new or changed and
	// queued for fingerprinting. isNew distinguishes first observations
	// from modification-time changes.
	OnFileChanged func(path string, isNew bool)
	// OnDirectorySkipped fires for each pruned directory. hidden is
	// true for dot-directories, false for excluded ones.
	OnDirectorySkipped func(path string, hidden bool)
	// OnFileError fires when a single file could not be statted or
	// hashed. The file is skipped for this scan; the walk continues.
	OnFileError func(path string, err error)
}

func (e Events) stateChange(state State) {
	if e.OnStateChange != nil {
		e.OnStateChange(state)
	}
}

func (e Events) fileObserved(path string) {
	if e.OnFileObserved != nil {
		e.OnFileObserved(path)
	}
}

func (e Events) fileChanged(path string, isNew bool) {
	if e.OnFileChanged != nil {
		e.OnFileChanged(path, isNew)
	}
}

func (e Events) directorySkipped(path string, hidden bool) {
	if e.OnDirectorySkipped != nil {
		e.OnDirectorySkipped(path, hidden)
	}
}

func (e Events) fileError(path string, err error) {
	if e.OnFileError != nil {
		e.OnFileError(path, err)
	}
}

package handlers

import (
	"time"

	"dupescan/internal/database"
	"dupescan/internal/duplicates"
	"dupescan/internal/scanner"
	"dupescan/internal/startup"
)

type Handlers struct {
	db        *database.Database
	scanner   *scanner.Scanner
	dupes     *duplicates.Index
	scanDir   string
	config    *startup.Config
	startedAt time.Time
}

func New(db *database.Database, scan *scanner.Scanner, dupes *duplicates.Index, config *startup.Config) *Handlers {
	return &Handlers{
		db:        db,
		scanner:   scan,
		dupes:     dupes,
		scanDir:   config.ScanDir,
		config:    config,
		startedAt: time.Now(),
	}
}

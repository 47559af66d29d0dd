// ABOUTME: Outcome summary of a bulk indexing job
// ABOUTME: Counts saved and failed chunks with timing figures
package models

import "time"

// IndexingJobResult summarizes one bulk indexing run
type IndexingJobResult struct {
	JobID           string        `json:"job_id"`
	Filename        string        `json:"filename"`
	TotalChunks     int           `json:"total_chunks"`
	ChunksSaved     int           `json:"chunks_saved"`
	ChunksFailed    int           `json:"chunks_failed"`
	FailedIndexes   []int         `json:"failed_chunks"`
	TotalCharacters int           `json:"total_characters"`
	ChunkSize       int           `json:"chunk_size"`
	ChunkOverlap    int           `json:"chunk_overlap"`
	Elapsed         time.Duration `json:"-"`
	AveragePerChunk time.Duration `json:"-"`
}

// Complete reports whether every chunk was stored. A job that ran is
// reported as successful either way; failures are carried in the counts.
func (r *IndexingJobResult) Complete() bool {
	return r.ChunksFailed == 0
}

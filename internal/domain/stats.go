package domain

import "time"

// RunStats is the frozen report for one completed run.
type RunStats struct {
	Username            string
	TotalPosts          int
	DownloadedImages    int
	DownloadedVideos    int
	SkippedFiles        int
	Errors              int
	StoriesDownloaded   int
	ReelsDownloaded     int
	OutputDir           string
	StartTime           time.Time
	EndTime             time.Time
	ResumedFromPrevious bool
}

// TotalFiles is the sum of all success counters.
func (s *RunStats) TotalFiles() int {
	return s.DownloadedImages + s.DownloadedVideos + s.StoriesDownloaded + s.ReelsDownloaded
}

// Duration is the wall-clock time of the run.
func (s *RunStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

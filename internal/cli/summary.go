package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ycchou/igfetch/internal/domain"
	"github.com/ycchou/igfetch/internal/downloader"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FAFD7"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3A3A3A")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true)
)

// printSummary renders the end-of-run report.
func printSummary(w io.Writer, s *domain.RunStats) {
	line := func(label string, value string) string {
		return fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-22s", label+":")), value)
	}

	body := titleStyle.Render("Download Summary") + "\n\n"
	body += line("Account", s.Username) + "\n"
	body += line("Posts processed", fmt.Sprintf("%d", s.TotalPosts)) + "\n"
	body += line("Images downloaded", fmt.Sprintf("%d", s.DownloadedImages)) + "\n"
	body += line("Videos downloaded", fmt.Sprintf("%d", s.DownloadedVideos)) + "\n"
	if s.StoriesDownloaded > 0 {
		body += line("Stories downloaded", fmt.Sprintf("%d", s.StoriesDownloaded)) + "\n"
	}
	if s.ReelsDownloaded > 0 {
		body += line("Reels downloaded", fmt.Sprintf("%d", s.ReelsDownloaded)) + "\n"
	}
	if s.SkippedFiles > 0 {
		body += line("Skipped (existing)", fmt.Sprintf("%d", s.SkippedFiles)) + "\n"
	}

	errText := okStyle.Render("0")
	if s.Errors > 0 {
		errText = errStyle.Render(fmt.Sprintf("%d", s.Errors))
	}
	body += line("Errors", errText) + "\n"
	body += line("Total files", okStyle.Render(fmt.Sprintf("%d", s.TotalFiles()))) + "\n"
	body += line("Duration", s.Duration().Round(time.Second).String()) + "\n"
	body += line("Output directory", s.OutputDir)
	if s.ResumedFromPrevious {
		body += "\n" + labelStyle.Render("Resumed from a previous run.")
	}

	fmt.Fprintln(w, boxStyle.Render(body))
}

// printFailures lists the URLs whose retries were exhausted in batch mode.
func printFailures(w io.Writer, failures []downloader.FailureRecord) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w, errStyle.Render(fmt.Sprintf("%d download(s) failed:", len(failures))))
	for _, f := range failures {
		fmt.Fprintf(w, "  %s  %s\n", f.URL, labelStyle.Render(f.Error))
	}
	fmt.Fprintf(w, "Details written to %s\n", downloader.FailuresFileName)
}

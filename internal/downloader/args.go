package downloader

import "fmt"

// BuildArgs returns the yt-dlp arguments for req, saving into dir.
func BuildArgs(req Request, dir string) []string {
	args := []string{
		"-P", dir,
		"--merge-output-format", "mp4",
		"--progress",
	}

	switch {
	case req.Quality == QualityAudio:
		args = append(args, "-x", "--audio-format", "mp3")
	case req.Quality.height() != "":
		h := req.Quality.height()
		args = append(args, "-f", fmt.Sprintf("bv[height<=?%s][vcodec^=avc1]+ba/b[height<=?%s]/best", h, h))
	}

	if req.Options.Subtitles {
		args = append(args, "--write-subs", "--all-subs")
	}
	if req.Options.Thumbnail {
		args = append(args, "--write-thumbnail")
	}
	if req.Options.Metadata {
		args = append(args, "--add-metadata")
	}
	if req.Options.Playlist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}

	return append(args, req.URL)
}

func infoArgs(url string) []string {
	return []string{"--dump-json", "--no-playlist", url}
}

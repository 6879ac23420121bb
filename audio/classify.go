package audio

import "path/filepath"

// IsAudioFile reports whether path ends in one of the supported extensions.
// The comparison is case-sensitive, so "song.MP3" is not an audio file.
func IsAudioFile(path string) bool {
	switch filepath.Ext(path) {
	case ".mp3", ".flac", ".wav":
		return true
	}
	return false
}

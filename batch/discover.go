package batch

import (
	"io/fs"
	"path/filepath"

	"github.com/neurlang/spectrobox/audio"
)

// Discover walks sourceRoot and returns a task for every audio file in
// lexical order. A destination root inside the source tree is not walked.
func Discover(sourceRoot, destRoot string) ([]Task, error) {
	dest := filepath.Clean(destRoot)
	var tasks []Task
	err := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != sourceRoot && filepath.Clean(path) == dest {
				return filepath.SkipDir
			}
			return nil
		}
		if audio.IsAudioFile(path) {
			tasks = append(tasks, Task{FilePath: path, SourceRoot: sourceRoot, DestRoot: destRoot})
		}
		return nil
	})
	return tasks, err
}

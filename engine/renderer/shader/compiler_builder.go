package shader

import (
	"io/fs"
	"os"
)

// CompilerBuilderOption is a function that configures a Compiler during construction.
type CompilerBuilderOption func(*compiler)

// WithFS sets the file system stage files are read from.
//
// Parameters:
//   - fsys: the file system, rooted at the shader directory
//
// Returns:
//   - CompilerBuilderOption: a function that applies the file system
func WithFS(fsys fs.FS) CompilerBuilderOption {
	return func(c *compiler) {
		c.fsys = fsys
	}
}

// WithDir reads stage files from a directory on disk.
func WithDir(dir string) CompilerBuilderOption {
	return func(c *compiler) {
		c.fsys = os.DirFS(dir)
	}
}

// WithPreProcessor replaces the default pre-processor.
func WithPreProcessor(pp PreProcessor) CompilerBuilderOption {
	return func(c *compiler) {
		c.pp = pp
	}
}

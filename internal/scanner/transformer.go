package scanner

// Transformation is the outcome of transforming one file's text.
type Transformation struct {
	Text               string
	ChangedLibraryKeys []string
	Replacements       int
	Warnings           []string
}

// FileTransformer rewrites the text of a single file.
type FileTransformer interface {
	TransformFile(relativePath string, content string) (Transformation, error)
}

// FileTransformerFunc adapts a function to FileTransformer.
type FileTransformerFunc func(relativePath string, content string) (Transformation, error)

// TransformFile calls the wrapped function.
func (transformerFunc FileTransformerFunc) TransformFile(relativePath string, content string) (Transformation, error) {
	return transformerFunc(relativePath, content)
}

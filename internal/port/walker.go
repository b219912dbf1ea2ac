package port

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	Rel     string
	ModTime int64
	Size    int64
}

type FileWriter interface {
	WriteFile(path string, data []byte) error
}

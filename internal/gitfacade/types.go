package gitfacade

// FileContents is the payload of a read: file text, or the children of a
// directory.
type FileContents struct {
	Directory bool       `json:"directory"`
	Text      string     `json:"text,omitempty"`
	Children  []FileInfo `json:"children,omitempty"`
}

// FileInfo describes one entry of a directory listing.
type FileInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Directory bool   `json:"directory"`
	Size      int64  `json:"size"`
}

// CommitInfo is the payload of a write or remove.
type CommitInfo struct {
	Commit string `json:"commit"`
	Branch string `json:"branch"`
	Path   string `json:"path"`
}

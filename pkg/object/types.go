package object

// Hash is a 40-character hex-encoded SHA-1 digest.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
)

// RawHashLen is the width of a binary hash embedded in a tree record.
const RawHashLen = 20

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object. For directories Hash refers to a
// subtree, otherwise to a blob.
type TreeEntry struct {
	Name  string
	IsDir bool
	Mode  string
	Hash  Hash
}

// TreeObj holds a list of tree entries, sorted by Name when serialized.
type TreeObj struct {
	Entries []TreeEntry
}

// CommitObj represents a commit pointing to a tree with metadata.
type CommitObj struct {
	TreeHash      Hash
	Parents       []Hash
	Author        string // "Name <email>"
	AuthorTime    int64
	AuthorTZ      string // zone offset, "+HHMM" or "-HHMM"
	Committer     string
	CommitterTime int64
	CommitterTZ   string
	Message       string
}

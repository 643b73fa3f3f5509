// Package diff builds unified patches between committed blobs and working
// tree files, and inspects patch text.
//
// go-git only produces patches between two trees. Working tree content has
// no tree object, so this package implements the plumbing/format/diff
// interfaces directly and feeds them to go-git's unified encoder.
package diff

import (
	"bytes"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/utils/binary"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContextLines matches git's default unified context.
const DefaultContextLines = fdiff.DefaultContextLines

// Blob is one side of a file change.
type Blob struct {
	Path    string
	Mode    filemode.FileMode
	Content []byte
}

// Change pairs the old and new side of a path. From is nil for an added
// file and To is nil for a deleted one.
type Change struct {
	From *Blob
	To   *Blob
}

// Build converts changes into a go-git patch. Changes whose two sides are
// byte-identical with the same mode are skipped.
//
//nolint:ireturn // go-git's encoder consumes the fdiff.Patch interface
func Build(changes []Change) fdiff.Patch {
	p := &patch{}
	for _, c := range changes {
		if c.From == nil && c.To == nil {
			continue
		}
		if c.From != nil && c.To != nil &&
			c.From.Mode == c.To.Mode && bytes.Equal(c.From.Content, c.To.Content) {
			continue
		}
		p.files = append(p.files, newFilePatch(c))
	}
	return p
}

// Encode writes p as unified diff text with git-style headers.
func Encode(w io.Writer, p fdiff.Patch, contextLines int) error {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}
	return fdiff.NewUnifiedEncoder(w, contextLines).Encode(p)
}

// Text is Build followed by Encode into a string.
func Text(changes []Change) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, Build(changes), DefaultContextLines); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type patch struct {
	files []fdiff.FilePatch
}

func (p *patch) FilePatches() []fdiff.FilePatch { return p.files }
func (p *patch) Message() string                { return "" }

type filePatch struct {
	from, to *file
	binary   bool
	chunks   []fdiff.Chunk
}

func newFilePatch(c Change) *filePatch {
	fp := &filePatch{}
	var src, dst []byte
	if c.From != nil {
		fp.from = newFile(c.From)
		src = c.From.Content
	}
	if c.To != nil {
		fp.to = newFile(c.To)
		dst = c.To.Content
	}

	if isBinary(src) || isBinary(dst) {
		fp.binary = true
		return fp
	}

	for _, d := range diff.Do(string(src), string(dst)) {
		if d.Text == "" {
			continue
		}
		fp.chunks = append(fp.chunks, &chunk{content: d.Text, op: operation(d.Type)})
	}
	return fp
}

func (f *filePatch) IsBinary() bool { return f.binary }

// Files returns typed nils for a missing side, which the encoder
// treats as an added or deleted file.
//
//nolint:ireturn // required by fdiff.FilePatch
func (f *filePatch) Files() (fdiff.File, fdiff.File) {
	var from, to fdiff.File
	if f.from != nil {
		from = f.from
	}
	if f.to != nil {
		to = f.to
	}
	return from, to
}

func (f *filePatch) Chunks() []fdiff.Chunk { return f.chunks }

type file struct {
	path string
	mode filemode.FileMode
	hash plumbing.Hash
}

func newFile(b *Blob) *file {
	mode := b.Mode
	if mode == filemode.Empty {
		mode = filemode.Regular
	}
	return &file{
		path: b.Path,
		mode: mode,
		hash: plumbing.ComputeHash(plumbing.BlobObject, b.Content),
	}
}

func (f *file) Hash() plumbing.Hash     { return f.hash }
func (f *file) Mode() filemode.FileMode { return f.mode }
func (f *file) Path() string            { return f.path }

type chunk struct {
	content string
	op      fdiff.Operation
}

func (c *chunk) Content() string       { return c.content }
func (c *chunk) Type() fdiff.Operation { return c.op }

func operation(t diffmatchpatch.Operation) fdiff.Operation {
	switch t {
	case diffmatchpatch.DiffInsert:
		return fdiff.Add
	case diffmatchpatch.DiffDelete:
		return fdiff.Delete
	default:
		return fdiff.Equal
	}
}

func isBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	ok, err := binary.IsBinary(bytes.NewReader(content))
	return err == nil && ok
}

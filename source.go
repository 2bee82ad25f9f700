package nckweb

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ContentNode is one file read from a content root.
type ContentNode struct {
	// Path is the file's path on disk.
	Path string
	// RelPath is Path relative to the content root, slash separated.
	RelPath     string
	RawBody     []byte
	FrontMatter map[string]any
	// SourceName names the content root the file came from, e.g. "blog".
	SourceName string
	ModTime    time.Time
}

// IsMarkdown reports whether the node is a markdown post.
func (n *ContentNode) IsMarkdown() bool {
	return isMarkdownFile(n.Path)
}

// Dir is the directory holding the node's file.
func (n *ContentNode) Dir() string {
	return filepath.Dir(n.Path)
}

// IsDraft reports whether the post is flagged "draft: true".
func (n *ContentNode) IsDraft() bool {
	draft, _ := n.FrontMatter["draft"].(bool)
	return draft
}

// String returns the front matter value for key as a string.
func (n *ContentNode) String(key string) string {
	switch v := n.FrontMatter[key].(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case nil:
		return ""
	default:
		return strings.TrimSpace(yamlScalar(v))
	}
}

func yamlScalar(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}

// The YAML front matter format. yaml.v3 rejects duplicate keys.
var yamlFrontMatter = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

func isMarkdownFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Scan reads every regular file below root into a ContentNode tagged with
// name. Nodes are sorted by path so route generation is reproducible.
// Markdown files have their front matter parsed; other files are returned
// with an empty body.
func Scan(root, name string) ([]ContentNode, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: root}
		}
		return nil, errors.WithStack(err)
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Path: root}
	}

	nodes := make([]ContentNode, 0, 100)
	walkFunc := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		node, err := readNode(root, path, name)
		if err != nil {
			return err
		}
		nodes = append(nodes, *node)
		return nil
	}

	if err := filepath.WalkDir(root, walkFunc); err != nil {
		return nil, errors.Wrapf(err, "scanning %v", root)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}

func readNode(root, path, name string) (*ContentNode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	node := &ContentNode{
		Path:        path,
		RelPath:     filepath.ToSlash(rel),
		FrontMatter: map[string]any{},
		SourceName:  name,
		ModTime:     info.ModTime().UTC(),
	}
	if !isMarkdownFile(path) {
		return node, nil
	}

	fileContent, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	body, err := frontmatter.Parse(bytes.NewReader(fileContent), &node.FrontMatter, yamlFrontMatter)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid front matter in %v", path)
	}
	node.RawBody = body
	return node, nil
}

// Package vfs projects the record store onto a read-only directory tree.
//
//	/                               person slugs
//	/{person}/                      info background state delta connections followups interactions/
//	/{person}/interactions/         interaction slugs, date ascending
//	/{person}/interactions/{slug}/  transcript takeaways tags
//
// Resolution is a pure function of a store snapshot and a path.
package vfs

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

type Kind string

const (
	KindRoot            Kind = "root"
	KindPerson          Kind = "person_dir"
	KindPersonFile      Kind = "person_file"
	KindInteractions    Kind = "interactions_dir"
	KindInteraction     Kind = "interaction_dir"
	KindInteractionFile Kind = "interaction_file"
)

const interactionsDir = "interactions"

var (
	personFiles      = []string{"info", "background", "state", "delta", "connections", "followups"}
	interactionFiles = []string{"transcript", "takeaways", "tags"}
)

// Entry is one child of a directory.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// String renders directories with a trailing slash.
func (e Entry) String() string {
	if e.IsDir {
		return e.Name + "/"
	}
	return e.Name
}

// Node is a resolved path. Directories carry Children, leaves carry Content.
type Node struct {
	Kind     Kind    `json:"kind"`
	Path     string  `json:"path"`
	Name     string  `json:"name"`
	IsDir    bool    `json:"is_dir"`
	Children []Entry `json:"children,omitempty"`
	Content  string  `json:"content,omitempty"`
}

// Viewer opens a consistent snapshot. store.Store satisfies it.
type Viewer interface {
	View(ctx context.Context, fn func(r store.Reader) error) error
}

// FS runs every call in its own snapshot of st.
type FS struct {
	st Viewer
}

func New(st Viewer) *FS {
	return &FS{st: st}
}

func (fs *FS) Resolve(ctx context.Context, path string) (*Node, error) {
	var node *Node
	err := fs.st.View(ctx, func(r store.Reader) error {
		var err error
		node, err = Resolve(ctx, r, path)
		return err
	})
	return node, err
}

func (fs *FS) List(ctx context.Context, path string) ([]Entry, error) {
	var entries []Entry
	err := fs.st.View(ctx, func(r store.Reader) error {
		var err error
		entries, err = List(ctx, r, path)
		return err
	})
	return entries, err
}

func (fs *FS) Read(ctx context.Context, path string) (string, error) {
	var content string
	err := fs.st.View(ctx, func(r store.Reader) error {
		var err error
		content, err = Read(ctx, r, path)
		return err
	})
	return content, err
}

func (fs *FS) Tree(ctx context.Context, path string, maxDepth int) (string, error) {
	var out string
	err := fs.st.View(ctx, func(r store.Reader) error {
		var err error
		out, err = Tree(ctx, r, path, maxDepth)
		return err
	})
	return out, err
}

// List returns the children of a directory. Leaves are NotFound.
func List(ctx context.Context, r store.Reader, path string) ([]Entry, error) {
	node, err := Resolve(ctx, r, path)
	if err != nil {
		return nil, err
	}
	if !node.IsDir {
		return nil, goerr.Wrap(store.ErrNotFound, "not a directory", goerr.V("path", node.Path))
	}
	return node.Children, nil
}

// Read returns the rendered content of a leaf. Directories are NotFound.
func Read(ctx context.Context, r store.Reader, path string) (string, error) {
	node, err := Resolve(ctx, r, path)
	if err != nil {
		return "", err
	}
	if node.IsDir {
		return "", goerr.Wrap(store.ErrNotFound, "is a directory", goerr.V("path", node.Path))
	}
	return node.Content, nil
}

// Resolve walks path left to right. Empty segments are ignored.
func Resolve(ctx context.Context, r store.Reader, path string) (*Node, error) {
	parts := Segments(path)
	if len(parts) == 0 {
		return resolveRoot(ctx, r)
	}

	person, err := lookupPerson(ctx, r, parts[0])
	if err != nil {
		return nil, err
	}
	base := "/" + person.Slug()

	if len(parts) == 1 {
		children := make([]Entry, 0, len(personFiles)+1)
		for _, name := range personFiles {
			children = append(children, Entry{Name: name})
		}
		children = append(children, Entry{Name: interactionsDir, IsDir: true})
		return &Node{Kind: KindPerson, Path: base, Name: person.Slug(), IsDir: true, Children: children}, nil
	}

	if parts[1] != interactionsDir {
		if len(parts) > 2 || !contains(personFiles, parts[1]) {
			return nil, notFound(path)
		}
		content, err := renderPersonFile(ctx, r, person, parts[1])
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindPersonFile, Path: base + "/" + parts[1], Name: parts[1], Content: content}, nil
	}

	interactions, err := r.ListInteractions(ctx, person.Name)
	if err != nil {
		return nil, err
	}
	base += "/" + interactionsDir

	if len(parts) == 2 {
		children := make([]Entry, 0, len(interactions))
		for _, i := range interactions {
			children = append(children, Entry{Name: i.Slug(), IsDir: true})
		}
		return &Node{Kind: KindInteractions, Path: base, Name: interactionsDir, IsDir: true, Children: children}, nil
	}

	date, seq, err := store.ParseInteractionSlug(parts[2])
	if err != nil || store.InteractionSlug(date, seq) != parts[2] {
		return nil, notFound(path)
	}
	var interaction *store.Interaction
	for idx := range interactions {
		if interactions[idx].Date.Equal(date) && max(interactions[idx].DateSeq, 1) == seq {
			interaction = &interactions[idx]
			break
		}
	}
	if interaction == nil {
		return nil, notFound(path)
	}
	base += "/" + interaction.Slug()

	switch {
	case len(parts) == 3:
		children := make([]Entry, 0, len(interactionFiles))
		for _, name := range interactionFiles {
			children = append(children, Entry{Name: name})
		}
		return &Node{Kind: KindInteraction, Path: base, Name: interaction.Slug(), IsDir: true, Children: children}, nil
	case len(parts) == 4 && contains(interactionFiles, parts[3]):
		content, err := renderInteractionFile(ctx, r, interaction, parts[3])
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindInteractionFile, Path: base + "/" + parts[3], Name: parts[3], Content: content}, nil
	default:
		return nil, notFound(path)
	}
}

func resolveRoot(ctx context.Context, r store.Reader) (*Node, error) {
	persons, err := r.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	children := make([]Entry, 0, len(persons))
	for _, p := range persons {
		children = append(children, Entry{Name: p.Slug(), IsDir: true})
	}
	sortEntries(children)
	return &Node{Kind: KindRoot, Path: "/", Name: "/", IsDir: true, Children: children}, nil
}

// lookupPerson maps a slug back to a person by comparing against the slugs
// of the stored names.
func lookupPerson(ctx context.Context, r store.Reader, slug string) (*store.Person, error) {
	persons, err := r.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	for i := range persons {
		if persons[i].Slug() == slug {
			return &persons[i], nil
		}
	}
	return nil, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("slug", slug))
}

// Segments splits path into its non-empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Join resolves rel against cwd, handling ".", ".." and absolute paths.
// The result is always absolute and never climbs above "/".
func Join(cwd, rel string) string {
	working := rel
	if !strings.HasPrefix(rel, "/") {
		working = cwd + "/" + rel
	}

	resolved := make([]string, 0, 4)
	for _, part := range Segments(working) {
		switch part {
		case ".":
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		default:
			resolved = append(resolved, part)
		}
	}
	return "/" + strings.Join(resolved, "/")
}

func notFound(path string) error {
	return goerr.Wrap(store.ErrNotFound, "path not found", goerr.V("path", path))
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

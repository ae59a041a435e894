// Package mcp exposes the read-only query surface and the path projection
// as MCP tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"rolodex/internal/query"
	"rolodex/internal/store"
	"rolodex/internal/vfs"
)

// Viewer opens a consistent snapshot. store.Store satisfies it.
type Viewer interface {
	View(ctx context.Context, fn func(r store.Reader) error) error
}

type Server struct {
	engine *query.Engine
	fs     *vfs.FS
	mcp    *sdk.Server
}

func NewServer(db Viewer, version string) *Server {
	s := &Server{
		engine: query.New(db),
		fs:     vfs.New(db),
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "rolodex",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

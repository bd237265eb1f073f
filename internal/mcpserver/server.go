// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes chordsheet tools for LLM integration via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/chordsheet/internal/apperr"
	"github.com/starford/chordsheet/internal/chart"
	"github.com/starford/chordsheet/internal/models"
	"github.com/starford/chordsheet/internal/songservice"
	"github.com/starford/chordsheet/internal/transpose"
)

const songFormatURI = "chordsheet://song-format"

// Server wraps the MCP server with chordsheet tools.
type Server struct {
	mcp *server.MCPServer
	svc *songservice.Service
}

// New creates a new MCP server with all chordsheet tools registered.
func New(svc *songservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Chordsheet",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_songs",
		mcp.WithDescription("Full-text search through song titles, lyrics and groups."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchSongs)

	s.mcp.AddTool(mcp.NewTool("read_song",
		mcp.WithDescription("Read the raw text of a song file, frontmatter included."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Song id (e.g. folk/Amazing Grace.txt)")),
	), s.readSong)

	s.mcp.AddTool(mcp.NewTool("create_song",
		mcp.WithDescription("Create a new song. The body MUST follow the song format: "+
			"chord lines directly above lyric lines, aligned by column with spaces. "+
			"Read the format first via get_song_format or the chordsheet://song-format resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Song title; also used for the file name")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Song text without frontmatter")),
	), s.createSong)

	s.mcp.AddTool(mcp.NewTool("list_songs",
		mcp.WithDescription("List songs sorted by title, optionally within one group."),
		mcp.WithString("group", mcp.Description("Optional group tag")),
	), s.listSongs)

	s.mcp.AddTool(mcp.NewTool("list_groups",
		mcp.WithDescription("List the group tags in use with their song counts."),
	), s.listGroups)

	s.mcp.AddTool(mcp.NewTool("render_song",
		mcp.WithDescription("Render a stored song as a chord chart. Capo and notation "+
			"default to the song's own settings."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Song id")),
		mcp.WithNumber("capo", mcp.Description("Capo override")),
		mcp.WithNumber("transpose", mcp.Description("Extra semitones up")),
		mcp.WithString("notation", mcp.Description(`"b" for flats, "#" for sharps`)),
		mcp.WithString("format", mcp.Description(`"html" (default) or "json"`)),
	), s.renderSong)

	s.mcp.AddTool(mcp.NewTool("transpose_chord",
		mcp.WithDescription("Transpose a single chord symbol the way a capo or key change would display it."),
		mcp.WithString("chord", mcp.Required(), mcp.Description("Chord symbol, e.g. F#m7/C#")),
		mcp.WithNumber("capo", mcp.Description("Capo fret; lowers the chord")),
		mcp.WithNumber("transpose", mcp.Description("Semitones up")),
		mcp.WithString("notation", mcp.Description(`"b" for flats (default), "#" for sharps`)),
	), s.transposeChord)

	s.mcp.AddTool(mcp.NewTool("classify_line",
		mcp.WithDescription("Report how a single line of song text is classified (chord, tab, text, separator...)."),
		mcp.WithString("line", mcp.Required(), mcp.Description("One line of song text")),
	), s.classifyLine)

	s.mcp.AddTool(mcp.NewTool("get_song_format",
		mcp.WithDescription("Returns the song text format. "+
			"Call this before creating or importing songs to ensure correct structure."),
	), s.getSongFormat)

	s.mcp.AddTool(mcp.NewTool("import_song",
		mcp.WithDescription("Import a plain-text song from an http(s) URL or a base64 text/plain data URI. "+
			"A song with the same title is updated in place."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:text/plain;base64,... URI")),
		mcp.WithString("title", mcp.Description("Optional title; defaults to the file name in the URL")),
	), s.importSong)

	// Resource: song format.
	s.mcp.AddResource(
		mcp.NewResource(songFormatURI, "Song Format",
			mcp.WithResourceDescription("Plain-text chord sheet format that all songs follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSongFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func notation(req mcp.CallToolRequest) (*transpose.Notation, error) {
	raw := req.GetString("notation", "")
	if raw == "" {
		return nil, nil
	}
	n, err := transpose.ParseNotation(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Server) searchSongs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readSong(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.ReadRaw(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createSong(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	song, err := s.svc.CreateSong(ctx, "", title, body)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return mcp.NewToolResultError(fmt.Sprintf("song already exists: %s", title)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", song.ID)), nil
}

func (s *Server) listSongs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	songs, _, err := s.svc.ListSongs(ctx, models.SongFilter{Group: req.GetString("group", "")})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, 0, len(songs))
	for _, song := range songs {
		lines = append(lines, song.ID)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listGroups(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups, err := s.svc.Groups(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return jsonResult(groups), nil
}

func (s *Server) renderSong(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rr := songservice.RenderRequest{Transpose: req.GetInt("transpose", 0)}
	if args := req.GetArguments(); args["capo"] != nil {
		capo := req.GetInt("capo", 0)
		rr.Capo = &capo
	}
	if rr.Notation, err = notation(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if req.GetString("format", "html") == "json" {
		_, doc, err := s.svc.Render(ctx, id, rr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(doc), nil
	}
	var buf bytes.Buffer
	if err := s.svc.RenderPage(ctx, &buf, id, rr); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) transposeChord(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := req.RequireString("chord")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, ok := transpose.ParseChord(symbol)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not a chord: %q", symbol)), nil
	}
	n := transpose.Flat
	if p, err := notation(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	} else if p != nil {
		n = *p
	}
	shift := transpose.Shift(req.GetInt("capo", 0), req.GetInt("transpose", 0))
	return mcp.NewToolResultText(c.Transpose(shift, n).String()), nil
}

type classification struct {
	Kind       string `json:"kind"`
	Content    string `json:"content,omitempty"`
	Annotation bool   `json:"annotation,omitempty"`
}

func (s *Server) classifyLine(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	l := chart.Classify(line)
	return jsonResult(classification{Kind: l.Kind.String(), Content: l.Content, Annotation: l.Annotation}), nil
}

func (s *Server) getSongFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SongFormatContract), nil
}

func (s *Server) readSongFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      songFormatURI,
			MIMEType: "text/markdown",
			Text:     SongFormatContract,
		},
	}, nil
}

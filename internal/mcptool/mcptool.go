// Package mcptool serves citation conversion as Model Context Protocol
// tools over stdio.
package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/convert"
	"github.com/matsen/apa2tex/internal/match"
	"github.com/matsen/apa2tex/internal/reference"
)

// Deps configures the tools.
type Deps struct {
	ConvertOptions []convert.Option
	Tiers          []match.Tier
}

// convertResult is the JSON returned by convert_citations.
type convertResult struct {
	Output    string   `json:"output"`
	Converted int      `json:"converted"`
	Keys      []string `json:"keys"`
	Messages  []string `json:"messages"`
}

// NewServer registers the tools on a new MCP server.
func NewServer(version string, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"apa2tex",
		version,
		server.WithToolCapabilities(false),
	)

	convertTool := mcp.NewTool("convert_citations",
		mcp.WithDescription("Convert APA in-text citations such as 'Smith (2020)' and '(Smith, 2020; Doe & Lee, 2018)' to \\citet{key} and \\citep{key1,key2}. Citations are matched against an APA reference list by author and year and mapped to BibTeX keys by title. Unresolvable citations are left unchanged and explained in messages."),
		mcp.WithString("references",
			mcp.Required(),
			mcp.Description("APA reference list, one reference per line"),
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Text containing APA in-text citations"),
		),
		mcp.WithString("bibtex",
			mcp.Required(),
			mcp.Description("BibTeX bibliography containing the cited works"),
		),
		mcp.WithBoolean("reflow",
			mcp.Description("Join references wrapped over several lines (default: false)"),
		),
	)
	s.AddTool(convertTool, handleConvert(deps))

	resolveTool := mcp.NewTool("resolve_citation",
		mcp.WithDescription("Resolve one author and year to a BibTeX key, reporting the matching reference line and the matching tier (exact, last_token or corporate)."),
		mcp.WithString("references",
			mcp.Required(),
			mcp.Description("APA reference list, one reference per line"),
		),
		mcp.WithString("bibtex",
			mcp.Required(),
			mcp.Description("BibTeX bibliography"),
		),
		mcp.WithString("author",
			mcp.Required(),
			mcp.Description("Cited author as written, e.g. 'Smith et al.' or 'World Health Organization'"),
		),
		mcp.WithString("year",
			mcp.Required(),
			mcp.Description("Year with optional disambiguation letter, e.g. '2019a'"),
		),
	)
	s.AddTool(resolveTool, handleResolve(deps))

	citedTool := mcp.NewTool("cited_entries",
		mcp.WithDescription("Return the BibTeX entries cited by \\cite-family macros in a LaTeX document, in first-citation order."),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("LaTeX document"),
		),
		mcp.WithString("bibtex",
			mcp.Required(),
			mcp.Description("BibTeX bibliography to draw entries from"),
		),
	)
	s.AddTool(citedTool, handleCited())

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func handleConvert(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		refs, err := request.RequireString("references")
		if err != nil {
			return mcp.NewToolResultError("references is required"), nil
		}
		doc, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError("document is required"), nil
		}
		bibText, err := request.RequireString("bibtex")
		if err != nil {
			return mcp.NewToolResultError("bibtex is required"), nil
		}

		db, err := bibtex.Parse(bibText)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error parsing BibTeX file: %v", err)), nil
		}
		if request.GetBool("reflow", false) {
			refs = reference.Reflow(refs)
		}

		res := convert.New(refs, db, deps.ConvertOptions...).Convert(doc)
		return jsonResult(convertResult{
			Output:    res.Output,
			Converted: res.Converted,
			Keys:      res.Keys,
			Messages:  res.Messages,
		})
	}
}

func handleResolve(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]string)
		for _, name := range []string{"references", "bibtex", "author", "year"} {
			v, err := request.RequireString(name)
			if err != nil {
				return mcp.NewToolResultError(name + " is required"), nil
			}
			args[name] = v
		}

		db, err := bibtex.Parse(args["bibtex"])
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error parsing BibTeX file: %v", err)), nil
		}

		res, err := match.NewResolver(args["references"], db, deps.Tiers...).Resolve(args["author"], args["year"])
		if errors.Is(err, match.ErrNoEntry) || errors.Is(err, match.ErrNoReference) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err != nil {
			return nil, err
		}
		return jsonResult(res)
	}
}

func handleCited() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError("document is required"), nil
		}
		bibText, err := request.RequireString("bibtex")
		if err != nil {
			return mcp.NewToolResultError("bibtex is required"), nil
		}

		db, err := bibtex.Parse(bibText)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error parsing BibTeX file: %v", err)), nil
		}

		entries, missing := db.Subset(convert.CitedKeys(doc))
		var sb strings.Builder
		sb.WriteString(bibtex.FormatList(entries))
		if len(missing) > 0 {
			fmt.Fprintf(&sb, "\n%% Missing from the bibliography: %s\n", strings.Join(missing, ", "))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

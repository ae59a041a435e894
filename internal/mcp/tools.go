package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"rolodex/internal/logging"
	"rolodex/internal/query"
	"rolodex/internal/store"
	"rolodex/internal/vfs"
)

type FilterInput struct {
	Tags     []string `json:"tags,omitempty" jsonschema:"any of: pricing, product, gtm, competitors, market"`
	Type     string   `json:"type,omitempty" jsonschema:"person type: customer, investor or competitor"`
	Company  string   `json:"company,omitempty" jsonschema:"company name substring"`
	Industry string   `json:"industry,omitempty" jsonschema:"industry substring"`
	Person   string   `json:"person,omitempty" jsonschema:"person name substring"`
	From     string   `json:"from,omitempty" jsonschema:"earliest date, YYYY-MM-DD"`
	To       string   `json:"to,omitempty" jsonschema:"latest date, YYYY-MM-DD"`
	Text     string   `json:"text,omitempty" jsonschema:"full-text terms, all must match"`
}

func (in FilterInput) parse() (query.Filter, error) {
	return query.ParseFilter(query.RawFilter{
		Tags:       in.Tags,
		PersonType: in.Type,
		Company:    in.Company,
		Industry:   in.Industry,
		Person:     in.Person,
		DateFrom:   in.From,
		DateTo:     in.To,
		Text:       in.Text,
	})
}

type ListPersonsInput struct {
	Type string `json:"type,omitempty" jsonschema:"person type filter"`
}

type NameInput struct {
	Name string `json:"name" jsonschema:"exact person name"`
}

type GetInteractionInput struct {
	ID     int64  `json:"id,omitempty" jsonschema:"interaction id"`
	Person string `json:"person,omitempty" jsonschema:"person name, used with slug"`
	Slug   string `json:"slug,omitempty" jsonschema:"interaction slug such as 2025-01-15 or 2025-01-15_2"`
}

type SearchTextInput struct {
	Query string `json:"query" jsonschema:"search terms"`
}

type SegmentsInput struct {
	By string `json:"by" jsonschema:"type, industry or company"`
	FilterInput
}

type FollowupsInput struct {
	Person string `json:"person,omitempty" jsonschema:"person name; omit for everyone"`
}

type PathInput struct {
	Path string `json:"path" jsonschema:"virtual path such as /Jane_Doe/interactions/"`
}

type PersonsOutput struct {
	Persons []query.PersonRow `json:"persons"`
}

type PersonOutput struct {
	Person query.PersonRow `json:"person"`
}

type InteractionsOutput struct {
	Interactions []query.InteractionRow `json:"interactions"`
}

type InteractionOutput struct {
	Interaction query.InteractionDetail `json:"interaction"`
}

type SearchTextOutput struct {
	Results []query.TextMatch `json:"results"`
}

type AggregateTagsOutput struct {
	Counts []query.TagCount `json:"counts"`
	Total  int              `json:"total"`
}

type SegmentsOutput struct {
	By       string          `json:"by"`
	Segments []query.Segment `json:"segments"`
}

type FollowupsOutput struct {
	Followups []store.Followup `json:"followups"`
}

type ListPathOutput struct {
	Path    string      `json:"path"`
	Entries []vfs.Entry `json:"entries"`
}

type ReadPathOutput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *Server) registerTools() {
	addTool(s, "list_persons", "List tracked people, optionally by type", s.handleListPersons)
	addTool(s, "get_person", "Get a person with state of play, background, interaction ids and connections", s.handleGetPerson)
	addTool(s, "get_interactions", "List one person's interactions with takeaways and tags", s.handleGetInteractions)
	addTool(s, "get_interaction", "Get one interaction with its full transcript, by id or by person and slug", s.handleGetInteraction)
	addTool(s, "search_text", "Full-text search across transcripts and takeaways with matching quotes", s.handleSearchText)
	addTool(s, "search_interactions", "Filter interactions by tag, person type, company, industry, person, date range and text", s.handleSearchInteractions)
	addTool(s, "search_people", "Filter people by type, company, industry, name and state or background text", s.handleSearchPeople)
	addTool(s, "aggregate_tags", "Count tags over the filtered interactions", s.handleAggregateTags)
	addTool(s, "aggregate_segments", "Group people by type, industry or company with interaction counts", s.handleAggregateSegments)
	addTool(s, "get_open_followups", "List open followup items", s.handleGetOpenFollowups)
	addTool(s, "list_path", "List a directory of the virtual filesystem", s.handleListPath)
	addTool(s, "read_path", "Read a file of the virtual filesystem", s.handleReadPath)
}

// addTool registers h and logs every call with its outcome.
func addTool[In, Out any](s *Server, name, description string, h sdk.ToolHandlerFor[In, Out]) {
	sdk.AddTool(s.mcp, &sdk.Tool{Name: name, Description: description},
		func(ctx context.Context, req *sdk.CallToolRequest, input In) (*sdk.CallToolResult, Out, error) {
			start := time.Now()
			result, output, err := h(ctx, req, input)
			logger := logging.Default().With("tool", name, "duration", time.Since(start))
			if err != nil {
				logger.Warn("tool call failed", logging.ErrorAttrs(err)...)
			} else {
				logger.Info("tool call")
			}
			return result, output, err
		})
}

func (s *Server) handleListPersons(ctx context.Context, req *sdk.CallToolRequest, input ListPersonsInput) (*sdk.CallToolResult, PersonsOutput, error) {
	filter, err := FilterInput{Type: input.Type}.parse()
	if err != nil {
		return nil, PersonsOutput{}, err
	}
	rows, err := s.engine.SearchPersons(ctx, filter)
	if err != nil {
		return nil, PersonsOutput{}, err
	}
	return nil, PersonsOutput{Persons: rows}, nil
}

func (s *Server) handleGetPerson(ctx context.Context, req *sdk.CallToolRequest, input NameInput) (*sdk.CallToolResult, PersonOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, PersonOutput{}, goerr.Wrap(store.ErrValidation, "name is required")
	}
	row, err := s.engine.Person(ctx, input.Name)
	if err != nil {
		return nil, PersonOutput{}, err
	}
	return nil, PersonOutput{Person: *row}, nil
}

func (s *Server) handleGetInteractions(ctx context.Context, req *sdk.CallToolRequest, input NameInput) (*sdk.CallToolResult, InteractionsOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, InteractionsOutput{}, goerr.Wrap(store.ErrValidation, "name is required")
	}
	rows, err := s.engine.Interactions(ctx, input.Name)
	if err != nil {
		return nil, InteractionsOutput{}, err
	}
	return nil, InteractionsOutput{Interactions: rows}, nil
}

func (s *Server) handleGetInteraction(ctx context.Context, req *sdk.CallToolRequest, input GetInteractionInput) (*sdk.CallToolResult, InteractionOutput, error) {
	var detail *query.InteractionDetail
	var err error
	switch {
	case input.ID > 0:
		detail, err = s.engine.Interaction(ctx, input.ID)
	case input.Person != "" && input.Slug != "":
		detail, err = s.engine.InteractionBySlug(ctx, input.Person, input.Slug)
	default:
		err = goerr.Wrap(store.ErrValidation, "either id or person and slug are required")
	}
	if err != nil {
		return nil, InteractionOutput{}, err
	}
	return nil, InteractionOutput{Interaction: *detail}, nil
}

func (s *Server) handleSearchText(ctx context.Context, req *sdk.CallToolRequest, input SearchTextInput) (*sdk.CallToolResult, SearchTextOutput, error) {
	results, err := s.engine.SearchText(ctx, input.Query)
	if err != nil {
		return nil, SearchTextOutput{}, err
	}
	return nil, SearchTextOutput{Results: results}, nil
}

func (s *Server) handleSearchInteractions(ctx context.Context, req *sdk.CallToolRequest, input FilterInput) (*sdk.CallToolResult, InteractionsOutput, error) {
	filter, err := input.parse()
	if err != nil {
		return nil, InteractionsOutput{}, err
	}
	rows, err := s.engine.SearchInteractions(ctx, filter)
	if err != nil {
		return nil, InteractionsOutput{}, err
	}
	return nil, InteractionsOutput{Interactions: rows}, nil
}

func (s *Server) handleSearchPeople(ctx context.Context, req *sdk.CallToolRequest, input FilterInput) (*sdk.CallToolResult, PersonsOutput, error) {
	filter, err := input.parse()
	if err != nil {
		return nil, PersonsOutput{}, err
	}
	rows, err := s.engine.SearchPersons(ctx, filter)
	if err != nil {
		return nil, PersonsOutput{}, err
	}
	return nil, PersonsOutput{Persons: rows}, nil
}

func (s *Server) handleAggregateTags(ctx context.Context, req *sdk.CallToolRequest, input FilterInput) (*sdk.CallToolResult, AggregateTagsOutput, error) {
	filter, err := input.parse()
	if err != nil {
		return nil, AggregateTagsOutput{}, err
	}
	counts, err := s.engine.AggregateTags(ctx, filter)
	if err != nil {
		return nil, AggregateTagsOutput{}, err
	}
	return nil, AggregateTagsOutput{Counts: counts, Total: counts.Total()}, nil
}

func (s *Server) handleAggregateSegments(ctx context.Context, req *sdk.CallToolRequest, input SegmentsInput) (*sdk.CallToolResult, SegmentsOutput, error) {
	by, err := query.ParseSegmentBy(input.By)
	if err != nil {
		return nil, SegmentsOutput{}, err
	}
	filter, err := input.FilterInput.parse()
	if err != nil {
		return nil, SegmentsOutput{}, err
	}
	segments, err := s.engine.AggregateSegments(ctx, by, filter)
	if err != nil {
		return nil, SegmentsOutput{}, err
	}
	return nil, SegmentsOutput{By: string(by), Segments: segments}, nil
}

func (s *Server) handleGetOpenFollowups(ctx context.Context, req *sdk.CallToolRequest, input FollowupsInput) (*sdk.CallToolResult, FollowupsOutput, error) {
	items, err := s.engine.Followups(ctx, strings.TrimSpace(input.Person), store.FollowupStatusOpen)
	if err != nil {
		return nil, FollowupsOutput{}, err
	}
	return nil, FollowupsOutput{Followups: items}, nil
}

func (s *Server) handleListPath(ctx context.Context, req *sdk.CallToolRequest, input PathInput) (*sdk.CallToolResult, ListPathOutput, error) {
	path := vfs.Join("/", input.Path)
	entries, err := s.fs.List(ctx, path)
	if err != nil {
		return nil, ListPathOutput{}, err
	}
	return nil, ListPathOutput{Path: path, Entries: entries}, nil
}

func (s *Server) handleReadPath(ctx context.Context, req *sdk.CallToolRequest, input PathInput) (*sdk.CallToolResult, ReadPathOutput, error) {
	path := vfs.Join("/", input.Path)
	content, err := s.fs.Read(ctx, path)
	if err != nil {
		return nil, ReadPathOutput{}, err
	}
	return nil, ReadPathOutput{Path: path, Content: content}, nil
}

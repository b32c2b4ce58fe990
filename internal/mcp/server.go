// Package mcp exposes the batch update engine and the read side as Model
// Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/yield-drawing/drawingdb/internal/drawing"
	"github.com/yield-drawing/drawingdb/internal/services"
	"github.com/yield-drawing/drawingdb/internal/usecase"
)

// Server wraps the MCP server with the drawing tools.
type Server struct {
	server *mcp.Server
	engine *usecase.DrawingObject
	reads  *services.DrawingService
	actor  drawing.Actor
}

// NewServer registers the drawing tools. Every batch submitted through the
// server runs as actor.
func NewServer(uow drawing.UnitOfWork, actor drawing.Actor, version string, opts ...usecase.Option) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "drawingdb",
		Version: version,
	}, nil)

	s := &Server{
		server: mcpServer,
		engine: usecase.NewDrawingObject(uow, opts...),
		reads:  services.NewDrawingService(uow),
		actor:  actor,
	}

	s.registerTools()

	return s
}

// Run serves MCP over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logrus.Info("mcp server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over transport. Used by tests and embedders.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "drawing_batch_update",
		Description: "Apply added, edited and deleted drawing objects to one drawing in a single transaction",
	}, s.handleBatchUpdate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "drawing_get",
		Description: "Get a drawing with all of its drawing objects",
	}, s.handleGet)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "drawing_list_objects",
		Description: "List the drawing objects of a drawing, optionally for one target month",
	}, s.handleListObjects)
}

// Input/Output types for each tool

type BatchUpdateInput struct {
	RowState       string     `json:"rowState" jsonschema:"drawing operation: added, edited or unchanged"`
	DrawingID      int64      `json:"drawingId,omitempty" jsonschema:"id of an existing drawing, 0 when added"`
	TargetID       int64      `json:"targetId,omitempty" jsonschema:"yield management target owning a new drawing"`
	FieldTreeID    int64      `json:"fieldTreeId,omitempty" jsonschema:"field tree node a new drawing is scoped to"`
	BackgroundPath string     `json:"backgroundPath,omitempty" jsonschema:"background image path"`
	RowVersion     string     `json:"rowVersion,omitempty" jsonschema:"base64 row version of the drawing"`
	Rows           []RowInput `json:"rows,omitempty" jsonschema:"drawing object rows in order"`
}

type RowInput struct {
	RowState    string `json:"rowState" jsonschema:"added, edited or deleted"`
	ID          int64  `json:"id,omitempty" jsonschema:"drawing object id for edited and deleted rows"`
	DrawingType int    `json:"drawingType,omitempty" jsonschema:"0 construction scope, 1 claim scope"`
	DrawingData string `json:"drawingData,omitempty" jsonschema:"opaque drawing payload"`
	TargetMonth string `json:"targetMonth,omitempty" jsonschema:"target month as YYYY-MM"`
	RowVersion  string `json:"rowVersion,omitempty" jsonschema:"base64 row version for edited and deleted rows"`
}

type GetInput struct {
	ID int64 `json:"id" jsonschema:"drawing id"`
}

type GetOutput struct {
	Drawing usecase.DrawingResponse  `json:"drawing"`
	Objects []usecase.ObjectResponse `json:"objects"`
}

type ListObjectsInput struct {
	DrawingID   int64  `json:"drawingId" jsonschema:"drawing id"`
	TargetMonth string `json:"targetMonth,omitempty" jsonschema:"restrict to one target month, YYYY-MM"`
}

type ListObjectsOutput struct {
	Objects []usecase.ObjectResponse `json:"objects"`
}

// ToRequest converts tool input to an engine request. The target month is the
// only lossy field: a value that is not "YYYY-MM" becomes the zero month, and
// the engine reports that row as "invalid target month" while the other rows
// still apply. The unparsable text itself is not echoed back.
func (in BatchUpdateInput) ToRequest() usecase.BatchUpdateRequest {
	req := usecase.BatchUpdateRequest{
		RowState:       usecase.RowState(in.RowState),
		DrawingID:      in.DrawingID,
		TargetID:       in.TargetID,
		FieldTreeID:    in.FieldTreeID,
		BackgroundPath: in.BackgroundPath,
		RowVersion:     in.RowVersion,
		Rows:           make([]usecase.ObjectRow, 0, len(in.Rows)),
	}
	for _, row := range in.Rows {
		month, _ := drawing.ParseMonth(row.TargetMonth)
		req.Rows = append(req.Rows, usecase.ObjectRow{
			RowState: usecase.RowState(row.RowState),
			Object: usecase.ObjectInput{
				ID:          row.ID,
				DrawingID:   in.DrawingID,
				Type:        drawing.Type(row.DrawingType),
				Data:        row.DrawingData,
				TargetMonth: month,
				RowVersion:  row.RowVersion,
			},
		})
	}
	return req
}

// Tool handlers

func (s *Server) handleBatchUpdate(ctx context.Context, req *mcp.CallToolRequest, input BatchUpdateInput) (*mcp.CallToolResult, usecase.BatchUpdateResult, error) {
	result, err := s.engine.UpdateBatch(ctx, s.actor, input.ToRequest())
	if err != nil {
		return nil, usecase.BatchUpdateResult{}, fmt.Errorf("batch update failed: %w", err)
	}
	return nil, *result, nil
}

func (s *Server) handleGet(ctx context.Context, req *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, GetOutput, error) {
	detail, err := s.reads.Get(ctx, input.ID)
	if err != nil {
		return nil, GetOutput{}, fmt.Errorf("failed to get drawing: %w", err)
	}
	if detail == nil {
		return nil, GetOutput{}, fmt.Errorf("drawing not found: %d", input.ID)
	}

	return nil, GetOutput{
		Drawing: usecase.ToDrawingResponse(detail.Drawing),
		Objects: toResponses(detail.Objects),
	}, nil
}

func (s *Server) handleListObjects(ctx context.Context, req *mcp.CallToolRequest, input ListObjectsInput) (*mcp.CallToolResult, ListObjectsOutput, error) {
	var month *drawing.Month
	if input.TargetMonth != "" {
		m, err := drawing.ParseMonth(input.TargetMonth)
		if err != nil {
			return nil, ListObjectsOutput{}, err
		}
		month = &m
	}

	objects, err := s.reads.ListObjects(ctx, input.DrawingID, month)
	if err != nil {
		return nil, ListObjectsOutput{}, fmt.Errorf("failed to list drawing objects: %w", err)
	}

	return nil, ListObjectsOutput{Objects: toResponses(objects)}, nil
}

func toResponses(objects []drawing.Object) []usecase.ObjectResponse {
	out := make([]usecase.ObjectResponse, 0, len(objects))
	for _, o := range objects {
		out = append(out, usecase.ToObjectResponse(o))
	}
	return out
}

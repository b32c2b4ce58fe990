package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yield-drawing/drawingdb/internal/drawing"
	"github.com/yield-drawing/drawingdb/internal/memstore"
	"github.com/yield-drawing/drawingdb/internal/usecase"
)

func newSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	require.NoError(t, store.SeedDrawing(drawing.Drawing{ID: 2, TargetID: 1, FieldTreeID: 222, BackgroundPath: "background.png", RowVersion: drawing.RowVersion{0}}))
	require.NoError(t, store.SeedObject(drawing.Object{ID: 1, DrawingID: 2, Type: drawing.TypeConstructionScope, Data: "Construction",
		TargetMonth: drawing.NewMonth(2023, time.July), RowVersion: drawing.RowVersion{0}}))

	srv := NewServer(store, drawing.Actor{UserID: "2", ProgramID: "mcp-test"}, "test")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := srv.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	var out T
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestBatchUpdateTool(t *testing.T) {
	cs := newSession(t)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "drawing_batch_update",
		Arguments: map[string]any{
			"rowState":   "edited",
			"drawingId":  2,
			"rowVersion": "AA==",
			"rows": []map[string]any{
				{"rowState": "edited", "id": 1, "drawingType": 0, "drawingData": "DrawingData1", "targetMonth": "2023-07", "rowVersion": "AA=="},
				{"rowState": "added", "drawingType": 1, "drawingData": "claim", "targetMonth": "2023-08"},
				{"rowState": "added", "drawingType": 1, "targetMonth": "08/2023"},
			},
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out := decode[usecase.BatchUpdateResult](t, res)
	require.Len(t, out.Rows, 3)
	assert.Equal(t, usecase.StatusSuccess, out.Rows[0].Status)
	assert.Equal(t, "2023-07", out.Rows[0].Data.TargetMonth)
	assert.Equal(t, usecase.StatusSuccess, out.Rows[1].Status)
	assert.Equal(t, usecase.StatusError, out.Rows[2].Status)
	assert.Equal(t, usecase.MessageInvalidTargetMonth, out.Rows[2].Message)
	assert.Empty(t, out.Rows[2].Data.TargetMonth)
	assert.Equal(t, int64(2), out.Drawing.ID)
}

func TestBatchUpdateToolReportsFatalError(t *testing.T) {
	cs := newSession(t)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "drawing_batch_update",
		Arguments: map[string]any{"rowState": "edited", "drawingId": 99},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetAndListTools(t *testing.T) {
	cs := newSession(t)
	ctx := context.Background()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "drawing_get", Arguments: map[string]any{"id": 2}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	got := decode[GetOutput](t, res)
	assert.Equal(t, "background.png", got.Drawing.BackgroundPath)
	require.Len(t, got.Objects, 1)
	assert.Equal(t, "Construction", got.Objects[0].DrawingData)

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{Name: "drawing_get", Arguments: map[string]any{"id": 404}})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{Name: "drawing_list_objects", Arguments: map[string]any{"drawingId": 2, "targetMonth": "2023-08"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Empty(t, decode[ListObjectsOutput](t, res).Objects)

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{Name: "drawing_list_objects", Arguments: map[string]any{"drawingId": 2}})
	require.NoError(t, err)
	assert.Len(t, decode[ListObjectsOutput](t, res).Objects, 1)
}

func TestToRequestLeavesBadMonthUnset(t *testing.T) {
	req := BatchUpdateInput{
		RowState:  "edited",
		DrawingID: 2,
		Rows:      []RowInput{{RowState: "added", TargetMonth: "2023-13"}, {RowState: "edited", ID: 1, TargetMonth: "2023-07"}},
	}.ToRequest()

	require.Len(t, req.Rows, 2)
	assert.True(t, req.Rows[0].Object.TargetMonth.IsZero())
	assert.Equal(t, drawing.NewMonth(2023, time.July), req.Rows[1].Object.TargetMonth)
	assert.Equal(t, int64(2), req.Rows[1].Object.DrawingID)
	assert.Equal(t, usecase.RowStateEdited, req.RowState)
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vogtb/excel-clone/packages/cellid"
	"github.com/vogtb/excel-clone/packages/sheetstore"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

type SheetEndpointParams struct {
	SheetID string `uri:"sheet_id" binding:"required"`
}

type CellEndpointParams struct {
	SheetID string `uri:"sheet_id" binding:"required"`
	CellID  string `uri:"cell_id" binding:"required"`
}

type EvaluateRequest struct {
	Cells map[string]string `json:"cells"`
	Rows  int               `json:"rows"`
	Cols  int               `json:"cols"`
}

type CreateSheetRequest struct {
	Name  string            `json:"name" binding:"required"`
	Rows  int               `json:"rows"`
	Cols  int               `json:"cols"`
	Cells map[string]string `json:"cells"`
}

type SetCellRequest struct {
	Raw *string `json:"raw" binding:"required"`
}

// ValuesResponse holds the non-empty values of a pass. cells missing from
// Values evaluated to nothing.
type ValuesResponse struct {
	ID     string                       `json:"id,omitempty"`
	Rows   int                          `json:"rows"`
	Cols   int                          `json:"cols"`
	Values map[string]spreadsheet.Value `json:"values"`
}

type CellResponse struct {
	ID    string            `json:"id"`
	Raw   string            `json:"raw"`
	Value spreadsheet.Value `json:"value"`
}

type GraphResponse struct {
	Cell          string   `json:"cell"`
	Formula       string   `json:"formula,omitempty"`
	Precedents    []string `json:"precedents"`
	Ranges        []string `json:"ranges"`
	Dependents    []string `json:"dependents"`
	AllDependents []string `json:"all_dependents"`
}

func (s *Server) evaluateAction(c *gin.Context) {
	request := EvaluateRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, err := normalize(request.Cells)
	if err != nil {
		s.abort(c, err)
		return
	}
	rows, cols := request.Rows, request.Cols
	if rows == 0 && cols == 0 {
		rows, cols = sheet.Extent()
		rows, cols = max(rows, 1), max(cols, 1)
	}
	if err := checkGrid(sheet, rows, cols); err != nil {
		s.abort(c, err)
		return
	}

	values := s.evaluate(c.Request.Context(), sourceRequest, sheet, rows, cols)
	c.JSON(http.StatusOK, ValuesResponse{Rows: rows, Cols: cols, Values: sparse(values)})
}

func (s *Server) createSheetAction(c *gin.Context) {
	request := CreateSheetRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cells, err := normalize(request.Cells)
	if err != nil {
		s.abort(c, err)
		return
	}
	rows, cols := request.Rows, request.Cols
	if rows == 0 {
		rows = s.defaultRows
	}
	if cols == 0 {
		cols = s.defaultCols
	}
	if err := checkGrid(cells, rows, cols); err != nil {
		s.abort(c, err)
		return
	}

	sheet, err := s.store.Create(request.Name, rows, cols, cells)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, sheet)
}

func (s *Server) listSheetsAction(c *gin.Context) {
	sheets, err := s.store.List()
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sheets": sheets})
}

func (s *Server) getSheetAction(c *gin.Context) {
	params := SheetEndpointParams{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, err := s.store.Get(params.SheetID)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func (s *Server) deleteSheetAction(c *gin.Context) {
	params := SheetEndpointParams{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.Delete(params.SheetID); err != nil {
		s.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setCellAction(c *gin.Context) {
	params := CellEndpointParams{}
	request := SetCellRequest{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, err := s.store.SetCell(params.SheetID, params.CellID, *request.Raw)
	if err != nil {
		s.abort(c, err)
		return
	}

	id, _ := cellid.Canonical(params.CellID)
	value := s.evaluator.EvaluateCell(id, sheet.Cells, spreadsheet.NewContext())
	c.JSON(http.StatusOK, CellResponse{ID: id, Raw: sheet.Cells[id], Value: value})
}

func (s *Server) valuesAction(c *gin.Context) {
	params := SheetEndpointParams{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	result, err, _ := s.passes.Do(params.SheetID, func() (any, error) {
		sheet, err := s.store.Get(params.SheetID)
		if err != nil {
			return nil, err
		}
		values := s.evaluate(ctx, sourceSheet, sheet.Cells, sheet.Rows, sheet.Cols)
		return &ValuesResponse{
			ID:     sheet.ID,
			Rows:   sheet.Rows,
			Cols:   sheet.Cols,
			Values: sparse(values),
		}, nil
	})
	if err != nil {
		s.abort(c, err)
		return
	}

	response, ok := result.(*ValuesResponse)
	if !ok {
		s.abort(c, fmt.Errorf("unexpected pass result %T", result))
		return
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) graphAction(c *gin.Context) {
	params := CellEndpointParams{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := cellid.Canonical(params.CellID)
	if err != nil {
		s.abort(c, spreadsheet.NewApplicationError(spreadsheet.InvalidArgument, fmt.Sprintf("invalid cell id: %v", err)))
		return
	}
	sheet, err := s.store.Get(params.SheetID)
	if err != nil {
		s.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, describeCell(spreadsheet.BuildGraph(sheet.Cells), id))
}

// describeCell reports what a cell reads and what reads it
func describeCell(graph *spreadsheet.DependencyGraph, id string) GraphResponse {
	response := GraphResponse{
		Cell:          id,
		Precedents:    orEmpty(graph.DirectPrecedents(id)),
		Ranges:        []string{},
		Dependents:    orEmpty(graph.DirectDependents(id)),
		AllDependents: orEmpty(graph.AllDependents(id)),
	}
	if node, ok := graph.GetNode(id); ok {
		response.Formula = node.Formula
	}
	for _, r := range graph.RangePrecedents(id) {
		response.Ranges = append(response.Ranges, r.String())
	}
	return response
}

// evaluate runs one traced and measured pass
func (s *Server) evaluate(ctx context.Context, source string, sheet spreadsheet.Snapshot, rows, cols int) map[string]spreadsheet.Value {
	_, span := tracer.Start(ctx, "sheetcalc.Evaluate", trace.WithAttributes(
		attribute.String("source", source),
		attribute.Int("cells", len(sheet)),
		attribute.Int("rows", rows),
		attribute.Int("cols", cols),
	))
	defer span.End()

	start := time.Now()
	values := s.evaluator.EvaluateAll(sheet, rows, cols)
	elapsed := time.Since(start)

	stats := statsOf(values)
	recordPass(source, stats, elapsed)
	span.SetAttributes(
		attribute.Int("cycles", stats.cycles),
		attribute.Int("errors", stats.failures),
	)
	span.SetStatus(codes.Ok, "")
	return values
}

// normalize copies request cells into a snapshot, canonicalizing ids and
// dropping empty text
func normalize(cells map[string]string) (spreadsheet.Snapshot, error) {
	sheet := make(spreadsheet.Snapshot, len(cells))
	for id, raw := range cells {
		if err := sheet.Set(id, raw); err != nil {
			return nil, err
		}
	}
	return sheet, nil
}

// checkGrid bounds request grids so a single pass stays tractable
func checkGrid(sheet spreadsheet.Snapshot, rows, cols int) error {
	if err := spreadsheet.ValidateSnapshot(sheet, rows, cols); err != nil {
		return err
	}
	if rows > spreadsheet.MaxRangeCells/cols {
		return spreadsheet.NewApplicationError(spreadsheet.InvalidArgument,
			fmt.Sprintf("grid %dx%d exceeds %d cells", rows, cols, spreadsheet.MaxRangeCells))
	}
	return nil
}

func sparse(values map[string]spreadsheet.Value) map[string]spreadsheet.Value {
	out := make(map[string]spreadsheet.Value, len(values))
	for id, v := range values {
		if !v.IsEmpty() {
			out[id] = v
		}
	}
	return out
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var _ SheetStore = (*sheetstore.Store)(nil)

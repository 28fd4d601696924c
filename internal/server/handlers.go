package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/box-augment/internal/annotation"
	"github.com/ironsheep/box-augment/internal/augment"
	"github.com/ironsheep/box-augment/internal/background"
	"github.com/ironsheep/box-augment/internal/geometry"
	"github.com/ironsheep/box-augment/internal/imaging"
	"github.com/ironsheep/box-augment/internal/pipeline"
	"github.com/ironsheep/box-augment/internal/placement"
	"github.com/ironsheep/box-augment/internal/rng"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "place_regions", "augment_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "check_overlap":
		return s.handleCheckOverlap(args)
	case "place_regions":
		return s.handlePlaceRegions(args)
	case "extract_region":
		return s.handleExtractRegion(args)
	case "parse_pipeline":
		return s.handleParsePipeline(args)
	case "augment_image":
		return s.handleAugmentImage(args)
	case "count_error":
		return s.handleCountError(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Information Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Geometry Handlers ===

type checkOverlapArgs struct {
	A geometry.Rect `json:"a"`
	B geometry.Rect `json:"b"`
}

// CheckOverlapResult is the result of check_overlap.
type CheckOverlapResult struct {
	Overlaps bool `json:"overlaps"`
}

func (s *Server) handleCheckOverlap(args json.RawMessage) (interface{}, error) {
	var a checkOverlapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return &CheckOverlapResult{Overlaps: geometry.Overlaps(a.A, a.B)}, nil
}

type placeRegionsArgs struct {
	CanvasWidth  int            `json:"canvas_width"`
	CanvasHeight int            `json:"canvas_height"`
	Dims         []geometry.Dim `json:"dims"`
	Seed         *uint64        `json:"seed"`
	MaxShrinks   int            `json:"max_shrinks"`
}

// PlaceRegionsResult is the result of place_regions.
type PlaceRegionsResult struct {
	Rects   []geometry.Rect `json:"rects"`
	Shrinks int             `json:"shrinks"`
}

func (s *Server) handlePlaceRegions(args json.RawMessage) (interface{}, error) {
	var a placeRegionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.CanvasWidth <= 0 || a.CanvasHeight <= 0 {
		return nil, fmt.Errorf("canvas must have positive size, got %dx%d", a.CanvasWidth, a.CanvasHeight)
	}

	seed := s.cfg.Seed
	if a.Seed != nil {
		seed = *a.Seed
	}
	scaler := s.cfg.Scaler()
	if a.MaxShrinks > 0 {
		scaler.MaxIterations = a.MaxShrinks
	}

	fit, err := scaler.Fit(rng.New(seed), a.CanvasWidth, a.CanvasHeight, placement.DimItems(a.Dims))
	if err != nil {
		return nil, err
	}
	return &PlaceRegionsResult{Rects: fit.Rects, Shrinks: fit.Shrinks}, nil
}

// === Region Handlers ===

type extractRegionArgs struct {
	Path   string `json:"path"`
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Border int    `json:"border"`
}

func (s *Server) handleExtractRegion(args json.RawMessage) (interface{}, error) {
	var a extractRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	reg, err := imaging.ExtractRegion(img, annotation.Annotation{
		Left: a.Left, Top: a.Top, Width: a.Width, Height: a.Height,
	}, a.Border)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNGBase64(reg.Image)
}

// === Pipeline Handlers ===

type parsePipelineArgs struct {
	Expression string `json:"expression"`
}

// ParsePipelineResult is the result of parse_pipeline.
type ParsePipelineResult struct {
	Canonical string                `json:"canonical"`
	Branches  []pipeline.BranchExpr `json:"branches"`
}

func (s *Server) handleParsePipeline(args json.RawMessage) (interface{}, error) {
	var a parsePipelineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := pipeline.ParseExpr(a.Expression)
	if err != nil {
		return nil, err
	}
	return &ParsePipelineResult{Canonical: e.String(), Branches: e.Branches}, nil
}

type augmentImageArgs struct {
	Path          string  `json:"path"`
	Annotations   string  `json:"annotations"`
	Pipeline      string  `json:"pipeline"`
	BackgroundDir string  `json:"background_dir"`
	Seed          *uint64 `json:"seed"`
	Sample        int     `json:"sample"`
	DrawBoxes     bool    `json:"draw_boxes"`
}

// AugmentImageResult is the result of augment_image.
type AugmentImageResult struct {
	Image       *imaging.EncodedImage      `json:"image"`
	Annotations *annotation.Set            `json:"annotations"`
	Background  *pipeline.BackgroundReport `json:"background,omitempty"`
}

func (s *Server) handleAugmentImage(args json.RawMessage) (interface{}, error) {
	var a augmentImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Pipeline == "" {
		a.Pipeline = "background"
	}
	if a.Sample < 0 {
		return nil, fmt.Errorf("sample index must not be negative, got %d", a.Sample)
	}
	seed := s.cfg.Seed
	if a.Seed != nil {
		seed = *a.Seed
	}

	set, err := loadAnnotations(a.Annotations)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	palette, err := imaging.PaletteFor(annotation.DefaultClassMap())
	if err != nil {
		return nil, err
	}

	var report *pipeline.BackgroundReport
	env := pipeline.Env{
		Config:       s.cfg,
		Palette:      palette,
		OnBackground: func(r pipeline.BackgroundReport) { report = &r },
	}
	if a.BackgroundDir != "" {
		pool, err := background.NewPool(a.BackgroundDir, rng.ForRotation(seed), true, s.cache)
		if err != nil {
			return nil, err
		}
		// Sample i of a run over a background-only pipeline draws the
		// i-th background of the rotation.
		for i := 0; i < a.Sample; i++ {
			if _, err := pool.Rotation().Next(); err != nil {
				return nil, err
			}
		}
		env.Pool = pool
	}

	stage, err := pipeline.Parse(a.Pipeline, env)
	if err != nil {
		return nil, err
	}
	out, set, err := stage.Apply(rng.ForSample(seed, a.Sample), img, set)
	if err != nil {
		if errors.Is(err, placement.ErrScalingExhausted) {
			return nil, fmt.Errorf("regions do not fit the background: %w", err)
		}
		return nil, err
	}

	if a.DrawBoxes {
		out = imaging.DrawAnnotations(out, set, palette)
	}
	enc, err := imaging.EncodePNGBase64(out)
	if err != nil {
		return nil, err
	}
	return &AugmentImageResult{Image: enc, Annotations: set, Background: report}, nil
}

type countErrorArgs struct {
	ActualDir    string `json:"actual_dir"`
	PredictedDir string `json:"predicted_dir"`
}

// CountErrorResult is the result of count_error.
type CountErrorResult struct {
	Classes []string `json:"classes"`
	*annotation.CountReport
}

func (s *Server) handleCountError(args json.RawMessage) (interface{}, error) {
	var a countErrorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ActualDir == "" || a.PredictedDir == "" {
		return nil, errors.New("actual_dir and predicted_dir are required")
	}

	classes := annotation.DefaultClassMap()
	report, err := augment.CompareCounts(a.ActualDir, a.PredictedDir, classes.NumClasses())
	if err != nil {
		return nil, err
	}
	return &CountErrorResult{Classes: classes.Names(), CountReport: report}, nil
}

// loadAnnotations reads a VOC .xml file or a JSON record, by extension.
func loadAnnotations(path string) (*annotation.Set, error) {
	if path == "" {
		return nil, errors.New("annotations path is required")
	}
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return annotation.LoadVOCFile(path, annotation.DefaultClassMap(), "")
	}
	return annotation.LoadJSONFile(path)
}

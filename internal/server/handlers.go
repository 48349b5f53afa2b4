package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/photo-touchup-mcp/internal/config"
	"github.com/ironsheep/photo-touchup-mcp/internal/detection"
	"github.com/ironsheep/photo-touchup-mcp/internal/imaging"
	"github.com/ironsheep/photo-touchup-mcp/internal/pipeline"
	"github.com/ironsheep/photo-touchup-mcp/internal/rectify"
)

// Default preview settings for tools that return an image.
const (
	defaultPreviewSide = 1024
	defaultQuadColor   = "#00FF00"
	defaultQuadWidth   = 3
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "photo_load", "photo_process").
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
		s.log.WithError(err).WithField("tool", params.Name).Warn("Tool failed")
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Replaces missing or malformed values with the configured defaults
//  3. Loads photos from cache as needed
//  4. Calls the appropriate imaging/detection/rectify/pipeline function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Inspection
	case "photo_load":
		return s.handlePhotoLoad(args)
	case "photo_sample_hsv":
		return s.handlePhotoSampleHSV(args)

	// Rectification
	case "photo_detect_boundary":
		return s.handlePhotoDetectBoundary(args)
	case "photo_rectify":
		return s.handlePhotoRectify(args)
	case "photo_find_background_hsv":
		return s.handlePhotoFindBackgroundHSV(args)

	// Processing
	case "photo_process":
		return s.handlePhotoProcess(args)
	case "photo_process_batch":
		return s.handlePhotoProcessBatch(args)

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

// parseHSV reads a [h, s, v] list. It returns nil when raw is absent or is not
// three on-scale numbers.
func parseHSV(raw json.RawMessage) *imaging.HSV {
	if len(raw) == 0 {
		return nil
	}
	var vals []float64
	if err := json.Unmarshal(raw, &vals); err != nil || len(vals) != 3 {
		return nil
	}
	var hsv imaging.HSV
	for i, v := range vals {
		hsv[i] = int(math.Round(v))
	}
	if !hsv.Valid() {
		return nil
	}
	return &hsv
}

// resolveHSV returns the requested HSV value or def when it is missing or malformed.
func (s *Server) resolveHSV(field string, raw json.RawMessage, def imaging.HSV) imaging.HSV {
	hsv := parseHSV(raw)
	if hsv == nil && len(raw) > 0 {
		s.log.WithField("field", field).Warnf("Malformed HSV value %s, using %v", raw, def)
	}
	return config.Resolve(hsv, def)
}

// backgroundArgs are the mat colour arguments shared by the rectification tools.
type backgroundArgs struct {
	HSVLower     json.RawMessage `json:"hsv_lower,omitempty"`
	HSVUpper     json.RawMessage `json:"hsv_upper,omitempty"`
	InwardOffset *int            `json:"inward_offset,omitempty"`
}

func (s *Server) rectifyOptions(a backgroundArgs) rectify.Options {
	d := s.cfg.Defaults
	return rectify.Options{
		Background: imaging.HSVRange{
			Lower: s.resolveHSV("hsv_lower", a.HSVLower, d.HSVLower),
			Upper: s.resolveHSV("hsv_upper", a.HSVUpper, d.HSVUpper),
		},
		InwardOffset: config.Resolve(a.InwardOffset, d.InwardOffset),
		Quad:         detection.DefaultQuadOptions,
	}
}

// save writes buf to path and drops any stale cache entry for it.
func (s *Server) save(buf *imaging.Buffer, path string) (*imaging.SaveResult, error) {
	res, err := imaging.Save(buf, path, s.cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}
	s.cache.Evict(res.Path)
	return res, nil
}

// === Inspection Handlers ===

type photoLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePhotoLoad(args json.RawMessage) (interface{}, error) {
	var a photoLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadPhotoInfo(s.cache, a.Path)
}

type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

type photoSampleHSVArgs struct {
	Path   string      `json:"path"`
	X      int         `json:"x"`
	Y      int         `json:"y"`
	Region *regionArgs `json:"region,omitempty"`
}

type sampleHSVResult struct {
	Sample *imaging.HSVSample `json:"sample,omitempty"`
	Range  *imaging.HSVRange  `json:"range,omitempty"`
}

func (s *Server) handlePhotoSampleHSV(args json.RawMessage) (interface{}, error) {
	var a photoSampleHSVArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	if a.Region != nil {
		r, err := imaging.SampleRegionHSV(buf.Image, image.Rect(a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2))
		if err != nil {
			return nil, err
		}
		return &sampleHSVResult{Range: &r}, nil
	}

	sample, err := imaging.SampleHSV(buf.Image, a.X, a.Y)
	if err != nil {
		return nil, err
	}
	return &sampleHSVResult{Sample: sample}, nil
}

// === Rectification Handlers ===

type photoDetectBoundaryArgs struct {
	Path string `json:"path"`
	backgroundArgs
	Color          string `json:"color,omitempty"`
	Thickness      int    `json:"thickness,omitempty"`
	PreviewMaxSide int    `json:"preview_max_side,omitempty"`
	MaskPreview    bool   `json:"mask_preview,omitempty"`
}

type detectBoundaryResult struct {
	detection.Detection
	Background  imaging.HSVRange       `json:"background"`
	Preview     *imaging.PreviewResult `json:"preview,omitempty"`
	MaskPreview *imaging.PreviewResult `json:"mask_preview,omitempty"`
}

func (s *Server) handlePhotoDetectBoundary(args json.RawMessage) (interface{}, error) {
	var a photoDetectBoundaryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = defaultQuadColor
	}
	if a.Thickness <= 0 {
		a.Thickness = defaultQuadWidth
	}
	if a.PreviewMaxSide <= 0 {
		a.PreviewMaxSide = defaultPreviewSide
	}

	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	opts := s.rectifyOptions(a.backgroundArgs)
	res := &detectBoundaryResult{
		Detection:  detection.DetectQuad(buf.Image, opts.Background, opts.Quad),
		Background: opts.Background,
	}
	// The mask is returned even on failure so the range can be tuned.
	if a.MaskPreview && res.Mask != nil {
		if res.MaskPreview, err = imaging.EncodePreview(res.Mask.Gray(), a.PreviewMaxSide); err != nil {
			return nil, err
		}
	}
	if !res.Found {
		return res, nil
	}

	overlay := imaging.DrawQuad(buf.Image, res.Quad.Points(), a.Color, a.Thickness)
	res.Preview, err = imaging.EncodePreview(overlay, a.PreviewMaxSide)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type photoRectifyArgs struct {
	Path string `json:"path"`
	backgroundArgs
	OutputPath     string `json:"output_path,omitempty"`
	Preview        bool   `json:"preview,omitempty"`
	PreviewMaxSide int    `json:"preview_max_side,omitempty"`
}

type rectifyResult struct {
	*rectify.Result
	Engine  string                 `json:"engine"`
	Saved   *imaging.SaveResult    `json:"saved,omitempty"`
	Preview *imaging.PreviewResult `json:"preview,omitempty"`
}

func (s *Server) handlePhotoRectify(args json.RawMessage) (interface{}, error) {
	var a photoRectifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	engine := s.pipe.Engine()
	res := &rectifyResult{
		Result: engine.Rectify(buf, s.rectifyOptions(a.backgroundArgs)),
		Engine: engine.Name(),
	}
	res.Saved, res.Preview, err = s.finishImage(res.Image, a.OutputPath, a.Preview, a.PreviewMaxSide)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type photoFindBackgroundHSVArgs struct {
	Path string `json:"path"`
	backgroundArgs
}

func (s *Server) handlePhotoFindBackgroundHSV(args json.RawMessage) (interface{}, error) {
	var a photoFindBackgroundHSVArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	opts := s.rectifyOptions(a.backgroundArgs)
	current := rectify.Preset{Name: "Current", Lower: opts.Background.Lower, Upper: opts.Background.Upper}
	return rectify.FindBackgroundHSV(buf, current, s.cfg.HSVPresets, opts, s.pipe.Engine().Rectify), nil
}

// === Processing Handlers ===

type photoProcessArgs struct {
	Path           string          `json:"path"`
	OutputPath     string          `json:"output_path,omitempty"`
	Settings       json.RawMessage `json:"settings,omitempty"`
	Preview        bool            `json:"preview,omitempty"`
	PreviewMaxSide int             `json:"preview_max_side,omitempty"`
}

type processResult struct {
	*pipeline.Result
	Saved   *imaging.SaveResult    `json:"saved,omitempty"`
	Preview *imaging.PreviewResult `json:"preview,omitempty"`
}

func (s *Server) handlePhotoProcess(args json.RawMessage) (interface{}, error) {
	var a photoProcessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	settings, err := s.settings(a.Settings)
	if err != nil {
		return nil, err
	}
	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res := &processResult{Result: s.pipe.Process(buf, settings)}
	res.Saved, res.Preview, err = s.finishImage(res.Image, a.OutputPath, a.Preview, a.PreviewMaxSide)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type photoProcessBatchArgs struct {
	Paths     []string        `json:"paths,omitempty"`
	Dir       string          `json:"dir,omitempty"`
	OutputDir string          `json:"output_dir"`
	Settings  json.RawMessage `json:"settings,omitempty"`
}

func (s *Server) handlePhotoProcessBatch(args json.RawMessage) (interface{}, error) {
	var a photoProcessBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputDir == "" {
		return nil, errors.New("output_dir is required")
	}

	paths := a.Paths
	if a.Dir != "" {
		listed, err := pipeline.ListPhotos(a.Dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return nil, errors.New("no photos to process: give paths or dir")
	}

	settings, err := s.settings(a.Settings)
	if err != nil {
		return nil, err
	}
	return s.pipe.ProcessFiles(context.Background(), paths, a.OutputDir, settings)
}

// settings overlays a partial settings object on the configured defaults.
// Malformed HSV bounds fall back to the defaults instead of failing the call.
func (s *Server) settings(raw json.RawMessage) (config.Settings, error) {
	out := s.cfg.Defaults
	if out.ManualCropBox != nil {
		box := *out.ManualCropBox
		out.ManualCropBox = &box
	}
	if len(raw) == 0 {
		return out, out.Validate()
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, fmt.Errorf("invalid settings: %w", err)
	}
	lower, upper := fields["hsv_lower"], fields["hsv_upper"]
	delete(fields, "hsv_lower")
	delete(fields, "hsv_upper")

	rest, err := json.Marshal(fields)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(rest, &out); err != nil {
		return out, fmt.Errorf("invalid settings: %w", err)
	}
	out.HSVLower = s.resolveHSV("hsv_lower", lower, s.cfg.Defaults.HSVLower)
	out.HSVUpper = s.resolveHSV("hsv_upper", upper, s.cfg.Defaults.HSVUpper)

	return out, out.Validate()
}

// finishImage saves buf when path is set and encodes a preview when asked.
func (s *Server) finishImage(buf *imaging.Buffer, path string, preview bool, maxSide int) (*imaging.SaveResult, *imaging.PreviewResult, error) {
	var saved *imaging.SaveResult
	if path != "" {
		var err error
		if saved, err = s.save(buf, path); err != nil {
			return nil, nil, err
		}
	}
	if !preview {
		return saved, nil, nil
	}
	if maxSide <= 0 {
		maxSide = defaultPreviewSide
	}
	enc, err := imaging.EncodePreview(buf.Image, maxSide)
	if err != nil {
		return nil, nil, err
	}
	return saved, enc, nil
}

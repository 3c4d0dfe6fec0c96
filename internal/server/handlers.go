package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/mask-contour-mcp/internal/classify"
	"github.com/ironsheep/mask-contour-mcp/internal/config"
	"github.com/ironsheep/mask-contour-mcp/internal/export"
	"github.com/ironsheep/mask-contour-mcp/internal/imaging"
	"github.com/ironsheep/mask-contour-mcp/internal/pipeline"
	"github.com/ironsheep/mask-contour-mcp/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "mask_info", "instances_to_polygons").
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

	log := s.logger.With("request_id", uuid.NewString(), "tool", params.Name)
	start := time.Now()

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		log.Warn("tool failed", "error", err, "duration", time.Since(start))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Info("tool completed", "duration", time.Since(start))

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
//  2. Applies per-call overrides on top of the server configuration
//  3. Loads masks and images through the cache
//  4. Calls the pipeline or imaging function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Mask Inspection
	case "mask_info":
		return s.handleMaskInfo(args)
	case "mask_classify":
		return s.handleMaskClassify(args)

	// Vectorization
	case "mask_to_polygons":
		return s.handleMaskToPolygons(args)
	case "instances_to_polygons":
		return s.handleInstancesToPolygons(args)
	case "image_color_mask":
		return s.handleImageColorMask(args)

	// Debugging
	case "mask_debug_overlay":
		return s.handleMaskDebugOverlay(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// overrides are the optional tuning arguments shared by the vectorizing
// tools. Nil fields keep the server configuration.
type overrides struct {
	MaskThreshold *int    `json:"mask_threshold"`
	Policy        *string `json:"policy"`
	Mode          *string `json:"mode"`

	MinAreaPx                    *int     `json:"min_area_px"`
	BgAreaFractionThreshold      *float64 `json:"bg_area_fraction_threshold"`
	BorderBandPx                 *int     `json:"border_band_px"`
	BorderTouchFractionThreshold *float64 `json:"border_touch_fraction_threshold"`
	EnableHoleHeuristic          *bool    `json:"enable_hole_heuristic"`
	HoleFractionThreshold        *float64 `json:"hole_fraction_threshold"`
	MinHoleAreaPx                *int     `json:"min_hole_area_px"`

	MinContourAreaPx *float64 `json:"min_contour_area_px"`
	EpsFraction      *float64 `json:"eps_fraction"`
	MaxPoints        *int     `json:"max_points"`
	Open             *bool    `json:"open"`
	Close            *bool    `json:"close"`
	Iterations       *int     `json:"iterations"`
}

// apply returns base with every set override copied in, validated.
func (o overrides) apply(base config.Config) (config.Config, error) {
	cfg := base
	if o.MaskThreshold != nil {
		if *o.MaskThreshold < 0 || *o.MaskThreshold > 255 {
			return config.Config{}, fmt.Errorf("%w: mask_threshold %d must be within 0-255", raster.ErrInvalidParameter, *o.MaskThreshold)
		}
		cfg.MaskThreshold = uint8(*o.MaskThreshold)
	}
	setString(&cfg.Policy, o.Policy)
	setString(&cfg.Mode, o.Mode)

	setInt(&cfg.Classifier.MinAreaPx, o.MinAreaPx)
	setFloat(&cfg.Classifier.BgAreaFractionThreshold, o.BgAreaFractionThreshold)
	setInt(&cfg.Classifier.BorderBandPx, o.BorderBandPx)
	setFloat(&cfg.Classifier.BorderTouchFractionThreshold, o.BorderTouchFractionThreshold)
	setBool(&cfg.Classifier.EnableHoleHeuristic, o.EnableHoleHeuristic)
	setFloat(&cfg.Classifier.HoleFractionThreshold, o.HoleFractionThreshold)
	setInt(&cfg.Classifier.MinHoleAreaPx, o.MinHoleAreaPx)

	setFloat(&cfg.MinContourAreaPx, o.MinContourAreaPx)
	setFloat(&cfg.Simplifier.EpsFraction, o.EpsFraction)
	setInt(&cfg.Simplifier.MaxPoints, o.MaxPoints)
	setBool(&cfg.Cleaner.Open, o.Open)
	setBool(&cfg.Cleaner.Close, o.Close)
	setInt(&cfg.Cleaner.Iterations, o.Iterations)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// === Mask Inspection Handlers ===

type maskInfoArgs struct {
	Path          string `json:"path"`
	MaskThreshold *int   `json:"mask_threshold"`
}

func (s *Server) handleMaskInfo(args json.RawMessage) (interface{}, error) {
	var a maskInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	cfg, err := overrides{MaskThreshold: a.MaskThreshold}.apply(s.cfg)
	if err != nil {
		return nil, err
	}
	return imaging.LoadMaskInfo(s.cache, a.Path, cfg.MaskThreshold)
}

type maskClassifyArgs struct {
	Path string `json:"path"`
	overrides
}

type maskClassifyResult struct {
	Path           string                  `json:"path"`
	Classification classify.Classification `json:"classification"`
}

func (s *Server) handleMaskClassify(args json.RawMessage) (interface{}, error) {
	var a maskClassifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	cfg, err := a.apply(s.cfg)
	if err != nil {
		return nil, err
	}

	m, err := imaging.LoadMask(s.cache, a.Path, cfg.MaskThreshold)
	if err != nil {
		return nil, err
	}
	c, err := classify.Classify(m, cfg.Classifier)
	if err != nil {
		return nil, err
	}
	return &maskClassifyResult{Path: a.Path, Classification: c}, nil
}

// === Vectorization Handlers ===

type maskToPolygonsArgs struct {
	Paths []string `json:"paths"`
	overrides
}

func (s *Server) handleMaskToPolygons(args json.RawMessage) (interface{}, error) {
	var a maskToPolygonsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := a.apply(s.cfg)
	if err != nil {
		return nil, err
	}

	masks, w, h, err := imaging.LoadInstances(s.cache, a.Paths, cfg.MaskThreshold)
	if err != nil {
		return nil, err
	}
	return pipeline.RunMerged(masks, w, h, cfg, s.logger)
}

type instancesToPolygonsArgs struct {
	Paths      []string `json:"paths"`
	OutputPath string   `json:"output_path"`
	overrides
}

type instancesToPolygonsResult struct {
	Payload    *export.Payload     `json:"payload"`
	Decisions  []classify.Decision `json:"decisions"`
	Kept       int                 `json:"kept"`
	Dropped    int                 `json:"dropped"`
	OutputPath string              `json:"output_path,omitempty"`
}

func (s *Server) handleInstancesToPolygons(args json.RawMessage) (interface{}, error) {
	var a instancesToPolygonsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := a.apply(s.cfg)
	if err != nil {
		return nil, err
	}

	masks, w, h, err := imaging.LoadInstances(s.cache, a.Paths, cfg.MaskThreshold)
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Run(masks, w, h, cfg, s.logger)
	if err != nil {
		return nil, err
	}

	if a.OutputPath != "" {
		if err := export.WriteJSON(a.OutputPath, res.Payload); err != nil {
			return nil, err
		}
	}

	return &instancesToPolygonsResult{
		Payload:    res.Payload,
		Decisions:  res.Decisions,
		Kept:       len(res.Kept),
		Dropped:    len(res.Dropped),
		OutputPath: a.OutputPath,
	}, nil
}

type imageColorMaskArgs struct {
	Path            string   `json:"path"`
	Border          *int     `json:"border"`
	Threshold       *float64 `json:"threshold"`
	Metric          *string  `json:"metric"`
	OpenIterations  *int     `json:"open_iterations"`
	CloseIterations *int     `json:"close_iterations"`
	IncludeMask     bool     `json:"include_mask"`
	overrides
}

type imageColorMaskResult struct {
	Payload *export.Payload `json:"payload"`
	*imaging.ColorMaskResult
	Mask *imaging.ImageResult `json:"mask,omitempty"`
}

func (s *Server) handleImageColorMask(args json.RawMessage) (interface{}, error) {
	var a imageColorMaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	base := s.cfg
	setInt(&base.ColorMask.Border, a.Border)
	setFloat(&base.ColorMask.Threshold, a.Threshold)
	setString(&base.ColorMask.Metric, a.Metric)
	setInt(&base.ColorMask.OpenIterations, a.OpenIterations)
	setInt(&base.ColorMask.CloseIterations, a.CloseIterations)
	cfg, err := a.apply(base)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	cm, err := imaging.ColorDistanceMask(img, cfg.ColorMask)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("color mask built",
		"path", a.Path,
		"background", cm.BackgroundColor,
		"border_px", cm.BorderPx,
		"foreground_fraction", cm.ForegroundFraction,
	)

	payload, err := pipeline.RunSingle(cm.Mask, cfg, s.logger)
	if err != nil {
		return nil, err
	}

	result := &imageColorMaskResult{Payload: payload, ColorMaskResult: cm}
	if a.IncludeMask {
		if result.Mask, err = imaging.EncodePNGBase64(imaging.MaskImage(cm.Mask)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// === Debugging Handlers ===

type maskDebugOverlayArgs struct {
	ImagePath string   `json:"image_path"`
	Paths     []string `json:"paths"`
	Alpha     *float64 `json:"alpha"`

	// Outline draws the exported polygons on top of the tint.
	Outline      bool   `json:"outline"`
	OutlineColor string `json:"outline_color"`
	overrides
}

type maskDebugOverlayResult struct {
	*imaging.ImageResult
	Kept     int `json:"kept"`
	Dropped  int `json:"dropped"`
	Polygons int `json:"polygons"`
}

func (s *Server) handleMaskDebugOverlay(args json.RawMessage) (interface{}, error) {
	var a maskDebugOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ImagePath == "" {
		return nil, fmt.Errorf("image_path is required")
	}
	alpha := imaging.DefaultOverlayAlpha
	setFloat(&alpha, a.Alpha)

	cfg, err := a.apply(s.cfg)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.ImagePath)
	if err != nil {
		return nil, err
	}
	masks, w, h, err := imaging.LoadInstances(s.cache, a.Paths, cfg.MaskThreshold)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		return nil, fmt.Errorf("%w: masks are %dx%d, image is %dx%d", raster.ErrInvalidRaster, w, h, b.Dx(), b.Dy())
	}

	res, err := pipeline.Run(masks, w, h, cfg, s.logger)
	if err != nil {
		return nil, err
	}
	overlay, err := imaging.KeepDropOverlay(img, res.KeepUnion, res.DropUnion, alpha)
	if err != nil {
		return nil, err
	}
	if a.Outline {
		if overlay, err = imaging.DrawOutlines(overlay, pipeline.Outlines(res.Payload), a.OutlineColor); err != nil {
			return nil, err
		}
	}
	encoded, err := imaging.EncodePNGBase64(overlay)
	if err != nil {
		return nil, err
	}
	return &maskDebugOverlayResult{
		ImageResult: encoded,
		Kept:        len(res.Kept),
		Dropped:     len(res.Dropped),
		Polygons:    len(res.Payload.Polygons),
	}, nil
}

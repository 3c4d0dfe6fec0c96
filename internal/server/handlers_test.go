package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeMaskFile writes a w x h grey mask with the rectangle [x0,x1)x[y0,y1)
// set to white and returns its path.
func writeMaskFile(t *testing.T, dir, name string, w, h, x0, y0, x1, y1 int) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return writePNGFile(t, dir, name, img)
}

// writePhotoFile writes a white w x h photo with a red rectangle.
func writePhotoFile(t *testing.T, dir, name string, w, h, x0, y0, x1, y1 int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				c = color.RGBA{200, 30, 30, 255}
			}
			img.Set(x, y, c)
		}
	}
	return writePNGFile(t, dir, name, img)
}

func writePNGFile(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// sceneFiles writes three 100x100 instance masks: a table covering the lower
// 80% of the frame, a 20x20 cup and a 30x30 box.
func sceneFiles(t *testing.T) (dir string, paths []string) {
	t.Helper()
	dir = t.TempDir()
	paths = []string{
		writeMaskFile(t, dir, "table.png", 100, 100, 0, 20, 100, 100),
		writeMaskFile(t, dir, "cup.png", 100, 100, 30, 30, 50, 50),
		writeMaskFile(t, dir, "box.png", 100, 100, 55, 55, 85, 85),
	}
	return dir, paths
}

// callTool runs a tools/call request and decodes the text content.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) map[string]interface{} {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v (%v)", resp.Error.Message, resp.Error.Data)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content should hold one item: %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &decoded); err != nil {
		t.Fatalf("content text is not JSON: %v", err)
	}
	return decoded
}

func TestHandleToolsCall_MaskInfo(t *testing.T) {
	s := newTestServer(t)
	path := writeMaskFile(t, t.TempDir(), "cup.png", 100, 80, 10, 10, 30, 30)

	got := callTool(t, s, "mask_info", map[string]interface{}{"path": path})

	if got["width"] != float64(100) || got["height"] != float64(80) {
		t.Errorf("size: got %vx%v, want 100x80", got["width"], got["height"])
	}
	if got["format"] != "png" {
		t.Errorf("format: got %v, want png", got["format"])
	}
	if got["foreground_pixels"] != float64(400) {
		t.Errorf("foreground_pixels: got %v, want 400", got["foreground_pixels"])
	}
	if got["components"] != float64(1) {
		t.Errorf("components: got %v, want 1", got["components"])
	}
}

func TestHandleToolsCall_MaskClassify(t *testing.T) {
	s := newTestServer(t)
	_, paths := sceneFiles(t)

	tests := []struct {
		path         string
		args         map[string]interface{}
		wantReason   string
		wantDropped  bool
		wantAreaFrac float64
	}{
		{paths[0], nil, "too_large", true, 0.8},
		{paths[1], nil, "kept", false, 0.04},
		{paths[1], map[string]interface{}{"min_area_px": 1000}, "too_small", true, 0.04},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path)+"_"+tt.wantReason, func(t *testing.T) {
			args := map[string]interface{}{"path": tt.path}
			for k, v := range tt.args {
				args[k] = v
			}
			got := callTool(t, s, "mask_classify", args)

			c, ok := got["classification"].(map[string]interface{})
			if !ok {
				t.Fatal("classification should be an object")
			}
			if c["reason"] != tt.wantReason {
				t.Errorf("reason: got %v, want %s", c["reason"], tt.wantReason)
			}
			if c["is_background"] != tt.wantDropped {
				t.Errorf("is_background: got %v, want %v", c["is_background"], tt.wantDropped)
			}
			stats := c["stats"].(map[string]interface{})
			if stats["area_fraction"] != tt.wantAreaFrac {
				t.Errorf("area_fraction: got %v, want %v", stats["area_fraction"], tt.wantAreaFrac)
			}
		})
	}
}

func TestHandleToolsCall_MaskToPolygons(t *testing.T) {
	s := newTestServer(t)
	_, paths := sceneFiles(t)

	// Merging without classification keeps the table, which swallows the
	// cup and the box.
	got := callTool(t, s, "mask_to_polygons", map[string]interface{}{"paths": paths})

	polygons := got["polygons"].([]interface{})
	if len(polygons) != 1 {
		t.Fatalf("polygons: got %d, want 1", len(polygons))
	}
	first := polygons[0].(map[string]interface{})
	if first["area_px"] != float64(8000) {
		t.Errorf("area_px: got %v, want 8000", first["area_px"])
	}
	if _, ok := first["mask_index"]; ok {
		t.Error("merged polygons should not carry mask_index")
	}
}

func TestHandleToolsCall_InstancesToPolygons(t *testing.T) {
	s := newTestServer(t)
	dir, paths := sceneFiles(t)
	out := filepath.Join(dir, "objects_contour.json")

	got := callTool(t, s, "instances_to_polygons", map[string]interface{}{
		"paths":       paths,
		"output_path": out,
	})

	if got["kept"] != float64(2) || got["dropped"] != float64(1) {
		t.Errorf("kept/dropped: got %v/%v, want 2/1", got["kept"], got["dropped"])
	}

	decisions := got["decisions"].([]interface{})
	if len(decisions) != 3 {
		t.Fatalf("decisions: got %d, want 3", len(decisions))
	}
	first := decisions[0].(map[string]interface{})
	if first["name"] != "table.png" || first["reason"] != "too_large" {
		t.Errorf("first decision: got %v/%v, want table.png/too_large", first["name"], first["reason"])
	}

	payload := got["payload"].(map[string]interface{})
	polygons := payload["polygons"].([]interface{})
	if len(polygons) != 2 {
		t.Fatalf("polygons: got %d, want 2", len(polygons))
	}
	box := polygons[0].(map[string]interface{})
	if box["area_px"] != float64(900) || box["mask_index"] != float64(1) {
		t.Errorf("box polygon: got area %v index %v", box["area_px"], box["mask_index"])
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if !strings.Contains(string(data), `"image_w": 100`) {
		t.Errorf("output file should hold the payload: %s", data)
	}
}

func TestHandleToolsCall_InstancesToPolygons_Overrides(t *testing.T) {
	s := newTestServer(t)
	_, paths := sceneFiles(t)

	got := callTool(t, s, "instances_to_polygons", map[string]interface{}{
		"paths":  paths,
		"policy": "largest",
		"mode":   "union",
	})

	payload := got["payload"].(map[string]interface{})
	if notes := payload["notes"].(string); !strings.Contains(notes, "Largest mask") || !strings.Contains(notes, "Union") {
		t.Errorf("notes: got %q", notes)
	}
	if got["dropped"] != float64(1) {
		t.Errorf("dropped: got %v, want 1", got["dropped"])
	}
}

func TestHandleToolsCall_ImageColorMask(t *testing.T) {
	s := newTestServer(t)
	path := writePhotoFile(t, t.TempDir(), "photo.png", 100, 100, 30, 30, 70, 70)

	got := callTool(t, s, "image_color_mask", map[string]interface{}{
		"path":         path,
		"include_mask": true,
	})

	if got["background_color"] != "#ffffff" {
		t.Errorf("background_color: got %v, want #ffffff", got["background_color"])
	}
	if got["border_px"] != float64(12) {
		t.Errorf("border_px: got %v, want 12", got["border_px"])
	}
	if got["foreground_fraction"] != 0.16 {
		t.Errorf("foreground_fraction: got %v, want 0.16", got["foreground_fraction"])
	}

	payload := got["payload"].(map[string]interface{})
	polygons := payload["polygons"].([]interface{})
	if len(polygons) != 1 {
		t.Fatalf("polygons: got %d, want 1", len(polygons))
	}
	if area := polygons[0].(map[string]interface{})["area_px"]; area != float64(1600) {
		t.Errorf("area_px: got %v, want 1600", area)
	}

	mask, ok := got["mask"].(map[string]interface{})
	if !ok {
		t.Fatal("include_mask should return the mask image")
	}
	if mask["mime_type"] != "image/png" || mask["image_base64"] == "" {
		t.Errorf("mask image: %v", mask["mime_type"])
	}
}

func TestHandleToolsCall_MaskDebugOverlay(t *testing.T) {
	s := newTestServer(t)
	dir, paths := sceneFiles(t)
	photo := writePhotoFile(t, dir, "photo.png", 100, 100, 30, 30, 50, 50)

	got := callTool(t, s, "mask_debug_overlay", map[string]interface{}{
		"image_path": photo,
		"paths":      paths,
		"alpha":      0.5,
	})

	if got["width"] != float64(100) || got["height"] != float64(100) {
		t.Errorf("size: got %vx%v", got["width"], got["height"])
	}
	if got["image_base64"] == "" {
		t.Error("image_base64 should not be empty")
	}
	if got["kept"] != float64(2) || got["dropped"] != float64(1) {
		t.Errorf("kept/dropped: got %v/%v, want 2/1", got["kept"], got["dropped"])
	}

	outlined := callTool(t, s, "mask_debug_overlay", map[string]interface{}{
		"image_path":    photo,
		"paths":         paths,
		"outline":       true,
		"outline_color": "#00ffff",
	})
	if outlined["polygons"] != float64(2) {
		t.Errorf("polygons: got %v, want 2", outlined["polygons"])
	}
	if outlined["image_base64"] == got["image_base64"] {
		t.Error("outlines should change the rendered image")
	}
}

func TestExecuteTool_Errors(t *testing.T) {
	s := newTestServer(t)
	dir, paths := sceneFiles(t)
	small := writeMaskFile(t, dir, "small.png", 50, 50, 10, 10, 20, 20)

	tests := []struct {
		name    string
		tool    string
		args    string
		wantErr string
	}{
		{"unknown tool", "image_crop", `{}`, "unknown tool"},
		{"invalid json", "mask_info", `{invalid`, ""},
		{"missing path", "mask_info", `{}`, "path is required"},
		{"missing file", "mask_info", `{"path":"/nonexistent/mask.png"}`, ""},
		{"threshold out of range", "mask_info", `{"path":"` + paths[0] + `","mask_threshold":300}`, "mask_threshold"},
		{"no paths", "instances_to_polygons", `{"paths":[]}`, ""},
		{"size mismatch", "instances_to_polygons", `{"paths":["` + paths[0] + `","` + small + `"]}`, ""},
		{"unknown policy", "instances_to_polygons", `{"paths":["` + paths[0] + `"],"policy":"median"}`, "policy"},
		{"unknown mode", "mask_to_polygons", `{"paths":["` + paths[0] + `"],"mode":"both"}`, "mode"},
		{"bad metric", "image_color_mask", `{"path":"` + paths[0] + `","metric":"hsv"}`, "metric"},
		{"bad alpha", "mask_debug_overlay", `{"image_path":"` + paths[0] + `","paths":["` + paths[1] + `"],"alpha":2}`, "alpha"},
		{"bad outline color", "mask_debug_overlay", `{"image_path":"` + paths[0] + `","paths":["` + paths[1] + `"],"outline":true,"outline_color":"teal"}`, "outline color"},
		{"overlay size mismatch", "mask_debug_overlay", `{"image_path":"` + small + `","paths":["` + paths[1] + `"]}`, "image is 50x50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.executeTool(tt.tool, json.RawMessage(tt.args))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestHandleToolsCall_ErrorResponse(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      9,
		Params:  json.RawMessage(`{"name":"mask_info","arguments":{"path":"/nonexistent/mask.png"}}`),
	})
	if resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}

	resp = s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 10, Params: json.RawMessage(`[1,2]`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("invalid params should give -32602, got %+v", resp.Error)
	}
}

func TestExecuteTool_UsesCache(t *testing.T) {
	s := newTestServer(t)
	_, paths := sceneFiles(t)

	callTool(t, s, "instances_to_polygons", map[string]interface{}{"paths": paths})
	if s.cache.Len() != len(paths) {
		t.Errorf("cache: got %d entries, want %d", s.cache.Len(), len(paths))
	}

	callTool(t, s, "mask_to_polygons", map[string]interface{}{"paths": paths})
	if s.cache.Len() != len(paths) {
		t.Errorf("cache should be reused: got %d entries", s.cache.Len())
	}
}

package main

import (
	"encoding/json"
	"net/http"

	"github.com/favitude/favitude/internal/constants"
	"github.com/favitude/favitude/internal/textrender"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	info := map[string]interface{}{
		"service":   "Favitude",
		"ico_sizes": constants.IcoEmbeddedSizes,
		"png_sizes": constants.PublishedSizes,
	}
	if s.cfg.BaseURL != "" {
		info["base_url"] = s.cfg.BaseURL
	}
	json.NewEncoder(w).Encode(info)
}

func (s *Server) handleFonts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"fonts":  s.gen.Renderer().Fonts().Families(),
		"shapes": shapeNames(),
	})
}

func shapeNames() []string {
	shapes := []textrender.Shape{
		textrender.ShapeSquare,
		textrender.ShapeRoundedSquare,
		textrender.ShapeCircle,
		textrender.ShapeTriangular,
	}
	names := make([]string, len(shapes))
	for i, sh := range shapes {
		names[i] = sh.String()
	}
	return names
}

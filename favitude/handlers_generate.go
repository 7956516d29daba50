package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/favitude/favitude/internal/colors"
	"github.com/favitude/favitude/internal/constants"
	"github.com/favitude/favitude/internal/logging"
	"github.com/favitude/favitude/internal/rasterize"
	"github.com/favitude/favitude/internal/textrender"
)

var errBusy = errors.New("generator busy, try again later")

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.Upload.MaxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.cfg.Upload.MaxBytes))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logging.FromContext(r.Context()).Debug().
		Str("filename", header.Filename).
		Int("bytes", len(raw)).
		Msg("generating favicons from image")

	s.generate(w, r, constants.ImageArchiveName, nil, func() ([]byte, error) {
		return s.gen.FromImage(raw)
	})
}

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	// The form may be urlencoded or multipart.
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, _, err := parseTextRequest(r.PostForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.generate(w, r, constants.TextArchiveName, nil, func() ([]byte, error) {
		return s.gen.FromText(req)
	})
}

// handleGenerateTextCached serves text icons over GET. Output depends on the
// parameters and on which font asset the family resolves to, so the ETag is a
// digest of both plus the font registry generation.
func (s *Server) handleGenerateTextCached(w http.ResponseWriter, r *http.Request) {
	req, canonical, err := parseTextRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	etag := s.textETag(req, canonical)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	cache := make(http.Header)
	cache.Set("ETag", etag)
	cache.Set("Cache-Control", "public, max-age=86400")
	s.generate(w, r, constants.TextArchiveName, cache, func() ([]byte, error) {
		return s.gen.FromText(req)
	})
}

func (s *Server) textETag(req textrender.Request, canonical string) string {
	reg := s.gen.Renderer().Fonts()
	// read the generation first so a concurrent Register can only make the
	// tag stale, never pair a new asset with an old generation
	gen := reg.Generation()
	_, asset, _ := reg.Resolve(req.FontFamily)

	sum := blake2b.Sum256([]byte(strings.Join([]string{
		canonical,
		s.cfg.Generate.TextPNGPrefix,
		asset,
		strconv.FormatUint(gen, 10),
	}, "\x00")))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatches reports whether an If-None-Match header value matches etag,
// using the weak comparison RFC 9110 prescribes for that header.
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(tag), "W/") == want {
			return true
		}
	}
	return false
}

// parseTextRequest reads the text form fields. The second result is a
// canonical encoding of the resolved request.
func parseTextRequest(form url.Values) (textrender.Request, string, error) {
	text := form.Get("text")
	if text == "" {
		return textrender.Request{}, "", errors.New("please enter some text")
	}

	size := 0
	if v := strings.TrimSpace(form.Get("fsize")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return textrender.Request{}, "", fmt.Errorf("invalid font size %q", v)
		}
		size = max(n, 0)
	}

	family := strings.TrimSpace(form.Get("ftype"))
	if family == "" {
		family = constants.DefaultFontFamily
	}

	fg, err := colors.ParseOr(form.Get("fcolor"), constants.DefaultTextColor)
	if err != nil {
		return textrender.Request{}, "", fmt.Errorf("font color: %w", err)
	}
	bg, err := colors.ParseOr(form.Get("bcolor"), constants.DefaultBackgroundColor)
	if err != nil {
		return textrender.Request{}, "", fmt.Errorf("background color: %w", err)
	}

	req := textrender.Request{
		Text:            text,
		FontSize:        size,
		Shape:           textrender.ParseShape(form.Get("Background")),
		FontFamily:      family,
		TextColor:       fg,
		BackgroundColor: bg,
	}
	canonical := strings.Join([]string{
		text,
		strconv.Itoa(size),
		req.Shape.String(),
		strings.ToLower(family),
		fmt.Sprintf("%02x%02x%02x%02x", fg.R, fg.G, fg.B, fg.A),
		fmt.Sprintf("%02x%02x%02x%02x", bg.R, bg.G, bg.B, bg.A),
	}, "\x00")
	return req, canonical, nil
}

// generate runs fn under the concurrency limit and writes the archive.
// extra headers are only sent with a successful response.
func (s *Server) generate(w http.ResponseWriter, r *http.Request, filename string, extra http.Header, fn func() ([]byte, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Generate.Timeout)
	defer cancel()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, errBusy.Error())
		return
	}
	defer s.sem.Release(1)

	data, err := fn()
	if err != nil {
		log := logging.FromContext(logging.WithComponent(r.Context(), "generate"))
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("favicon generation failed")
		} else {
			log.Debug().Err(err).Msg("favicon request rejected")
		}
		writeError(w, status, "Error generating favicon: "+err.Error())
		return
	}

	for k, v := range extra {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func statusFor(err error) int {
	var (
		decodeErr *rasterize.DecodeError
		renderErr *textrender.RenderError
	)
	if errors.As(err, &decodeErr) || errors.As(err, &renderErr) {
		return http.StatusBadRequest
	}
	// EncodeError, ArchiveError and anything unexpected
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "message": message})
}

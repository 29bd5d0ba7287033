package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"lasercode"
	"lasercode/logging"
	"lasercode/preview"
)

// maxBody – request bodies above this size are rejected.
const maxBody = 4 << 20

type server struct {
	cfg  lasercode.Config
	root string // base directory for source paths
}

func newServer(cfg lasercode.Config, root string) *server {
	return &server{cfg: cfg, root: root}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /reformat", s.handleReformat)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return withRequestID(mux)
}

// geometry – optional per-request overrides of the daemon config.
type geometry struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	PadX   *float64 `json:"pad_x,omitempty"`
	PadY   *float64 `json:"pad_y,omitempty"`
}

func (g geometry) apply(cfg lasercode.Config) lasercode.Config {
	if g.Width != nil {
		cfg.Width = *g.Width
	}
	if g.Height != nil {
		cfg.Height = *g.Height
	}
	if g.PadX != nil {
		cfg.PadX = *g.PadX
	}
	if g.PadY != nil {
		cfg.PadY = *g.PadY
	}
	return cfg
}

type generateRequest struct {
	Text      string `json:"text"`
	Symbology string `json:"symbology,omitempty"`
	Checksum  bool   `json:"checksum,omitempty"`
	FullASCII bool   `json:"full_ascii,omitempty"`
	Format    string `json:"format,omitempty"`
	geometry
}

type reformatRequest struct {
	// Source is inline SVG or a path below the daemon root.
	Source string `json:"source"`
	Group  string `json:"group,omitempty"`
	Format string `json:"format,omitempty"`
	geometry
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonErr(w, http.StatusBadRequest, "text is required")
		return
	}

	cfg := req.apply(s.cfg)
	cfg.Logger = logging.FromContext(r.Context())

	var opts []string
	if req.Symbology != "" {
		opts = append(opts, req.Symbology)
	}
	if req.Checksum {
		opts = append(opts, "checksum")
	}
	if req.FullASCII {
		opts = append(opts, "fullascii")
	}

	canvas, err := lasercode.Generate(req.Text, cfg, opts...)
	if err != nil {
		jsonErr(w, statusFor(err), "%v", err)
		return
	}
	writeCanvas(w, r, canvas, req.Format)
}

func (s *server) handleReformat(w http.ResponseWriter, r *http.Request) {
	var req reformatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		jsonErr(w, http.StatusBadRequest, "source is required: pass inline svg or a path")
		return
	}

	cfg := req.apply(s.cfg)
	cfg.Logger = logging.FromContext(r.Context())
	if req.Group != "" {
		cfg.GroupID = req.Group
	}

	var in io.Reader
	if strings.HasPrefix(source, "<") {
		in = strings.NewReader(source)
	} else {
		full, err := securejoin.SecureJoin(s.root, source)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, "forbidden source path: %v", err)
			return
		}
		f, err := os.Open(full)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				jsonErr(w, http.StatusBadRequest, "file not found: %s", source)
				return
			}
			jsonErr(w, http.StatusInternalServerError, "open source: %v", err)
			return
		}
		defer func() {
			_ = f.Close()
		}()
		in = f
	}

	canvas, err := lasercode.Reformat(in, cfg)
	if err != nil {
		jsonErr(w, statusFor(err), "%v", err)
		return
	}
	writeCanvas(w, r, canvas, req.Format)
}

// writeCanvas – SVG by default, PNG preview for format "png". The ETag is the
// BLAKE3 hash of the body.
func writeCanvas(w http.ResponseWriter, r *http.Request, canvas *lasercode.Canvas, format string) {
	var body []byte
	contentType := "image/svg+xml"

	switch strings.ToLower(format) {
	case "", "svg":
		body = canvas.Bytes()
	case "png":
		img, err := preview.Render(canvas, preview.DefaultPxPerMM)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, "%v", err)
			return
		}
		var buf bytes.Buffer
		if err := preview.WritePNG(&buf, img); err != nil {
			jsonErr(w, http.StatusInternalServerError, "%v", err)
			return
		}
		body = buf.Bytes()
		contentType = "image/png"
	default:
		jsonErr(w, http.StatusBadRequest, "unknown format %q", format)
		return
	}

	sum := blake3.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(body)
}

// statusFor – faults of the input are the client's, everything else is ours.
func statusFor(err error) int {
	for _, target := range []error{
		lasercode.ErrStructure,
		lasercode.ErrParse,
		lasercode.ErrEmptyBarcode,
		lasercode.ErrGeometry,
		lasercode.ErrConfig,
		lasercode.ErrEncode,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid json: %v", err)
		return false
	}
	return true
}

func jsonErr(w http.ResponseWriter, code int, fmtStr string, a ...any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf(fmtStr, a...)})
}

// ---------- middleware ----------

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestID – reuses the caller's X-Request-ID or mints one, and logs
// every request with it.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := logging.WithRequestID(r.Context(), id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		logging.FromContext(ctx).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

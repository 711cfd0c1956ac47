package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/boxaug/pkg/buildinfo"
	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/errors"
	"github.com/matzehuels/boxaug/pkg/pipeline"
)

// AugmentRequest is the body of POST /v1/augment. Image holds PNG, JPEG,
// GIF, BMP or TIFF bytes, base64-encoded in JSON. Seed defaults to the
// server's configured seed.
type AugmentRequest struct {
	Image       []byte            `json:"image"`
	Annotations []coco.Annotation `json:"annotations"`
	Seed        *uint64           `json:"seed,omitempty"`
	Refresh     bool              `json:"refresh,omitempty"`
}

// AugmentResponse is the reply to POST /v1/augment. Image is PNG.
type AugmentResponse struct {
	Image       []byte            `json:"image"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Annotations []coco.Annotation `json:"annotations"`
	Applied     []string          `json:"applied"`
	Dropped     int               `json:"dropped"`
	Cached      bool              `json:"cached"`
	Seed        uint64            `json:"seed"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleAugment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

		var req AugmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge,
					errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", s.maxBody))
				return
			}
			if errors.GetCode(err) == "" {
				err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
			}
			writeError(w, statusFor(err), err)
			return
		}
		if len(req.Image) == 0 {
			writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "image is required"))
			return
		}

		seed := s.seed
		if req.Seed != nil {
			seed = *req.Seed
		}
		out, err := s.runner.Augment(r.Context(), s.aug, pipeline.Item{
			Name:        "request.png",
			Data:        req.Image,
			Annotations: req.Annotations,
			Seed:        seed,
		}, req.Refresh)
		if err != nil {
			if !errors.IsClientError(err) {
				s.logger.Error("augment failed", "error", err)
			}
			writeError(w, statusFor(err), err)
			return
		}

		writeJSON(w, http.StatusOK, AugmentResponse{
			Image:       out.Data,
			Width:       out.Width,
			Height:      out.Height,
			Annotations: out.Annotations,
			Applied:     out.Applied,
			Dropped:     out.Dropped,
			Cached:      out.CacheHit,
			Seed:        seed,
		})
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

func statusFor(err error) int {
	if errors.IsClientError(err) {
		return http.StatusBadRequest
	}
	if errors.Is(err, errors.ErrCodeUnsupported) {
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// internal/handlers/upload.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// maxProofSize bounds a single proof upload.
const maxProofSize = 10 << 20

// UploadHandler accepts one proof image per request and returns the
// opaque filename the client later attaches via the attachProof signal.
// The file contents are never inspected.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxProofSize)

		file, header, err := r.FormFile("proof")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no_file"})
			return
		}
		defer file.Close()

		name := uuid.NewString() + filepath.Ext(header.Filename)
		dst, err := os.Create(filepath.Join(s.cfg.UploadDir, name))
		if err != nil {
			s.log.WithError(err).Error("cannot store proof")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store_failed"})
			return
		}
		defer dst.Close()

		if _, err := io.Copy(dst, file); err != nil {
			s.log.WithError(err).Error("cannot write proof")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store_failed"})
			return
		}

		s.log.WithField("filename", name).Info("proof stored")
		writeJSON(w, http.StatusOK, map[string]string{"filename": name})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

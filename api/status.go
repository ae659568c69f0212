package api

import (
	"net/http"

	"github.com/bookqr/book-qr/compose"
	"github.com/bookqr/book-qr/session"
)

type artifactStatus struct {
	Ready      bool   `json:"ready"`
	Version    int    `json:"version,omitempty"`
	Characters int    `json:"characters,omitempty"`
	Profile    string `json:"error_correction,omitempty"`
}

type statusResponse struct {
	Version   string                              `json:"version"`
	Document  *session.DocumentInfo               `json:"document,omitempty"`
	Artifacts map[session.Workflow]artifactStatus `json:"artifacts"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := statusResponse{
		Version:   s.Version,
		Document:  s.Session.Document(),
		Artifacts: make(map[session.Workflow]artifactStatus, 2),
	}
	for _, wf := range []session.Workflow{session.WorkflowPDF, session.WorkflowText} {
		st := artifactStatus{}
		if a := s.Session.Artifact(wf); a != nil {
			st = artifactStatus{
				Ready:      true,
				Version:    a.Version,
				Characters: compose.Length(a.Content),
				Profile:    a.Profile.String(),
			}
		}
		resp.Artifacts[wf] = st
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := requireJSON(r); err != nil {
		writeAppError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Session.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

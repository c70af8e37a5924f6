package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"makeupexam/internal/automation"
	"makeupexam/internal/browser"
	"makeupexam/internal/fileutil"
	"makeupexam/internal/history"
	"makeupexam/internal/logging"
	"makeupexam/internal/preflight"
	"makeupexam/internal/roster"
	"makeupexam/internal/services"
	"makeupexam/internal/tcrform"
)

const (
	examFileField   = "examFile"
	rosterFileField = "rosterFile"
)

type loginResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Browser *browser.LoginResult `json:"browser,omitempty"`
}

type rosterResponse struct {
	Success  bool                `json:"success"`
	Term     string              `json:"term"`
	Exam     string              `json:"exam"`
	Students []roster.Student    `json:"students"`
	Classes  []roster.ClassGroup `json:"classes"`
}

type automationResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message,omitempty"`
	Error     string             `json:"error,omitempty"`
	RunID     string             `json:"run_id,omitempty"`
	Status    history.RunStatus  `json:"status,omitempty"`
	LogPath   string             `json:"log_path,omitempty"`
	Preflight []preflight.Result `json:"preflight,omitempty"`
	Report    *tcrform.Report    `json:"report,omitempty"`
}

type clearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cleared int64  `json:"cleared"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	result, err := s.login(r.Context(), automation.LoginOptions(s.cfg), s.cfg.Form.URL)
	if err != nil {
		logging.ErrorWithContext(s.logger, "login browser failed", "login_failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to launch browser: "+err.Error())
		return
	}
	message := "Browser opened - please log in manually"
	if result != nil && result.Reused {
		message = "Login page opened in the running browser - please log in manually"
	}
	s.writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: message, Browser: result})
}

// handleLoadRoster parses an uploaded rosterFile, or the configured roster
// when the request carries no file.
func (s *Server) handleLoadRoster(w http.ResponseWriter, r *http.Request) {
	var (
		parsed *roster.Roster
		err    error
	)
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
		file, _, ferr := r.FormFile(rosterFileField)
		if ferr != nil {
			s.writeError(w, http.StatusBadRequest, "No roster file provided")
			return
		}
		defer file.Close()
		parsed, err = roster.Parse(file)
	} else {
		parsed, err = roster.Load(s.cfg.Roster.Path)
	}
	if err != nil {
		s.writeError(w, statusFor(err), automation.ErrorSummary(err))
		return
	}
	s.writeJSON(w, http.StatusOK, rosterResponse{
		Success:  true,
		Term:     parsed.Term,
		Exam:     parsed.Exam,
		Students: parsed.Students,
		Classes:  parsed.Groups(),
	})
}

func (s *Server) handleStartAutomation(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		s.writeError(w, http.StatusBadRequest, "No exam file provided")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	file, header, err := r.FormFile(examFileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("exam file exceeds %d MiB", s.cfg.Server.MaxUploadMiB))
			return
		}
		s.writeError(w, http.StatusBadRequest, "No exam file provided")
		return
	}
	defer file.Close()

	if _, err := preflight.DetectPDF(file); err != nil {
		s.writeError(w, http.StatusBadRequest, "Only PDF files are allowed for exam automation")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := fileutil.SanitizeFileName(header.Filename)
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "exam file name is empty")
		return
	}
	dest, err := fileutil.WriteFileAtomic(s.cfg.Paths.UploadDir, name, file, 0o644)
	if err != nil {
		logging.ErrorWithContext(s.logger, "failed to store exam upload", "upload_store_failed",
			logging.String("file", name),
			logging.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "Failed to store exam file: "+err.Error())
		return
	}
	s.logger.Info("exam file received", logging.String("path", dest), logging.Int64("bytes", header.Size))

	req := automation.Request{
		AttachmentPath:     dest,
		ExamFromAttachment: formBool(r.FormValue("examFromAttachment")),
		Source:             "api",
	}
	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		resp := automationResponse{Success: false, Error: automation.ErrorSummary(err)}
		if result != nil {
			resp.Message = result.Message
			resp.RunID = result.RunID
			resp.Status = result.Status
			resp.LogPath = result.LogPath
			resp.Preflight = result.Preflight
			resp.Report = result.Report
		}
		s.writeJSON(w, statusFor(err), resp)
		return
	}
	s.writeJSON(w, http.StatusOK, automationResponse{
		Success:   result.Success,
		Message:   result.Message,
		RunID:     result.RunID,
		Status:    result.Status,
		LogPath:   result.LogPath,
		Preflight: result.Preflight,
		Report:    result.Report,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var cleared int64
	if s.store != nil {
		n, err := s.store.Clear(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		cleared = n
	}
	s.writeJSON(w, http.StatusOK, clearResponse{
		Success: true,
		Message: "Makeup exam session cleared",
		Cleared: cleared,
	})
}

func (s *Server) maxUploadBytes() int64 {
	return int64(s.cfg.Server.MaxUploadMiB) << 20
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func formBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

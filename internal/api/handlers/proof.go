package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/habit-proofs/internal/api/httputil"
	"github.com/dom/habit-proofs/internal/api/middleware"
	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/service"
)

const (
	mediaField          = "media"
	multipartMemory     = 8 << 20
	multipartOverheadMB = 1
)

type ProofHandler struct {
	proofService *service.ProofService
	maxUploadMB  int
}

func NewProofHandler(proofService *service.ProofService, maxUploadMB int) *ProofHandler {
	return &ProofHandler{
		proofService: proofService,
		maxUploadMB:  maxUploadMB,
	}
}

type VoteRequest struct {
	Action string `json:"action"`
}

type ProofResponse struct {
	Proof *domain.Proof `json:"proof"`
}

type ProofListResponse struct {
	Proofs []*domain.Proof `json:"proofs"`
}

// Submit accepts a multipart upload with the proof file in the "media" field.
func (h *ProofHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	habitID, ok := pathID(w, r, domain.ErrHabitNotFound)
	if !ok {
		return
	}

	limit := int64(h.maxUploadMB+multipartOverheadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	err := r.ParseMultipartForm(multipartMemory)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, httputil.CodeBadRequest, "Upload is too large", nil)
			return
		}
		writeBadRequest(w, "Invalid multipart form")
		return
	}

	var media *service.MediaUpload
	if r.MultipartForm != nil {
		file, header, err := r.FormFile(mediaField)
		switch {
		case err == nil:
			defer file.Close()
			contentType := header.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			media = &service.MediaUpload{
				Filename:    header.Filename,
				ContentType: contentType,
				Size:        header.Size,
				Body:        file,
			}
		case !errors.Is(err, http.ErrMissingFile):
			writeBadRequest(w, "Invalid media field")
			return
		}
	}

	proof, err := h.proofService.SubmitProof(r.Context(), service.SubmitProofInput{
		UserID:  userID,
		HabitID: habitID,
		Media:   media,
	})
	if err != nil {
		writeServiceError(w, "ProofHandler.Submit", err)
		return
	}

	httputil.WriteJSONResponse(w, http.StatusOK, ProofResponse{Proof: proof})
}

func (h *ProofHandler) List(w http.ResponseWriter, r *http.Request) {
	habitID, ok := pathID(w, r, domain.ErrHabitNotFound)
	if !ok {
		return
	}

	proofs, err := h.proofService.ListProofs(r.Context(), habitID)
	if err != nil {
		writeServiceError(w, "ProofHandler.List", err)
		return
	}

	httputil.WriteJSONResponse(w, http.StatusOK, ProofListResponse{Proofs: proofs})
}

// Vote records a verify or reject decision on a proof. Any action other than
// verify is a rejection.
func (h *ProofHandler) Vote(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	proofID, ok := pathID(w, r, domain.ErrProofNotFound)
	if !ok {
		return
	}

	// A missing body or action counts as a rejection
	var req VoteRequest
	if err := httputil.DecodeOptionalJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	proof, err := h.proofService.CastVote(r.Context(), userID, proofID, req.Action)
	if err != nil {
		writeServiceError(w, "ProofHandler.Vote", err)
		return
	}

	httputil.WriteJSONResponse(w, http.StatusOK, ProofResponse{Proof: proof})
}

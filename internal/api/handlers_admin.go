// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parfour/parfour/internal/events"
	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/media"
	"github.com/parfour/parfour/internal/sponsors"
)

// maxUploadSize bounds sponsor photo uploads.
const maxUploadSize = 10 << 20 // 10 MiB

// handleListUsers pages through the identity provider's account list.
//
//	@Summary	List accounts
//	@Tags		admin
//	@Produce	json
//	@Param		page		query	int	false	"Page, 1-based"
//	@Param		per_page	query	int	false	"Page size"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 50)
	if perPage > 200 {
		perPage = 200
	}

	users, err := s.identity.ListUsers(r.Context(), page, perPage)
	if err != nil {
		logging.Err(err).Msg("Failed to list users")
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstream, "identity provider unavailable")
		return
	}
	respondJSON(w, r, http.StatusOK, users)
}

// updateRoleRequest is the role change request body.
type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// handleUpdateUserRole changes an account's role via the provider's
// admin API. The provider's webhook then propagates the change to any
// live sessions, including forced sign-out on demotion.
//
//	@Summary	Update account role
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		userID	path	string				true	"Provider user ID"
//	@Param		role	body	updateRoleRequest	true	"New role"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/users/{userID}/role [put]
func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "missing user ID")
		return
	}

	var req updateRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.identity.UpdateUserRole(r.Context(), userID, identity.Role(req.Role))
	if err != nil {
		logging.Err(err).Str("user_id", sanitizeLogValue(userID)).Msg("Failed to update role")
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstream, "failed to update role")
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

// handleListPhotos lists the photos in a media folder so the admin UI
// can show what is already uploaded.
//
//	@Summary	List photos
//	@Tags		admin
//	@Produce	json
//	@Param		folder		query	string	false	"Folder, default from configuration"
//	@Param		per_page	query	int		false	"Page size"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/photos [get]
func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	assets, err := s.media.List(r.Context(), r.URL.Query().Get("folder"), queryInt(r, "per_page", 100))
	if err != nil {
		s.respondMediaError(w, r, err, "listing failed")
		return
	}
	respondJSON(w, r, http.StatusOK, assets)
}

// handleUploadPhoto uploads a photo to the media service. The signed
// request is built server-side so credentials never reach the browser.
//
//	@Summary	Upload a photo
//	@Tags		admin
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Image file"
//	@Param		folder	formData	string	false	"Target folder"
//	@Success	201	{object}	APIResponse
//	@Failure	503	{object}	APIResponse
//	@Router		/admin/photos [post]
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	asset, err := s.media.Upload(r.Context(), header.Filename, file, r.FormValue("folder"))
	if err != nil {
		s.respondMediaError(w, r, err, "upload failed")
		return
	}

	respondJSON(w, r, http.StatusCreated, asset)
}

// handleDeletePhoto deletes one photo from the media service.
//
//	@Summary	Delete a photo
//	@Tags		admin
//	@Produce	json
//	@Param		publicID	path	string	true	"Asset public ID"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/photos/{publicID} [delete]
func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicID")
	if unescaped, err := url.PathUnescape(publicID); err == nil {
		// Folder-qualified IDs arrive with the slash escaped.
		publicID = unescaped
	}
	if publicID == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "missing public ID")
		return
	}

	if err := s.media.Delete(r.Context(), publicID); err != nil {
		s.respondMediaError(w, r, err, "delete failed")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]string{"public_id": publicID, "result": "deleted"})
}

// batchDeleteRequest is the batch photo delete request body.
type batchDeleteRequest struct {
	PublicIDs []string `json:"public_ids" validate:"required,min=1,max=100,dive,required"`
}

// batchDeleteResult reports per-item outcomes of a batch delete.
type batchDeleteResult struct {
	Deleted []string                 `json:"deleted"`
	Failed  []media.BatchItemFailure `json:"failed,omitempty"`
}

// handleBatchDeletePhotos deletes a set of photos. Every item is
// attempted; a partial failure returns 207 with the per-item split,
// and a batch where nothing succeeded returns 502.
//
//	@Summary	Batch delete photos
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		ids	body	batchDeleteRequest	true	"Public IDs to delete"
//	@Success	200	{object}	APIResponse
//	@Failure	207	{object}	APIResponse
//	@Failure	502	{object}	APIResponse
//	@Router		/admin/photos/batch-delete [post]
func (s *Server) handleBatchDeletePhotos(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := media.BatchDelete(r.Context(), s.media, req.PublicIDs)
	if err == nil {
		respondJSON(w, r, http.StatusOK, batchDeleteResult{Deleted: req.PublicIDs})
		return
	}

	var partial *media.PartialBatchFailureError
	if errors.As(err, &partial) {
		result := batchDeleteResult{Deleted: partial.Deleted, Failed: partial.Failed}
		if partial.Complete() {
			respondErrorDetails(w, r, http.StatusBadGateway, ErrCodeUpstream,
				"batch delete failed for every item", result)
			return
		}
		respondErrorDetails(w, r, http.StatusMultiStatus, ErrCodePartialBatchFailure,
			"some items could not be deleted", result)
		return
	}

	s.respondMediaError(w, r, err, "batch delete failed")
}

// respondMediaError maps media client failures to API errors. Missing
// credentials are a deployment problem, reported as 503 so the admin
// UI can say the media integration is not configured.
func (s *Server) respondMediaError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var missing *media.MissingCredentialError
	if errors.As(err, &missing) {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeMediaNotConfigured,
			"media service is not configured")
		return
	}

	logging.Err(err).Str("path", r.URL.Path).Msg("Media operation failed")
	respondError(w, r, http.StatusBadGateway, ErrCodeUpstream, action)
}

// handleUpsertSponsor creates or updates a sponsor.
//
//	@Summary	Create or update a sponsor
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		sponsor	body	sponsors.Sponsor	true	"Sponsor"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/sponsors [post]
func (s *Server) handleUpsertSponsor(w http.ResponseWriter, r *http.Request) {
	var sponsor sponsors.Sponsor
	if !decodeAndValidate(w, r, &sponsor) {
		return
	}

	if err := s.content.UpsertSponsor(r.Context(), &sponsor); err != nil {
		logging.Err(err).Msg("Failed to save sponsor")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to save sponsor")
		return
	}
	respondJSON(w, r, http.StatusOK, sponsor)
}

// handleDeleteSponsor removes a sponsor. Idempotent.
//
//	@Summary	Delete a sponsor
//	@Tags		admin
//	@Produce	json
//	@Param		id	path	string	true	"Sponsor ID"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/sponsors/{id} [delete]
func (s *Server) handleDeleteSponsor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.content.DeleteSponsor(r.Context(), id); err != nil {
		logging.Err(err).Msg("Failed to delete sponsor")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to delete sponsor")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"id": id, "result": "deleted"})
}

// handleUpsertWinner creates or updates a past winner entry.
//
//	@Summary	Create or update a winner
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		winner	body	sponsors.Winner	true	"Winner"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/winners [post]
func (s *Server) handleUpsertWinner(w http.ResponseWriter, r *http.Request) {
	var winner sponsors.Winner
	if !decodeAndValidate(w, r, &winner) {
		return
	}

	if err := s.content.UpsertWinner(r.Context(), &winner); err != nil {
		logging.Err(err).Msg("Failed to save winner")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to save winner")
		return
	}
	respondJSON(w, r, http.StatusOK, winner)
}

// handleDeleteWinner removes a winner entry. Idempotent.
//
//	@Summary	Delete a winner
//	@Tags		admin
//	@Produce	json
//	@Param		id	path	string	true	"Winner ID"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/winners/{id} [delete]
func (s *Server) handleDeleteWinner(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.content.DeleteWinner(r.Context(), id); err != nil {
		logging.Err(err).Msg("Failed to delete winner")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to delete winner")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"id": id, "result": "deleted"})
}

// updateFundsRequest is the funds total update body. Amounts are in
// cents to avoid floating point money.
type updateFundsRequest struct {
	TotalCents int64 `json:"total_cents" validate:"min=0"`
	GoalCents  int64 `json:"goal_cents" validate:"min=0"`
}

// handleUpdateFunds sets the funds-raised total and pushes the update
// to every connected viewer over WebSocket.
//
//	@Summary	Update funds raised
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		funds	body	updateFundsRequest	true	"New totals"
//	@Success	200	{object}	APIResponse
//	@Router		/admin/funds [put]
func (s *Server) handleUpdateFunds(w http.ResponseWriter, r *http.Request) {
	var req updateFundsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	funds := &sponsors.FundsTotal{
		TotalCents: req.TotalCents,
		GoalCents:  req.GoalCents,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.content.SetFunds(r.Context(), funds); err != nil {
		logging.Err(err).Msg("Failed to save funds total")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to save funds total")
		return
	}

	if err := s.bus.PublishFundsUpdated(events.FundsUpdatedEvent{
		TotalCents: funds.TotalCents,
		GoalCents:  funds.GoalCents,
		UpdatedAt:  funds.UpdatedAt,
	}); err != nil {
		// The total is saved; viewers just miss the live push.
		logging.Err(err).Msg("Failed to publish funds update")
	}

	respondJSON(w, r, http.StatusOK, funds)
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

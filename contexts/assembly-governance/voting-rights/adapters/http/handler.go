package httpadapter

import (
	"context"
	"log/slog"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/application/commands"
	"assembly/contexts/assembly-governance/voting-rights/application/queries"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	httptransport "assembly/contexts/assembly-governance/voting-rights/transport/http"
)

type Handler struct {
	Delegations    commands.DelegationUseCase
	Ballots        commands.BallotUseCase
	VoteAdmin      commands.VoteAdminUseCase
	Attendance     commands.AttendanceUseCase
	Quorum         queries.QuorumUseCase
	Tally          queries.TallyUseCase
	Representation queries.RepresentationUseCase
	Logger         *slog.Logger
}

// ClientInfo is the audit trail captured with a digital signature.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// RequestDelegationHandler godoc
// @Summary Request a digital delegation
// @Description Creates a PENDING proxy and sends a one-time code to the principal's phone and email.
// @Tags voting-rights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.RequestDelegationRequest true "Representative"
// @Success 201 {object} httptransport.RequestDelegationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /v1/delegations/digital [post]
func (h Handler) RequestDelegationHandler(
	ctx context.Context,
	principalID string,
	client ClientInfo,
	req httptransport.RequestDelegationRequest,
) (httptransport.RequestDelegationResponse, error) {
	result, err := h.Delegations.RequestDigitalDelegation(ctx, commands.RequestDigitalDelegationCommand{
		PrincipalID:            principalID,
		RepresentativeID:       req.RepresentativeID,
		RepresentativeDocument: req.RepresentativeDocument,
		ExternalName:           req.ExternalName,
		IPAddress:              client.IPAddress,
		UserAgent:              client.UserAgent,
	})
	if err != nil {
		h.logFailure("voting_rights_http_request_delegation_failed", err)
		return httptransport.RequestDelegationResponse{}, err
	}
	warnings := make([]httptransport.ChannelWarning, 0, len(result.Warnings))
	for _, warning := range result.Warnings {
		warnings = append(warnings, httptransport.ChannelWarning{Channel: warning.Channel, Error: warning.Error})
	}
	return httptransport.RequestDelegationResponse{
		Success:           true,
		Proxy:             mapProxy(result.Proxy),
		SignatureID:       result.SignatureID,
		ExpiresAt:         result.ExpiresAt,
		DeliveredChannels: result.DeliveredChannels,
		Warnings:          warnings,
	}, nil
}

// VerifyDelegationHandler godoc
// @Summary Verify a digital delegation
// @Description Checks the one-time code, signs the delegation and transfers the principal's units.
// @Tags voting-rights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.VerifyDelegationRequest true "Signature and code"
// @Success 200 {object} httptransport.DelegationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 410 {object} httptransport.ErrorResponse
// @Router /v1/delegations/digital/verify [post]
func (h Handler) VerifyDelegationHandler(
	ctx context.Context,
	principalID string,
	client ClientInfo,
	req httptransport.VerifyDelegationRequest,
) (httptransport.DelegationResponse, error) {
	result, err := h.Delegations.VerifyDigitalDelegation(ctx, commands.VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: req.SignatureID,
		Code:        req.Code,
		IPAddress:   client.IPAddress,
		UserAgent:   client.UserAgent,
	})
	if err != nil {
		h.logFailure("voting_rights_http_verify_delegation_failed", err)
		return httptransport.DelegationResponse{}, err
	}
	return httptransport.DelegationResponse{
		Success:          true,
		Proxy:            mapProxy(result.Proxy),
		DocumentHash:     result.DocumentHash,
		UnitsTransferred: result.UnitsTransferred,
		RevokedProxyIDs:  result.RevokedProxyIDs,
		Warnings:         result.Warnings,
	}, nil
}

// RegisterManualDelegationHandler godoc
// @Summary Register a manual delegation
// @Description Records an operator-assisted or PDF proxy as APPROVED and transfers the principal's units.
// @Tags voting-rights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.ManualDelegationRequest true "Manual delegation"
// @Success 201 {object} httptransport.DelegationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /v1/delegations/manual [post]
func (h Handler) RegisterManualDelegationHandler(
	ctx context.Context,
	actorID string,
	req httptransport.ManualDelegationRequest,
) (httptransport.DelegationResponse, error) {
	result, err := h.Delegations.RegisterManualDelegation(ctx, commands.RegisterManualDelegationCommand{
		ActorID:                actorID,
		PrincipalID:            req.PrincipalID,
		RepresentativeID:       req.RepresentativeID,
		RepresentativeDocument: req.RepresentativeDocument,
		ExternalName:           req.ExternalName,
		Type:                   entities.ProxyType(req.Type),
		DocumentRef:            req.DocumentRef,
	})
	if err != nil {
		h.logFailure("voting_rights_http_manual_delegation_failed", err)
		return httptransport.DelegationResponse{}, err
	}
	return httptransport.DelegationResponse{
		Success:          true,
		Proxy:            mapProxy(result.Proxy),
		UnitsTransferred: result.UnitsTransferred,
		RevokedProxyIDs:  result.RevokedProxyIDs,
		Warnings:         result.Warnings,
	}, nil
}

// RevokeDelegationHandler godoc
// @Summary Revoke an approved delegation
// @Tags voting-rights
// @Produce json
// @Security BearerAuth
// @Param proxy_id path string true "Proxy id"
// @Success 200 {object} httptransport.RevokeDelegationResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/delegations/{proxy_id}/revoke [post]
func (h Handler) RevokeDelegationHandler(
	ctx context.Context,
	principalID string,
	proxyID string,
) (httptransport.RevokeDelegationResponse, error) {
	result, err := h.Delegations.RevokeDelegation(ctx, commands.RevokeDelegationCommand{
		ProxyID:     proxyID,
		PrincipalID: principalID,
	})
	if err != nil {
		h.logFailure("voting_rights_http_revoke_delegation_failed", err)
		return httptransport.RevokeDelegationResponse{}, err
	}
	return httptransport.RevokeDelegationResponse{
		Success:       true,
		Proxy:         mapProxy(result.Proxy),
		UnitsRestored: result.UnitsRestored,
		Warnings:      result.Warnings,
	}, nil
}

// CastVoteHandler godoc
// @Summary Cast a weighted ballot
// @Description Records one ballot per unit the voter currently represents.
// @Tags voting-rights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param vote_id path string true "Vote id"
// @Param request body httptransport.CastVoteRequest true "Option"
// @Success 201 {object} httptransport.CastVoteResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/votes/{vote_id}/ballots [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	actorID string,
	voteID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Ballots.CastVote(ctx, commands.CastVoteCommand{
		ActorID:  actorID,
		VoteID:   voteID,
		OptionID: req.OptionID,
		TargetID: req.TargetID,
	})
	if err != nil {
		h.logFailure("voting_rights_http_cast_vote_failed", err)
		return httptransport.CastVoteResponse{}, err
	}
	unitIDs := make([]string, 0, len(result.Ballots))
	for _, ballot := range result.Ballots {
		unitIDs = append(unitIDs, ballot.UnitID)
	}
	return httptransport.CastVoteResponse{
		Success:     true,
		VoteID:      result.VoteID,
		OptionID:    result.OptionID,
		TargetID:    result.TargetID,
		BallotCount: result.BallotCount,
		Weight:      result.Weight.String(),
		UnitIDs:     unitIDs,
	}, nil
}

// GetVoteTallyHandler godoc
// @Summary Weighted tally of a vote
// @Tags voting-rights
// @Produce json
// @Security BearerAuth
// @Param vote_id path string true "Vote id"
// @Success 200 {object} httptransport.TallyResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/votes/{vote_id}/tally [get]
func (h Handler) GetVoteTallyHandler(ctx context.Context, voteID string) (httptransport.TallyResponse, error) {
	result, err := h.Tally.GetVoteTally(ctx, voteID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(result), nil
}

// GetLiveTallyHandler godoc
// @Summary Realtime tally of a vote
// @Description Serves the tally maintained from the ballot.cast feed. It may trail the authoritative tally by the relay delay.
// @Tags voting-rights
// @Produce json
// @Security BearerAuth
// @Param vote_id path string true "Vote id"
// @Success 200 {object} httptransport.TallyResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/votes/{vote_id}/tally/live [get]
func (h Handler) GetLiveTallyHandler(ctx context.Context, voteID string) (httptransport.TallyResponse, error) {
	result, err := h.Tally.GetLiveTally(ctx, voteID)
	if err != nil {
		h.logFailure("voting_rights_http_live_tally_failed", err)
		return httptransport.TallyResponse{}, err
	}
	return mapTally(result), nil
}

func mapTally(result queries.VoteTally) httptransport.TallyResponse {
	options := make([]httptransport.OptionTallyResponse, 0, len(result.Tally.Options))
	for _, option := range result.Tally.Options {
		options = append(options, httptransport.OptionTallyResponse{
			OptionID:   option.OptionID,
			Label:      option.Label,
			Weight:     option.Weight.String(),
			Ballots:    option.Ballots,
			Percentage: option.Percentage.String(),
		})
	}
	return httptransport.TallyResponse{
		Success:      true,
		VoteID:       result.Vote.VoteID,
		Title:        result.Vote.Title,
		Status:       string(result.Vote.Status),
		TotalWeight:  result.Tally.TotalWeight.String(),
		TotalBallots: result.Tally.TotalBallots,
		Options:      options,
		Live:         result.Live,
	}
}

// CreateVoteHandler godoc
// @Summary Create a vote
// @Tags voting-rights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.CreateVoteRequest true "Vote"
// @Success 201 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /v1/votes [post]
func (h Handler) CreateVoteHandler(
	ctx context.Context,
	actorID string,
	req httptransport.CreateVoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.VoteAdmin.CreateVote(ctx, commands.CreateVoteCommand{
		ActorID:    actorID,
		AssemblyID: req.AssemblyID,
		Title:      req.Title,
		Options:    mapOptionInputs(req.Options),
	})
	if err != nil {
		h.logFailure("voting_rights_http_create_vote_failed", err)
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

// UpdateVoteStatusHandler godoc
// @Summary Change the status of a vote
// @Tags voting-rights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param vote_id path string true "Vote id"
// @Param request body httptransport.UpdateVoteStatusRequest true "Target status"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/votes/{vote_id}/status [put]
func (h Handler) UpdateVoteStatusHandler(
	ctx context.Context,
	actorID string,
	voteID string,
	req httptransport.UpdateVoteStatusRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.VoteAdmin.UpdateVoteStatus(ctx, commands.UpdateVoteStatusCommand{
		ActorID: actorID,
		VoteID:  voteID,
		Status:  entities.VoteStatus(req.Status),
	})
	if err != nil {
		h.logFailure("voting_rights_http_update_vote_status_failed", err)
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

// UpdateVoteDetailsHandler godoc
// @Summary Edit a vote's title or options
// @Tags voting-rights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param vote_id path string true "Vote id"
// @Param request body httptransport.UpdateVoteDetailsRequest true "Changes"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/votes/{vote_id} [patch]
func (h Handler) UpdateVoteDetailsHandler(
	ctx context.Context,
	actorID string,
	voteID string,
	req httptransport.UpdateVoteDetailsRequest,
) (httptransport.VoteResponse, error) {
	cmd := commands.UpdateVoteDetailsCommand{
		ActorID: actorID,
		VoteID:  voteID,
		Title:   req.Title,
	}
	if req.Options != nil {
		cmd.Options = mapOptionInputs(req.Options)
	}
	vote, err := h.VoteAdmin.UpdateVoteDetails(ctx, cmd)
	if err != nil {
		h.logFailure("voting_rights_http_update_vote_details_failed", err)
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

// DeleteVoteHandler godoc
// @Summary Delete a vote and its ballots
// @Tags voting-rights
// @Produce json
// @Security BearerAuth
// @Param vote_id path string true "Vote id"
// @Success 200 {object} httptransport.DeleteVoteResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/votes/{vote_id} [delete]
func (h Handler) DeleteVoteHandler(ctx context.Context, actorID string, voteID string) (httptransport.DeleteVoteResponse, error) {
	result, err := h.VoteAdmin.DeleteVote(ctx, commands.DeleteVoteCommand{
		ActorID: actorID,
		VoteID:  voteID,
	})
	if err != nil {
		h.logFailure("voting_rights_http_delete_vote_failed", err)
		return httptransport.DeleteVoteResponse{}, err
	}
	return httptransport.DeleteVoteResponse{
		Success:        true,
		VoteID:         result.VoteID,
		BallotsDeleted: result.BallotsDeleted,
	}, nil
}

// ToggleAttendanceHandler godoc
// @Summary Toggle a unit's attendance
// @Tags voting-rights
// @Produce json
// @Security BearerAuth
// @Param unit_id path string true "Unit id"
// @Success 200 {object} httptransport.AttendanceResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/units/{unit_id}/attendance [post]
func (h Handler) ToggleAttendanceHandler(ctx context.Context, actorID string, unitID string) (httptransport.AttendanceResponse, error) {
	result, err := h.Attendance.ToggleAttendance(ctx, commands.ToggleAttendanceCommand{
		ActorID: actorID,
		UnitID:  unitID,
	})
	if err != nil {
		h.logFailure("voting_rights_http_toggle_attendance_failed", err)
		return httptransport.AttendanceResponse{}, err
	}
	return httptransport.AttendanceResponse{
		Success:    true,
		UnitID:     result.UnitID,
		AssemblyID: result.AssemblyID,
		Present:    result.Present,
		ToggledAt:  result.ToggledAt,
	}, nil
}

// GetQuorumHandler godoc
// @Summary Coefficient-weighted quorum of an assembly
// @Tags voting-rights
// @Produce json
// @Security BearerAuth
// @Param assembly_id path string true "Assembly id"
// @Success 200 {object} httptransport.QuorumResponse
// @Router /v1/assemblies/{assembly_id}/quorum [get]
func (h Handler) GetQuorumHandler(ctx context.Context, assemblyID string) (httptransport.QuorumResponse, error) {
	quorum, err := h.Quorum.GetQuorum(ctx, assemblyID)
	if err != nil {
		return httptransport.QuorumResponse{}, err
	}
	return httptransport.QuorumResponse{
		Success:            true,
		AssemblyID:         quorum.AssemblyID,
		TotalCoefficient:   quorum.TotalCoefficient.String(),
		PresentCoefficient: quorum.PresentCoefficient.String(),
		Ratio:              quorum.Ratio.String(),
		Percentage:         quorum.Percentage.String(),
		TotalUnits:         quorum.TotalUnits,
		PresentUnits:       quorum.PresentUnits,
	}, nil
}

// GetRepresentationHandler godoc
// @Summary Units an identity currently represents
// @Tags voting-rights
// @Produce json
// @Security BearerAuth
// @Param assembly_id path string true "Assembly id"
// @Param identity_id path string true "Identity id"
// @Success 200 {object} httptransport.RepresentationResponse
// @Router /v1/assemblies/{assembly_id}/representation/{identity_id} [get]
func (h Handler) GetRepresentationHandler(
	ctx context.Context,
	assemblyID string,
	identityID string,
) (httptransport.RepresentationResponse, error) {
	result, err := h.Representation.GetRepresentation(ctx, assemblyID, identityID)
	if err != nil {
		return httptransport.RepresentationResponse{}, err
	}
	units := make([]httptransport.UnitResponse, 0, len(result.Units))
	for _, unit := range result.Units {
		units = append(units, httptransport.UnitResponse{
			UnitID:      unit.UnitID,
			Label:       unit.Label,
			Coefficient: unit.Coefficient.String(),
			OwnerDoc:    unit.OwnerDocumentID.String(),
		})
	}
	proxies := make([]httptransport.ProxyResponse, 0, len(result.ActiveProxies))
	for _, proxy := range result.ActiveProxies {
		proxies = append(proxies, mapProxy(proxy))
	}
	return httptransport.RepresentationResponse{
		Success:       true,
		IdentityID:    result.IdentityID,
		AssemblyID:    result.AssemblyID,
		TotalWeight:   result.TotalWeight.String(),
		Units:         units,
		ActiveProxies: proxies,
	}, nil
}

func (h Handler) logFailure(event string, err error) {
	application.ResolveLogger(h.Logger).Warn("voting rights request failed",
		"event", event,
		"module", "assembly-governance/voting-rights",
		"layer", "transport",
		"error", err.Error(),
	)
}

func mapProxy(proxy entities.Proxy) httptransport.ProxyResponse {
	return httptransport.ProxyResponse{
		ProxyID:           proxy.ProxyID,
		AssemblyID:        proxy.AssemblyID,
		PrincipalID:       proxy.PrincipalID,
		RepresentativeID:  proxy.RepresentativeID,
		ExternalName:      proxy.ExternalName,
		ExternalDocNumber: proxy.ExternalDocNumber.String(),
		Type:              string(proxy.Type),
		Status:            string(proxy.Status),
		DocumentURL:       proxy.DocumentURL,
		CreatedAt:         proxy.CreatedAt,
		UpdatedAt:         proxy.UpdatedAt,
	}
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	options := make([]httptransport.VoteOptionResponse, 0, len(vote.Options))
	for _, option := range vote.Options {
		options = append(options, httptransport.VoteOptionResponse{
			OptionID:   option.OptionID,
			Label:      option.Label,
			OrderIndex: option.OrderIndex,
		})
	}
	return httptransport.VoteResponse{
		Success:    true,
		VoteID:     vote.VoteID,
		AssemblyID: vote.AssemblyID,
		Title:      vote.Title,
		Status:     string(vote.Status),
		Options:    options,
		CreatedAt:  vote.CreatedAt,
		UpdatedAt:  vote.UpdatedAt,
	}
}

func mapOptionInputs(inputs []httptransport.VoteOptionInput) []commands.OptionInput {
	options := make([]commands.OptionInput, 0, len(inputs))
	for _, input := range inputs {
		options = append(options, commands.OptionInput{
			OptionID: input.OptionID,
			Label:    input.Label,
		})
	}
	return options
}

package httpserver

import (
	"net/http"

	httpadapter "assembly/contexts/assembly-governance/voting-rights/adapters/http"
	httptransport "assembly/contexts/assembly-governance/voting-rights/transport/http"
)

func (s *Server) clientInfo(r *http.Request) httpadapter.ClientInfo {
	return httpadapter.ClientInfo{
		IPAddress: resolveClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func (s *Server) handleRequestDelegation(w http.ResponseWriter, r *http.Request) {
	principalID, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req httptransport.RequestDelegationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.votingRights.Handler.RequestDelegationHandler(r.Context(), principalID, s.clientInfo(r), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVerifyDelegation(w http.ResponseWriter, r *http.Request) {
	principalID, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req httptransport.VerifyDelegationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.votingRights.Handler.VerifyDelegationHandler(r.Context(), principalID, s.clientInfo(r), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleManualDelegation(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req httptransport.ManualDelegationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.votingRights.Handler.RegisterManualDelegationHandler(r.Context(), actorID, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRevokeDelegation(w http.ResponseWriter, r *http.Request) {
	principalID, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	resp, err := s.votingRights.Handler.RevokeDelegationHandler(r.Context(), principalID, r.PathValue("proxy_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateVote(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req httptransport.CreateVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.votingRights.Handler.CreateVoteHandler(r.Context(), actorID, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateVoteStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req httptransport.UpdateVoteStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.votingRights.Handler.UpdateVoteStatusHandler(r.Context(), actorID, r.PathValue("vote_id"), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateVoteDetails(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req httptransport.UpdateVoteDetailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.votingRights.Handler.UpdateVoteDetailsHandler(r.Context(), actorID, r.PathValue("vote_id"), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteVote(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	resp, err := s.votingRights.Handler.DeleteVoteHandler(r.Context(), actorID, r.PathValue("vote_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	var req httptransport.CastVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.votingRights.Handler.CastVoteHandler(r.Context(), actorID, r.PathValue("vote_id"), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetTally(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	resp, err := s.votingRights.Handler.GetVoteTallyHandler(r.Context(), r.PathValue("vote_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLiveTally(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	resp, err := s.votingRights.Handler.GetLiveTallyHandler(r.Context(), r.PathValue("vote_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleAttendance(w http.ResponseWriter, r *http.Request) {
	actorID, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	resp, err := s.votingRights.Handler.ToggleAttendanceHandler(r.Context(), actorID, r.PathValue("unit_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetQuorum(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	resp, err := s.votingRights.Handler.GetQuorumHandler(r.Context(), r.PathValue("assembly_id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRepresentation(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	resp, err := s.votingRights.Handler.GetRepresentationHandler(
		r.Context(),
		r.PathValue("assembly_id"),
		r.PathValue("identity_id"),
	)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

package services

import "assembly/contexts/assembly-governance/voting-rights/domain/entities"

var voteTransitions = map[entities.VoteStatus][]entities.VoteStatus{
	entities.VoteStatusDraft:  {entities.VoteStatusOpen},
	entities.VoteStatusOpen:   {entities.VoteStatusPaused, entities.VoteStatusClosed},
	entities.VoteStatusPaused: {entities.VoteStatusOpen},
}

var proxyTransitions = map[entities.ProxyStatus][]entities.ProxyStatus{
	entities.ProxyStatusPending:  {entities.ProxyStatusApproved, entities.ProxyStatusExpired},
	entities.ProxyStatusApproved: {entities.ProxyStatusRevoked},
}

// CanTransitionVote reports whether a vote may move from one status to
// another. CLOSED has no outgoing edges.
func CanTransitionVote(from entities.VoteStatus, to entities.VoteStatus) bool {
	for _, next := range voteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanTransitionProxy(from entities.ProxyStatus, to entities.ProxyStatus) bool {
	for _, next := range proxyTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

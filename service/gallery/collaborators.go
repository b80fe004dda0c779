package gallery

// collaboratorDiff is the outcome of reconciling the submitted
// collaborator list against a gallery's current accepted and pending sets.
type collaboratorDiff struct {
	invite   []uint // not in either set: becomes pending, gets an invite
	withdraw []uint // pending but no longer submitted: invite withdrawn
	remove   []uint // accepted but no longer submitted: removed as collaborator
}

// reconcileCollaborators computes the transitions for a new desired
// collaborator list submitted by the owner. The owner's own id is
// silently dropped. Ids already accepted or already pending stay where
// they are and trigger nothing.
func reconcileCollaborators(ownerID uint, accepted, pending, submitted []uint) collaboratorDiff {
	acceptedSet := toSet(accepted)
	pendingSet := toSet(pending)

	submittedSet := make(map[uint]bool, len(submitted))
	var diff collaboratorDiff

	for _, id := range submitted {
		if id == ownerID || submittedSet[id] {
			continue
		}
		submittedSet[id] = true
		if acceptedSet[id] || pendingSet[id] {
			continue
		}
		diff.invite = append(diff.invite, id)
	}

	for _, id := range pending {
		if !submittedSet[id] {
			diff.withdraw = append(diff.withdraw, id)
		}
	}
	for _, id := range accepted {
		if !submittedSet[id] {
			diff.remove = append(diff.remove, id)
		}
	}

	return diff
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

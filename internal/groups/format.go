package groups

import (
	"strconv"

	"github.com/inote-dev/inote/internal/models"
	"github.com/inote-dev/inote/internal/types"
)

// ToResponse renders a group loaded with its roster. Ids become strings only
// here.
func ToResponse(group models.Group) types.GroupResponse {
	members := make([]types.MemberResponse, 0, len(group.Memberships))
	for _, m := range group.Memberships {
		members = append(members, types.MemberResponse{
			ID:       strconv.FormatUint(uint64(m.User.ID), 10),
			Username: m.User.Name,
			Email:    m.User.Email,
		})
	}

	return types.GroupResponse{
		ID:        strconv.FormatUint(uint64(group.ID), 10),
		Name:      group.Name,
		EntryCode: group.EntryCode,
		Leader:    group.Leader.Name,
		Members:   members,
	}
}

func ToResponses(groups []models.Group) []types.GroupResponse {
	out := make([]types.GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, ToResponse(g))
	}
	return out
}

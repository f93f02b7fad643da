package board

import (
	"sort"

	"github.com/google/uuid"

	"crm-api/internal/dto"
)

// Intent is an unsettled request to move a card from one stage to another
type Intent struct {
	From  uuid.UUID
	To    uuid.UUID
	token uint64
}

// RenderStage derives the cards shown under stageID from the base data and the
// in-flight move intents. Cards whose intent targets another stage are hidden;
// cards moving in from other stages are shown first, newest first.
func RenderStage(stageID uuid.UUID, base map[uuid.UUID][]dto.OpportunityResponse, intents map[uuid.UUID]Intent) []dto.OpportunityResponse {
	out := make([]dto.OpportunityResponse, 0, len(base[stageID]))

	var incoming []dto.OpportunityResponse
	for sid, cards := range base {
		if sid == stageID {
			continue
		}
		for _, card := range cards {
			if intent, ok := intents[card.ID]; ok && intent.To == stageID {
				incoming = append(incoming, card)
			}
		}
	}
	sort.Slice(incoming, func(i, j int) bool {
		if !incoming[i].CreatedAt.Equal(incoming[j].CreatedAt) {
			return incoming[i].CreatedAt.After(incoming[j].CreatedAt)
		}
		return incoming[i].ID.String() < incoming[j].ID.String()
	})
	out = append(out, incoming...)

	for _, card := range base[stageID] {
		if intent, ok := intents[card.ID]; ok && intent.To != stageID {
			continue
		}
		out = append(out, card)
	}
	return out
}

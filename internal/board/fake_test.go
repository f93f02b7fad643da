package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"crm-api/internal/authz"
	"crm-api/internal/dto"
)

// fakeSource is an in-memory pipeline. Cards are kept newest first per stage.
type fakeSource struct {
	mu         sync.Mutex
	pipelineID uuid.UUID
	stages     []dto.StageResponse
	cards      map[uuid.UUID][]dto.OpportunityResponse
	failing    map[uuid.UUID]bool
	absent     bool
	fetchErr   error
	moveErr    error

	// moveGate, when set, holds every move until it receives a value; moveStarted is signalled first
	moveGate    chan struct{}
	moveStarted chan struct{}
	// pageGate, when set, holds every stage page fetch; pageStarted is signalled first
	pageGate    chan struct{}
	pageStarted chan struct{}

	fetchCalls int
	pageCalls  int
	moveCalls  int
}

func newFakeSource(stageCount int) *fakeSource {
	f := &fakeSource{
		pipelineID: uuid.New(),
		cards:      make(map[uuid.UUID][]dto.OpportunityResponse),
		failing:    make(map[uuid.UUID]bool),
	}
	for i := 0; i < stageCount; i++ {
		f.stages = append(f.stages, dto.StageResponse{
			ID:          uuid.New(),
			PipelineID:  f.pipelineID,
			Name:        "stage",
			Position:    i,
			Probability: i * 10,
		})
	}
	return f
}

var cardClock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// addCards appends n cards to a stage, each older than the previous one
func (f *fakeSource) addCards(stage int, n int, owner *uuid.UUID) []dto.OpportunityResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	sid := f.stages[stage].ID
	added := make([]dto.OpportunityResponse, 0, n)
	for i := 0; i < n; i++ {
		cardClock = cardClock.Add(-time.Minute)
		card := dto.OpportunityResponse{
			ID:        uuid.New(),
			Name:      "deal",
			StageID:   sid,
			Amount:    1000,
			Currency:  "EGP",
			Status:    "open",
			OwnerID:   owner,
			CreatedAt: cardClock,
		}
		f.cards[sid] = append(f.cards[sid], card)
		added = append(added, card)
	}
	return added
}

func (f *fakeSource) stageID(i int) uuid.UUID {
	return f.stages[i].ID
}

func (f *fakeSource) stageOf(id uuid.UUID) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sid, cards := range f.cards {
		for _, c := range cards {
			if c.ID == id {
				return sid
			}
		}
	}
	return uuid.Nil
}

func (f *fakeSource) page(stageID uuid.UUID, page, pageSize int) []dto.OpportunityResponse {
	all := f.cards[stageID]
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []dto.OpportunityResponse{}
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return append([]dto.OpportunityResponse(nil), all[start:end]...)
}

func (f *fakeSource) FetchPipeline(ctx context.Context, pipelineID uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.absent || pipelineID != f.pipelineID {
		return nil, nil
	}
	pb := &dto.PipelineBoard{ID: f.pipelineID, Name: "Sales"}
	for _, s := range f.stages {
		col := dto.StageColumn{StageResponse: s, Page: page}
		if f.failing[s.ID] {
			col.Opportunities = []dto.OpportunityResponse{}
			col.Degraded = true
		} else {
			col.Opportunities = f.page(s.ID, page, pageSize)
			col.HasMore = len(col.Opportunities) == pageSize
		}
		pb.Stages = append(pb.Stages, col)
	}
	return pb, nil
}

func (f *fakeSource) FetchStagePage(ctx context.Context, stageID uuid.UUID, page, pageSize int) (*dto.StagePage, error) {
	f.mu.Lock()
	f.pageCalls++
	started, gate := f.pageStarted, f.pageGate
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	opps := f.page(stageID, page, pageSize)
	return &dto.StagePage{StageID: stageID, Opportunities: opps, Page: page, HasMore: len(opps) == pageSize}, nil
}

func (f *fakeSource) MoveOpportunity(ctx context.Context, p authz.Principal, opportunityID, targetStageID uuid.UUID) (*dto.OpportunityResponse, error) {
	f.mu.Lock()
	f.moveCalls++
	started, gate := f.moveStarted, f.moveGate
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveErr != nil {
		return nil, f.moveErr
	}
	var target *dto.StageResponse
	for i := range f.stages {
		if f.stages[i].ID == targetStageID {
			target = &f.stages[i]
		}
	}
	if target == nil {
		return nil, errors.New("stage not found")
	}
	for sid, cards := range f.cards {
		for i, c := range cards {
			if c.ID != opportunityID {
				continue
			}
			f.cards[sid] = append(cards[:i:i], cards[i+1:]...)
			c.StageID = target.ID
			c.Probability = target.Probability
			f.insert(c)
			return &c, nil
		}
	}
	return nil, errors.New("opportunity not found")
}

func (f *fakeSource) insert(card dto.OpportunityResponse) {
	cards := f.cards[card.StageID]
	at := len(cards)
	for i, c := range cards {
		if card.CreatedAt.After(c.CreatedAt) {
			at = i
			break
		}
	}
	out := make([]dto.OpportunityResponse, 0, len(cards)+1)
	out = append(out, cards[:at]...)
	out = append(out, card)
	out = append(out, cards[at:]...)
	f.cards[card.StageID] = out
}

func (f *fakeSource) counts() (fetch, page, move int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.pageCalls, f.moveCalls
}

type recordingListener struct {
	mu      sync.Mutex
	views   []View
	notices []Notice
}

func (r *recordingListener) BoardChanged(view View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, view)
}

func (r *recordingListener) Notice(notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

func (r *recordingListener) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func (r *recordingListener) ViewCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// columnsContaining returns the stage ids whose rendered cards include id
func columnsContaining(view View, id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, col := range view.Columns {
		for _, card := range col.Cards {
			if card.ID == id {
				out = append(out, col.ID)
			}
		}
	}
	return out
}

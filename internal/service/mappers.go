package service

import (
	"crm-api/internal/domain"
	"crm-api/internal/dto"
	"crm-api/internal/search"
)

func toClientSummary(c *domain.Client) *dto.ClientSummary {
	if c == nil {
		return nil
	}
	return &dto.ClientSummary{ID: c.ID, Name: c.Name}
}

func toOpportunityResponse(o *domain.Opportunity) dto.OpportunityResponse {
	return dto.OpportunityResponse{
		ID:          o.ID,
		Name:        o.Name,
		ClientID:    o.ClientID,
		Client:      toClientSummary(o.Client),
		StageID:     o.StageID,
		Amount:      o.Amount,
		Currency:    o.Currency,
		Status:      string(o.Status),
		Probability: o.Probability,
		CloseDate:   formatDate(o.CloseDate),
		OwnerID:     o.OwnerID,
		ContactID:   o.ContactID,
		Notes:       o.Notes,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toClientResponse(c *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toContactResponse(c *domain.Contact) dto.ContactResponse {
	return dto.ContactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName(),
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Position:  c.Position,
		ClientID:  c.ClientID,
		Client:    toClientSummary(c.Client),
		OwnerID:   c.OwnerID,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toLeadResponse(l *domain.Lead) dto.LeadResponse {
	return dto.LeadResponse{
		ID:                 l.ID,
		FirstName:          l.FirstName,
		LastName:           l.LastName,
		Company:            l.Company,
		Email:              l.Email,
		Phone:              l.Phone,
		Source:             string(l.Source),
		Status:             string(l.Status),
		Score:              l.Score,
		OwnerID:            l.OwnerID,
		Notes:              l.Notes,
		ConvertedClientID:  l.ConvertedClientID,
		ConvertedContactID: l.ConvertedContactID,
		ConvertedAt:        l.ConvertedAt,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

func toProjectResponse(p *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ClientID:    p.ClientID,
		Client:      toClientSummary(p.Client),
		Status:      string(p.Status),
		Budget:      p.Budget,
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toTaskResponse(t *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		ProjectID:   t.ProjectID,
		Assignee:    t.Assignee,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     formatDate(t.DueDate),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toStageResponse(s *domain.Stage) dto.StageResponse {
	return dto.StageResponse{
		ID:          s.ID,
		PipelineID:  s.PipelineID,
		Name:        s.Name,
		Position:    s.Position,
		Probability: s.Probability,
	}
}

func toPipelineResponse(p *domain.Pipeline) dto.PipelineResponse {
	stages := make([]dto.StageResponse, len(p.Stages))
	for i := range p.Stages {
		stages[i] = toStageResponse(&p.Stages[i])
	}
	return dto.PipelineResponse{ID: p.ID, Name: p.Name, Stages: stages}
}

func toAttachmentResponse(a *domain.Attachment, url string) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          a.ID,
		EntityType:  string(a.EntityType),
		EntityID:    a.EntityID,
		Status:      string(a.Status),
		FileName:    a.FileName,
		FileURL:     url,
		FileSize:    a.FileSize,
		ContentType: a.ContentType,
		UploadedBy:  a.UploadedBy,
		UploadedAt:  a.CreatedAt,
		ExpiresAt:   a.ExpiresAt,
	}
}

func mapSlice[S any, D any](items []S, fn func(*S) D) []D {
	out := make([]D, len(items))
	for i := range items {
		out[i] = fn(&items[i])
	}
	return out
}

// Search documents

func opportunityDocument(o *domain.Opportunity) search.Document {
	return search.Document{
		ID:    o.ID.String(),
		Title: o.Name,
		Text:  o.Notes,
		Owner: uuidString(o.OwnerID),
	}
}

func leadDocument(l *domain.Lead) search.Document {
	return search.Document{
		ID:    l.ID.String(),
		Title: joinNonEmpty(l.FirstName, l.LastName),
		Text:  joinNonEmpty(l.Company, l.Email),
		Owner: uuidString(l.OwnerID),
	}
}

func contactDocument(c *domain.Contact) search.Document {
	return search.Document{
		ID:    c.ID.String(),
		Title: c.FullName(),
		Text:  joinNonEmpty(c.Email, c.Company),
		Owner: uuidString(c.OwnerID),
	}
}

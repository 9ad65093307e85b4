package members

import "github.com/celulahub/celulahub/internal/domain/models"

type positionInput struct {
	Type     string `json:"type" validate:"required,max=50" label:"Ministry position"`
	Priority int    `json:"priority" validate:"min=0,max=100" label:"Priority"`
}

type memberInput struct {
	Name             string         `json:"name" validate:"required,max=200" label:"Name"`
	Email            string         `json:"email" validate:"omitempty,email,max=254" label:"Email"`
	Phone            string         `json:"phone" validate:"max=50" label:"Phone"`
	CelulaID         *string        `json:"celula_id" validate:"omitempty,objectid" label:"Celula"`
	MinistryPosition *positionInput `json:"ministry_position" validate:"omitempty"`
	Status           string         `json:"status" validate:"omitempty,oneof=active disabled" label:"Status"`
}

func (in memberInput) position() *models.MinistryPosition {
	if in.MinistryPosition == nil {
		return nil
	}
	return &models.MinistryPosition{Type: in.MinistryPosition.Type, Priority: in.MinistryPosition.Priority}
}

package reports

import "github.com/celulahub/celulahub/internal/domain/models"

type planResponse struct {
	Celula      *models.Celula  `json:"celula"`
	Weekday     *int            `json:"weekday"`
	ValidDates  []string        `json:"valid_dates"`
	DefaultDate string          `json:"default_date"`
	Members     []models.Member `json:"members"`
	CanSubmit   bool            `json:"can_submit"`
}

type monthQuery struct {
	Month string `validate:"required,yearmonth" label:"Month"`
}

type monthResponse struct {
	Month         string          `json:"month"`
	Reports       []models.Report `json:"reports"`
	ExpectedDates []string        `json:"expected_dates"`
	MissingDates  []string        `json:"missing_dates"`
}

type submitInput struct {
	CelulaID         string   `json:"celula_id" validate:"required,objectid" label:"Celula"`
	Date             string   `json:"date" validate:"required,isodate" label:"Date"`
	PresentMemberIDs []string `json:"present_member_ids" validate:"dive,objectid" label:"Present members"`
	Visitors         int      `json:"visitors" validate:"min=0,max=10000" label:"Visitors"`
	Notes            string   `json:"notes" validate:"max=5000" label:"Notes"`
	ConfirmOverride  bool     `json:"confirm_override"`
}

// mismatchResponse is the 409 body for a date that needs confirmation.
type mismatchResponse struct {
	Error           string `json:"error"`
	Message         string `json:"message"`
	Date            string `json:"date"`
	ChosenWeekday   int    `json:"chosen_weekday"`
	ExpectedWeekday int    `json:"expected_weekday"`
}

package celulas

// celulaInput is the create and update body. Weekday uses Go's numbering,
// 0 for Sunday through 6 for Saturday; null means no fixed day.
type celulaInput struct {
	Name           string  `json:"name" validate:"required,max=200" label:"Name"`
	Weekday        *int    `json:"weekday" validate:"omitempty,min=0,max=6" label:"Weekday"`
	Time           *string `json:"time" validate:"omitempty,hhmm" label:"Time"`
	DiscipuladoID  *string `json:"discipulado_id" validate:"omitempty,objectid" label:"Discipulado"`
	LeaderMemberID *string `json:"leader_member_id" validate:"omitempty,objectid" label:"Leader"`
}

package redes

type redeInput struct {
	Name           string  `json:"name" validate:"required,max=200" label:"Name"`
	PastorMemberID *string `json:"pastor_member_id" validate:"omitempty,objectid" label:"Pastor"`
}

package discipulados

type discipuladoInput struct {
	Name                 string  `json:"name" validate:"required,max=200" label:"Name"`
	RedeID               string  `json:"rede_id" validate:"required,objectid" label:"Rede"`
	DiscipuladorMemberID *string `json:"discipulador_member_id" validate:"omitempty,objectid" label:"Discipulador"`
}

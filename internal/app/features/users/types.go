package users

type createInput struct {
	FullName   string  `json:"full_name" validate:"required,max=200" label:"Name"`
	LoginID    string  `json:"login_id" validate:"required,max=100" label:"Login ID"`
	Email      string  `json:"email" validate:"required_if=AuthMethod google,omitempty,email,max=254" label:"Email"`
	Password   string  `json:"password" validate:"required_unless=AuthMethod google,omitempty,min=8,max=200" label:"Password"`
	AuthMethod string  `json:"auth_method" validate:"omitempty,oneof=password google" label:"Auth method"`
	Role       string  `json:"role" validate:"required,oneof=admin user" label:"Role"`
	MemberID   *string `json:"member_id" validate:"omitempty,objectid" label:"Member"`
}

type roleInput struct {
	Role     string  `json:"role" validate:"required,oneof=admin user" label:"Role"`
	MemberID *string `json:"member_id" validate:"omitempty,objectid" label:"Member"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=active disabled" label:"Status"`
}

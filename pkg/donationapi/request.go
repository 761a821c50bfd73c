package donationapi

// DonationRequest is the body of POST /donations. Every field is sent as the
// raw form string; an omitted email is sent as "".
type DonationRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Amount  string `json:"amount"`
	Message string `json:"message"`
}

// RemarksUpdate is the admin body of PUT /donations/:id.
type RemarksUpdate struct {
	AdminRemarks string `json:"adminRemarks"`
}

// DonorUpdate is the donor body of PUT /donations/:id.
type DonorUpdate struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
